// internal/domain/currency.go
package domain

// Currency is an ISO-4217 style currency code supported by the wallet.
type Currency string

const (
	CurrencyNGN Currency = "NGN"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyJPY Currency = "JPY"
	CurrencyCAD Currency = "CAD"
	CurrencyAUD Currency = "AUD"
	CurrencyCHF Currency = "CHF"
	CurrencyCNY Currency = "CNY"
	CurrencyINR Currency = "INR"
	CurrencyZAR Currency = "ZAR"
)

// CurrencyConfig describes a currency's display and precision attributes.
// Decimals is the number of fractional digits between the major unit and
// the smallest unit (kobo, cents, ...). All stored amounts are integers in
// the smallest unit.
type CurrencyConfig struct {
	Decimals int
	Symbol   string
	UnitName string
}

var currencyConfigs = map[Currency]CurrencyConfig{
	CurrencyNGN: {Decimals: 2, Symbol: "₦", UnitName: "kobo"},
	CurrencyUSD: {Decimals: 2, Symbol: "$", UnitName: "cents"},
	CurrencyEUR: {Decimals: 2, Symbol: "€", UnitName: "cents"},
	CurrencyGBP: {Decimals: 2, Symbol: "£", UnitName: "pence"},
	CurrencyJPY: {Decimals: 0, Symbol: "¥", UnitName: "yen"},
	CurrencyCAD: {Decimals: 2, Symbol: "C$", UnitName: "cents"},
	CurrencyAUD: {Decimals: 2, Symbol: "A$", UnitName: "cents"},
	CurrencyCHF: {Decimals: 2, Symbol: "CHF", UnitName: "rappen"},
	CurrencyCNY: {Decimals: 2, Symbol: "¥", UnitName: "fen"},
	CurrencyINR: {Decimals: 2, Symbol: "₹", UnitName: "paise"},
	CurrencyZAR: {Decimals: 2, Symbol: "R", UnitName: "cents"},
}

// IsValid reports whether c is a supported currency.
func (c Currency) IsValid() bool {
	_, ok := currencyConfigs[c]
	return ok
}

// Config returns the configuration for c. Calling Config on an unsupported
// currency returns the zero config; callers validate first.
func (c Currency) Config() CurrencyConfig {
	return currencyConfigs[c]
}

// String implements fmt.Stringer.
func (c Currency) String() string {
	return string(c)
}

// Currencies returns all supported currency codes.
func Currencies() []Currency {
	codes := make([]Currency, 0, len(currencyConfigs))
	for c := range currencyConfigs {
		codes = append(codes, c)
	}
	return codes
}
