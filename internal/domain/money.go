// internal/domain/money.go
package domain

import (
	"database/sql/driver"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// rateScale is the fixed-point scale used for exchange rates: rates are
// applied as round(rate * 10^10) over integer arithmetic so the same
// (amount, rate) pair always yields the same result.
const rateDigits = 10

var rateScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(rateDigits), nil)

// Units is an exact integer amount in a currency's smallest unit (kobo,
// cents, yen, ...). It embeds big.Int so balances never overflow and never
// pass through floating point. Units stores to and scans from the database
// as a numeric string.
type Units struct {
	big.Int
}

// NewUnits returns a Units holding v.
func NewUnits(v int64) *Units {
	u := new(Units)
	u.SetInt64(v)
	return u
}

// UnitsFromBig returns a Units holding a copy of i.
func UnitsFromBig(i *big.Int) *Units {
	u := new(Units)
	u.Set(i)
	return u
}

// Clone returns an independent copy of u.
func (u *Units) Clone() *Units {
	return UnitsFromBig(&u.Int)
}

// Add returns u + v as a new Units.
func (u *Units) Add(v *Units) *Units {
	r := new(Units)
	r.Int.Add(&u.Int, &v.Int)
	return r
}

// Sub returns u - v as a new Units. The result may be negative; callers
// mutating a balance must reject a negative result before it is persisted.
func (u *Units) Sub(v *Units) *Units {
	r := new(Units)
	r.Int.Sub(&u.Int, &v.Int)
	return r
}

// LessThan reports whether u < v.
func (u *Units) LessThan(v *Units) bool {
	return u.Int.Cmp(&v.Int) < 0
}

// Equal reports whether u == v.
func (u *Units) Equal(v *Units) bool {
	return u.Int.Cmp(&v.Int) == 0
}

// IsNegative reports whether u < 0.
func (u *Units) IsNegative() bool {
	return u.Int.Sign() < 0
}

// Value implements driver.Valuer so Units can be written to NUMERIC columns.
func (u Units) Value() (driver.Value, error) {
	return u.Int.String(), nil
}

// Scan implements sql.Scanner for NUMERIC and BIGINT columns.
func (u *Units) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		u.SetInt64(0)
		return nil
	case int64:
		u.SetInt64(v)
		return nil
	case []byte:
		return u.setString(string(v))
	case string:
		return u.setString(v)
	default:
		return fmt.Errorf("cannot scan %T into Units", src)
	}
}

func (u *Units) setString(s string) error {
	// NUMERIC columns may come back with a trailing ".000...".
	if i := strings.IndexByte(s, '.'); i >= 0 {
		frac := strings.TrimRight(s[i+1:], "0")
		if frac != "" {
			return fmt.Errorf("units value %q is not an integer", s)
		}
		s = s[:i]
	}
	if _, ok := u.SetString(s, 10); !ok {
		return fmt.Errorf("invalid units value %q", s)
	}
	return nil
}

// MarshalJSON renders Units as a JSON string to avoid precision loss in
// consumers that parse numbers as float64.
func (u Units) MarshalJSON() ([]byte, error) {
	return []byte(`"` + u.Int.String() + `"`), nil
}

// UnmarshalJSON accepts both string and bare-number encodings.
func (u *Units) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	return u.setString(s)
}

// ToSmallestUnit converts a human-entered decimal amount to integer smallest
// units at the currency's declared precision, rounding half away from zero.
func ToSmallestUnit(amount decimal.Decimal, currency Currency) *Units {
	cfg := currency.Config()
	return UnitsFromBig(amount.Shift(int32(cfg.Decimals)).Round(0).BigInt())
}

// FromSmallestUnit converts integer smallest units back to a decimal amount.
// For any amount representable exactly at the currency's precision,
// FromSmallestUnit(ToSmallestUnit(x)) == x.
func FromSmallestUnit(u *Units, currency Currency) decimal.Decimal {
	cfg := currency.Config()
	return decimal.NewFromBigInt(new(big.Int).Set(&u.Int), -int32(cfg.Decimals))
}

// MultiplyByRate applies an exchange rate to an amount of smallest units:
// amount * round(rate * 10^10) / 10^10, computed in integer arithmetic with
// the final division truncating toward zero. This is the only place rate
// precision loss enters the ledger.
func MultiplyByRate(amount *Units, rate decimal.Decimal) *Units {
	scaledRate := rate.Shift(rateDigits).Round(0).BigInt()
	result := new(big.Int).Mul(&amount.Int, scaledRate)
	result.Quo(result, rateScale)
	return UnitsFromBig(result)
}

// FormatRate renders a rate at the fixed precision it is persisted with.
func FormatRate(rate decimal.Decimal) string {
	return rate.StringFixed(rateDigits)
}

// Format renders an amount of smallest units as the currency symbol plus a
// thousands-grouped decimal string at the currency's precision, e.g.
// 1000050 kobo -> "₦10,000.50".
func Format(u *Units, currency Currency) string {
	cfg := currency.Config()
	s := FromSmallestUnit(u, currency).StringFixed(int32(cfg.Decimals))

	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, fracPart, hasFrac := strings.Cut(s, ".")
	formatted := cfg.Symbol + groupThousands(intPart)
	if hasFrac {
		formatted += "." + fracPart
	}
	if negative {
		formatted = "-" + formatted
	}
	return formatted
}

func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
