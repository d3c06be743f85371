package types

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Amount is a human readable decimal quantity such as "0.25".
// Documents written by the web app store it either as a string or as a number, both decode here.
type Amount string

func (a *Amount) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.String:
		*a = Amount(strings.TrimSpace(raw.StringValue()))
	case bsontype.Int32:
		*a = Amount(strconv.FormatInt(int64(raw.Int32()), 10))
	case bsontype.Int64:
		*a = Amount(strconv.FormatInt(raw.Int64(), 10))
	case bsontype.Double:
		*a = Amount(strconv.FormatFloat(raw.Double(), 'f', -1, 64))
	case bsontype.Decimal128:
		*a = Amount(raw.Decimal128().String())
	case bsontype.Null, bsontype.Undefined:
		*a = ""
	default:
		return fmt.Errorf("cannot decode %s into Amount", t)
	}
	return nil
}

func (a Amount) String() string {
	return string(a)
}

// ParseBigInt parses a base-10 integer string
func ParseBigInt(s string) (*big.Int, error) {
	i, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, &strconv.NumError{
			Func: "ParseBigInt",
			Num:  s,
			Err:  strconv.ErrSyntax,
		}
	}
	return i, nil
}

// ParseUnits converts a decimal string into base units, e.g. ("1.5", 6) -> 1500000.
// Fraction digits beyond decimals are accepted only when they are zeros.
func ParseUnits(amount string, decimals int) (*big.Int, error) {
	if decimals < 0 || decimals > 77 {
		return nil, fmt.Errorf("invalid decimals %d", decimals)
	}
	s := strings.TrimSpace(amount)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("negative amount %q", amount)
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if !isDigits(whole) || (frac != "" && !isDigits(frac)) {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}

	if len(frac) > decimals {
		if strings.Trim(frac[decimals:], "0") != "" {
			return nil, fmt.Errorf("amount %q has more than %d decimals", amount, decimals)
		}
		frac = frac[:decimals]
	}
	frac += strings.Repeat("0", decimals-len(frac))

	return ParseBigInt(whole + frac)
}

// FormatUnits is the inverse of ParseUnits, trimming trailing fraction zeros.
func FormatUnits(value *big.Int, decimals int) string {
	if value == nil {
		return "0"
	}
	negative := value.Sign() < 0
	digits := new(big.Int).Abs(value).String()

	if decimals > 0 {
		if len(digits) <= decimals {
			digits = strings.Repeat("0", decimals-len(digits)+1) + digits
		}
		cut := len(digits) - decimals
		whole, frac := digits[:cut], strings.TrimRight(digits[cut:], "0")
		digits = whole
		if frac != "" {
			digits += "." + frac
		}
	}

	if negative {
		return "-" + digits
	}
	return digits
}

// IsPositive reports whether amount parses to a value above zero at the given precision.
func IsPositive(amount string, decimals int) bool {
	v, err := ParseUnits(amount, decimals)
	return err == nil && v.Sign() > 0
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
