package barcode

import (
	"fmt"
	"strconv"
)

// Layout identifies the fixed-width encoding a barcode was decoded with.
type Layout int

const (
	// LayoutPLU is the fallback: the whole string is the product code.
	LayoutPLU Layout = iota
	// LayoutWeight is the 13-digit weight code.
	LayoutWeight
	// LayoutWeightPrice is the 18-digit weight and price code.
	LayoutWeightPrice
	// LayoutWeightPriceExpiry is the 30-digit weight, price and packaging time code.
	LayoutWeightPriceExpiry
)

func (l Layout) String() string {
	switch l {
	case LayoutPLU:
		return "plu"
	case LayoutWeight:
		return "weight"
	case LayoutWeightPrice:
		return "weight_price"
	case LayoutWeightPriceExpiry:
		return "weight_price_expiry"
	}
	return fmt.Sprintf("layout(%d)", int(l))
}

// MarshalText implements encoding.TextMarshaler.
func (l Layout) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Layout) UnmarshalText(text []byte) error {
	for _, candidate := range []Layout{LayoutPLU, LayoutWeight, LayoutWeightPrice, LayoutWeightPriceExpiry} {
		if candidate.String() == string(text) {
			*l = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown layout %q", text)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// field is a half-open [start, end) character range. divisor converts the
// raw integer to its unit (kg, currency).
type field struct {
	start, end int
	divisor    float64
}

func (f field) slice(s string) string {
	return s[f.start:f.end]
}

func (f field) scaled(s string) (float64, error) {
	raw, err := parseDigits(f.slice(s))
	if err != nil {
		return 0, err
	}
	return float64(raw) / f.divisor, nil
}

type layoutSpec struct {
	layout Layout
	plu    field
	weight field
	amount *field
	expiry *field
}

// layouts is keyed by total barcode length. Characters outside the listed
// ranges (prefix, check digit) are ignored.
var layouts = map[int]layoutSpec{
	13: {
		layout: LayoutWeight,
		plu:    field{start: 2, end: 7},
		weight: field{start: 7, end: 12, divisor: 1000},
	},
	18: {
		layout: LayoutWeightPrice,
		plu:    field{start: 2, end: 7},
		weight: field{start: 7, end: 12, divisor: 1000},
		amount: &field{start: 12, end: 17, divisor: 100},
	},
	30: {
		layout: LayoutWeightPriceExpiry,
		plu:    field{start: 2, end: 7},
		weight: field{start: 7, end: 12, divisor: 1000},
		amount: &field{start: 12, end: 17, divisor: 1000},
		expiry: &field{start: 17, end: 29},
	},
}

func layoutFor(length int) (layoutSpec, bool) {
	spec, ok := layouts[length]
	return spec, ok
}

// parseDigits parses an unsigned decimal string. Unlike strconv.Atoi it
// rejects signs, so a decoded field can never be negative. Values that
// overflow int are malformed, not truncated.
func parseDigits(s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("parsing %q: empty field", s)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("parsing %q: invalid digit %q at offset %d", s, s[i], i)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("parsing %q: %w", s, err)
	}
	return n, nil
}
