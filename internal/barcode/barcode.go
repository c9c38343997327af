package barcode

import (
	"errors"
	"fmt"
	"time"
)

// DefaultFreshnessWindow is how long past its embedded timestamp a
// 30-digit code is still accepted.
const DefaultFreshnessWindow = 10 * time.Second

// expiryLayout is YYMMDDhhmmss
const expiryLayout = "060102150405"

var (
	ErrEmptyInput     = errors.New("empty barcode")
	ErrExpired        = errors.New("product expired")
	ErrMalformedInput = errors.New("malformed barcode")
)

// Kind is the symbolic outcome of a decode. Callers map it to display text.
type Kind int

const (
	KindNone Kind = iota
	KindEmptyInput
	KindExpired
	KindMalformedInput
)

// Code returns the stable numeric error code for the kind.
func (k Kind) Code() int {
	return int(k)
}

// MessageKey returns the localization key used to render the kind.
func (k Kind) MessageKey() string {
	switch k {
	case KindEmptyInput:
		return "empty_barcode"
	case KindExpired:
		return "expired_product"
	case KindMalformedInput:
		return "invalid_barcode"
	}
	return ""
}

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindEmptyInput:
		return "empty_input"
	case KindExpired:
		return "expired"
	case KindMalformedInput:
		return "malformed_input"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) sentinel() error {
	switch k {
	case KindEmptyInput:
		return ErrEmptyInput
	case KindExpired:
		return ErrExpired
	case KindMalformedInput:
		return ErrMalformedInput
	}
	return nil
}

// Result is the outcome of decoding a single scan. Optional fields are nil
// when the layout does not carry them or extraction failed before reaching them.
type Result struct {
	PLU      *int     `json:"plu,omitempty"`
	WeightKg *float64 `json:"weight_kg,omitempty"`
	Amount   *float64 `json:"amount,omitempty"` // embedded total price
	Layout   Layout   `json:"layout"`
	Kind     Kind     `json:"kind"`
	Message  string   `json:"message,omitempty"`
}

// Code returns 0 on success, 1 for empty input, 2 for an expired product
// and 3 for malformed input.
func (r Result) Code() int {
	return r.Kind.Code()
}

// OK reports whether the decode succeeded.
func (r Result) OK() bool {
	return r.Kind == KindNone
}

// Err returns nil on success, otherwise an error wrapping one of
// ErrEmptyInput, ErrExpired or ErrMalformedInput.
func (r Result) Err() error {
	sentinel := r.Kind.sentinel()
	if sentinel == nil {
		return nil
	}
	if r.Message == "" || r.Message == sentinel.Error() {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, r.Message)
}

// Decoder decodes scanned digit strings. The zero value uses
// DefaultFreshnessWindow.
type Decoder struct {
	FreshnessWindow time.Duration
}

// Decode classifies barcode by length and extracts its fields using the
// default freshness window.
func Decode(barcode string, now time.Time) Result {
	return Decoder{}.Decode(barcode, now)
}

// Decode classifies barcode by length and extracts its fields. now is the
// scan time used for the expiry check.
func (d Decoder) Decode(barcode string, now time.Time) Result {
	if barcode == "" {
		return Result{Kind: KindEmptyInput, Message: ErrEmptyInput.Error()}
	}

	spec, ok := layoutFor(len(barcode))
	if !ok {
		plu, err := parseDigits(barcode)
		if err != nil {
			return malformed(LayoutPLU, err)
		}
		weight := 1.0
		return Result{PLU: &plu, WeightKg: &weight, Layout: LayoutPLU}
	}

	plu, err := parseDigits(spec.plu.slice(barcode))
	if err != nil {
		return malformed(spec.layout, err)
	}
	weight, err := spec.weight.scaled(barcode)
	if err != nil {
		return malformed(spec.layout, err)
	}
	res := Result{PLU: &plu, WeightKg: &weight, Layout: spec.layout}

	if spec.amount != nil {
		amount, err := spec.amount.scaled(barcode)
		if err != nil {
			return malformed(spec.layout, err)
		}
		res.Amount = &amount
	}

	if spec.expiry != nil {
		expiry, err := time.ParseInLocation(expiryLayout, spec.expiry.slice(barcode), now.Location())
		if err != nil {
			res.Kind = KindMalformedInput
			res.Message = fmt.Sprintf("invalid expiry date: %v", err)
			return res
		}
		window := d.FreshnessWindow
		if window <= 0 {
			window = DefaultFreshnessWindow
		}
		if now.Sub(expiry) > window {
			res.Kind = KindExpired
			res.Message = ErrExpired.Error()
		}
	}

	return res
}

func malformed(layout Layout, err error) Result {
	return Result{
		Layout:  layout,
		Kind:    KindMalformedInput,
		Message: err.Error(),
	}
}
