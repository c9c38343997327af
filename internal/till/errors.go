package till

import (
	"errors"
	"fmt"

	"github.com/zombor/pos-terminal/internal/barcode"
	"github.com/zombor/pos-terminal/internal/catalog"
)

var (
	// ErrEmptyOrder is returned when paying for an order with no lines.
	ErrEmptyOrder = errors.New("order is empty")

	// ErrUnknownLanguage is returned when switching to a language the table does not define.
	ErrUnknownLanguage = errors.New("unknown language")
)

// LanguageError is returned when switching to a language the table does
// not define. It wraps ErrUnknownLanguage.
type LanguageError struct {
	Name string
}

func (e *LanguageError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnknownLanguage, e.Name)
}

func (e *LanguageError) Unwrap() error {
	return ErrUnknownLanguage
}

// ScanError describes a rejected scan. It wraps one of the barcode sentinel
// errors or catalog.ErrNotFound.
type ScanError struct {
	Barcode string
	Kind    barcode.Kind // KindNone when the barcode decoded but the PLU is unknown
	PLU     int
	Detail  string
	Err     error
}

func (e *ScanError) Error() string {
	if e.Kind == barcode.KindNone {
		return fmt.Sprintf("scanning %q: %v", e.Barcode, e.Err)
	}
	return fmt.Sprintf("scanning %q: %s", e.Barcode, e.Detail)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Code returns the decoder's numeric error code, 0 for an unknown product.
func (e *ScanError) Code() int {
	return e.Kind.Code()
}

// MessageKey returns the localization key describing the failure.
func (e *ScanError) MessageKey() string {
	if e.Kind == barcode.KindNone {
		return "product_not_found"
	}
	return e.Kind.MessageKey()
}

// NotFound reports whether the barcode decoded but no product matched.
func (e *ScanError) NotFound() bool {
	return errors.Is(e.Err, catalog.ErrNotFound)
}
