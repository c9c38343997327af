package till

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/pos-terminal/internal/barcode"
	"github.com/zombor/pos-terminal/internal/catalog"
	"github.com/zombor/pos-terminal/internal/i18n"
)

// IDGenerator generates unique IDs for orders and sales
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Language describes a selectable display language
type Language struct {
	Locale string `json:"locale"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Service is a single till: it turns scans into order lines, keeps the
// running total and takes payment.
type Service struct {
	catalog     catalog.Store
	decoder     barcode.Decoder
	languages   *i18n.Table
	idGenerator IDGenerator
	timeSource  TimeSource

	mu     sync.Mutex
	order  Order
	locale string
}

// NewService creates a new Service with uuid IDs and the wall clock
func NewService(store catalog.Store, decoder barcode.Decoder, languages *i18n.Table, locale string) *Service {
	return NewServiceWithDeps(store, decoder, languages, locale, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(store catalog.Store, decoder barcode.Decoder, languages *i18n.Table, locale string, idGen IDGenerator, timeSrc TimeSource) *Service {
	if !languages.Has(locale) {
		fallback := i18n.DefaultLocale
		if locales := languages.Locales(); !languages.Has(fallback) && len(locales) > 0 {
			fallback = locales[0]
		}
		slog.Warn("Unknown locale, using fallback", "locale", locale, "fallback", fallback)
		locale = fallback
	}
	s := &Service{
		catalog:     store,
		decoder:     decoder,
		languages:   languages,
		idGenerator: idGen,
		timeSource:  timeSrc,
		locale:      locale,
	}
	s.order = s.newOrder()
	return s
}

func (s *Service) newOrder() Order {
	return Order{
		ID:       s.idGenerator.Generate(),
		Lines:    []Line{},
		OpenedAt: s.timeSource.Now(),
	}
}

// toCents rounds a currency amount to whole cents
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// Scan decodes a barcode, looks the product up and adds a line to the order
func (s *Service) Scan(code string) (*Line, error) {
	now := s.timeSource.Now()
	result := s.decoder.Decode(code, now)
	if !result.OK() {
		slog.Warn("Rejected scan",
			"barcode", code,
			"kind", result.Kind,
			"code", result.Code(),
			"message", result.Message,
		)
		scanErr := &ScanError{
			Barcode: code,
			Kind:    result.Kind,
			Detail:  result.Message,
			Err:     result.Err(),
		}
		if result.PLU != nil {
			scanErr.PLU = *result.PLU
		}
		return nil, scanErr
	}

	plu := *result.PLU
	product, err := s.catalog.Get(plu)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			slog.Warn("Product not found", "barcode", code, "plu", plu)
			return nil, &ScanError{Barcode: code, PLU: plu, Err: err}
		}
		return nil, fmt.Errorf("looking up product %d: %w", plu, err)
	}

	quantity := *result.WeightKg
	subtotal := product.Price * quantity
	if result.Amount != nil {
		subtotal = *result.Amount
	}

	line := Line{
		PLU:           product.PLU,
		Name:          product.Name,
		Unit:          product.Unit,
		UnitPrice:     product.Price,
		Quantity:      quantity,
		SubtotalCents: toCents(subtotal),
		Layout:        result.Layout,
		ScannedAt:     now,
	}

	s.mu.Lock()
	s.order.Lines = append([]Line{line}, s.order.Lines...)
	s.order.TotalCents += line.SubtotalCents
	s.mu.Unlock()

	return &line, nil
}

// Order returns a snapshot of the running order
func (s *Service) Order() Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.order
	snapshot.Lines = append([]Line{}, s.order.Lines...)
	return snapshot
}

// Total returns the running total in cents
func (s *Service) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.TotalCents
}

// Checkout confirms payment for the running order and starts a new one
func (s *Service) Checkout() (*Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order.Lines) == 0 {
		return nil, ErrEmptyOrder
	}

	sale := &Sale{
		ID:         s.idGenerator.Generate(),
		OrderID:    s.order.ID,
		Lines:      s.order.Lines,
		TotalCents: s.order.TotalCents,
		PaidAt:     s.timeSource.Now(),
	}
	s.order = s.newOrder()

	slog.Info("Payment confirmed", "sale", sale.ID, "order", sale.OrderID, "lines", len(sale.Lines), "total_cents", sale.TotalCents)
	return sale, nil
}

// Cancel discards the running order
func (s *Service) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order.Lines) > 0 {
		slog.Info("Order cancelled", "order", s.order.ID, "lines", len(s.order.Lines))
	}
	s.order = s.newOrder()
}

// GetProduct retrieves a catalog product by PLU
func (s *Service) GetProduct(plu int) (*catalog.Product, error) {
	product, err := s.catalog.Get(plu)
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}
	return product, nil
}

// Locale returns the active locale
func (s *Service) Locale() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locale
}

// SetLanguage switches the display language by its display name or locale code
func (s *Service) SetLanguage(name string) (string, error) {
	locale, ok := s.languages.LocaleByName(name)
	if !ok {
		return "", &LanguageError{Name: name}
	}

	s.mu.Lock()
	s.locale = locale
	s.mu.Unlock()

	slog.Info("Language changed", "locale", locale)
	return locale, nil
}

// Languages lists the selectable languages
func (s *Service) Languages() []Language {
	active := s.Locale()
	locales := s.languages.Locales()
	languages := make([]Language, 0, len(locales))
	for _, locale := range locales {
		languages = append(languages, Language{
			Locale: locale,
			Name:   s.languages.Name(locale),
			Active: locale == active,
		})
	}
	return languages
}

// Text renders key in the active locale
func (s *Service) Text(key string) string {
	return s.languages.Text(s.Locale(), key)
}

// Texts returns every text of the active locale
func (s *Service) Texts() map[string]string {
	return s.languages.Texts(s.Locale())
}

// Message renders err for display in the active locale
func (s *Service) Message(err error) string {
	locale := s.Locale()

	var (
		scanErr *ScanError
		langErr *LanguageError
	)
	switch {
	case errors.As(err, &scanErr):
		switch {
		case scanErr.NotFound():
			return s.languages.Textf(locale, "product_not_found", " (%d)", scanErr.PLU)
		case scanErr.Kind == barcode.KindMalformedInput:
			return s.languages.Textf(locale, scanErr.MessageKey(), ": %s", scanErr.Detail)
		default:
			return s.languages.Text(locale, scanErr.MessageKey())
		}
	case errors.As(err, &langErr):
		return s.languages.Textf(locale, "unknown_language", ": %s", langErr.Name)
	case errors.Is(err, ErrEmptyOrder):
		return s.languages.Text(locale, "empty_order")
	}
	return err.Error()
}

// FormatAmount renders cents with the active currency symbol
func (s *Service) FormatAmount(cents int64) string {
	return s.Text("currency_symbol") + FormatCents(cents)
}
