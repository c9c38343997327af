package i18n

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// NameKey holds a language's display name inside its own table.
const NameKey = "language_name"

// DefaultLocale is used when no locale is configured.
const DefaultLocale = "zh_CN"

//go:embed languages.json
var defaultLanguages []byte

// Table maps locale -> key -> display text. It is read-only after
// construction and safe for concurrent use.
type Table struct {
	languages map[string]map[string]string
}

// New creates a Table from an in-memory map.
func New(languages map[string]map[string]string) *Table {
	copied := make(map[string]map[string]string, len(languages))
	for locale, texts := range languages {
		inner := make(map[string]string, len(texts))
		for k, v := range texts {
			inner[k] = v
		}
		copied[locale] = inner
	}
	return &Table{languages: copied}
}

// Default returns the embedded table.
func Default() *Table {
	t, err := Parse(defaultLanguages, "json")
	if err != nil {
		panic(err)
	}
	return t
}

// Load reads a language file. The format is chosen by extension: .json or .toml.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading language file: %w", err)
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return Parse(data, format)
}

// Parse decodes language data in the given format ("json" or "toml").
func Parse(data []byte, format string) (*Table, error) {
	languages := make(map[string]map[string]string)
	switch format {
	case "json":
		if err := json.Unmarshal(data, &languages); err != nil {
			return nil, fmt.Errorf("unmarshaling json: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &languages); err != nil {
			return nil, fmt.Errorf("unmarshaling toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported language file format: %q", format)
	}
	if len(languages) == 0 {
		return nil, fmt.Errorf("language file defines no locales")
	}
	return &Table{languages: languages}, nil
}

// Text returns the text for key in locale, or key itself when missing.
func (t *Table) Text(locale, key string) string {
	if text, ok := t.languages[locale][key]; ok {
		return text
	}
	return key
}

// Textf renders the text for key and appends detail, e.g. "Product not found (1001)".
func (t *Table) Textf(locale, key, format string, args ...any) string {
	return t.Text(locale, key) + fmt.Sprintf(format, args...)
}

// Texts returns a copy of every text defined for locale.
func (t *Table) Texts(locale string) map[string]string {
	texts := make(map[string]string, len(t.languages[locale]))
	for k, v := range t.languages[locale] {
		texts[k] = v
	}
	return texts
}

// Has reports whether locale is defined.
func (t *Table) Has(locale string) bool {
	_, ok := t.languages[locale]
	return ok
}

// Name returns the display name of locale.
func (t *Table) Name(locale string) string {
	if name, ok := t.languages[locale][NameKey]; ok {
		return name
	}
	return "Unknown"
}

// Locales returns all locale codes, sorted.
func (t *Table) Locales() []string {
	locales := make([]string, 0, len(t.languages))
	for locale := range t.languages {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	return locales
}

// Names returns the display names of all locales in Locales order.
func (t *Table) Names() []string {
	locales := t.Locales()
	names := make([]string, 0, len(locales))
	for _, locale := range locales {
		names = append(names, t.Name(locale))
	}
	return names
}

// LocaleByName finds the locale whose display name is name. A locale code
// is accepted as well.
func (t *Table) LocaleByName(name string) (string, bool) {
	for _, locale := range t.Locales() {
		if t.languages[locale][NameKey] == name {
			return locale, true
		}
	}
	if t.Has(name) {
		return name, true
	}
	return "", false
}
