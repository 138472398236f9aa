// Package catalog loads the locale-keyed quiz configuration file once at
// startup and serves read-only views of it.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"quizmatch/internal/domain/entity"
	"sort"

	"github.com/goccy/go-json"
)

// Catalog is immutable after Load and safe for concurrent reads.
type Catalog struct {
	locales       map[string]*entity.QuizLocaleConfig
	defaultLocale string
}

// Load reads dir/file. An empty file name falls back to example.json.
func Load(dir, file, defaultLocale string) (*Catalog, error) {
	if file == "" {
		file = "example.json"
	}
	data, err := os.ReadFile(filepath.Join(dir, filepath.Base(file)))
	if err != nil {
		return nil, fmt.Errorf("read quiz config: %w", err)
	}
	return Parse(data, defaultLocale)
}

func Parse(data []byte, defaultLocale string) (*Catalog, error) {
	var locales map[string]*entity.QuizLocaleConfig
	if err := json.Unmarshal(data, &locales); err != nil {
		return nil, fmt.Errorf("decode quiz config: %w", err)
	}
	if len(locales) == 0 {
		return nil, errors.New("quiz config defines no locales")
	}
	for locale, cfg := range locales {
		if cfg == nil {
			return nil, fmt.Errorf("locale %q: empty configuration", locale)
		}
		if err := check(cfg); err != nil {
			return nil, fmt.Errorf("locale %q: %w", locale, err)
		}
	}

	c := &Catalog{locales: locales}
	c.defaultLocale = c.pickDefault(defaultLocale)
	return c, nil
}

// pickDefault prefers the configured locale, then "en", then the first locale by name.
func (c *Catalog) pickDefault(preferred string) string {
	if _, ok := c.locales[preferred]; ok {
		return preferred
	}
	if _, ok := c.locales["en"]; ok {
		return "en"
	}
	return c.Locales()[0]
}

func check(cfg *entity.QuizLocaleConfig) error {
	seen := make(map[string]struct{}, len(cfg.Questions))
	for _, q := range cfg.Questions {
		if q.ID == "" {
			return errors.New("question without id")
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("duplicate question id %q", q.ID)
		}
		seen[q.ID] = struct{}{}
		if len(q.Options) == 0 {
			return fmt.Errorf("question %q has no options", q.ID)
		}
	}

	if cfg.Products == nil {
		return errors.New("products must be an array")
	}
	products := make(map[string]struct{}, len(cfg.Products))
	for _, p := range cfg.Products {
		if p.ID == "" {
			return errors.New("product without id")
		}
		if _, dup := products[p.ID]; dup {
			return fmt.Errorf("duplicate product id %q", p.ID)
		}
		products[p.ID] = struct{}{}
	}
	return nil
}

// Locales returns every configured locale, sorted.
func (c *Catalog) Locales() []string {
	out := make([]string, 0, len(c.locales))
	for l := range c.locales {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) DefaultLocale() string {
	return c.defaultLocale
}

// Locale returns the configuration for locale, falling back to the default
// locale when it is unknown. The resolved locale is returned alongside.
func (c *Catalog) Locale(locale string) (*entity.QuizLocaleConfig, string) {
	if cfg, ok := c.locales[locale]; ok {
		return cfg, locale
	}
	return c.locales[c.defaultLocale], c.defaultLocale
}
