// Package catalog содержит наборы категорий и пунктов для каждого варианта теста.
package catalog

import (
	"bytes"
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/yourusername/selftest-api/internal/domain/entity"
	apperrors "github.com/yourusername/selftest-api/internal/pkg/errors"
)

//go:embed data/*.yaml
var files embed.FS

// Category - категория теста с упорядоченным списком пунктов
type Category struct {
	Name  string   `mapstructure:"name" json:"name"`
	Items []string `mapstructure:"items" json:"items"`
}

// Catalog - полный набор категорий одного варианта теста
type Catalog struct {
	TestType   entity.TestType `mapstructure:"test_type" json:"test_type"`
	Title      string          `mapstructure:"title" json:"title"`
	Categories []Category      `mapstructure:"categories" json:"categories"`

	items map[string]map[string]struct{}
}

var (
	loadOnce sync.Once
	loaded   map[entity.TestType]*Catalog
	loadErr  error
)

// Load разбирает все встроенные каталоги. Повторные вызовы возвращают тот же результат.
func Load() (map[entity.TestType]*Catalog, error) {
	loadOnce.Do(func() {
		loaded, loadErr = loadAll()
	})
	return loaded, loadErr
}

func loadAll() (map[entity.TestType]*Catalog, error) {
	result := make(map[entity.TestType]*Catalog, len(entity.TestTypes))
	for _, tt := range entity.TestTypes {
		data, err := files.ReadFile("data/" + string(tt) + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", tt, err)
		}
		c, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", tt, err)
		}
		if c.TestType != tt {
			return nil, fmt.Errorf("catalog %s: file declares test_type %q", tt, c.TestType)
		}
		result[tt] = c
	}
	return result, nil
}

// Parse читает каталог из YAML и проверяет его целостность
func Parse(data []byte) (*Catalog, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("read yaml: %w", err)
	}

	var c Catalog
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) index() error {
	if !c.TestType.IsValid() {
		return fmt.Errorf("unknown test_type %q", c.TestType)
	}
	if len(c.Categories) == 0 {
		return fmt.Errorf("catalog %s has no categories", c.TestType)
	}
	c.items = make(map[string]map[string]struct{}, len(c.Categories))
	// ключ "категория-пункт" -> категория, в которой он уже встречался
	keys := make(map[string]string)
	for _, cat := range c.Categories {
		if strings.TrimSpace(cat.Name) == "" {
			return fmt.Errorf("catalog %s: empty category name", c.TestType)
		}
		if _, dup := c.items[cat.Name]; dup {
			return fmt.Errorf("catalog %s: duplicate category %q", c.TestType, cat.Name)
		}
		if len(cat.Items) == 0 {
			return fmt.Errorf("catalog %s: category %q has no items", c.TestType, cat.Name)
		}
		set := make(map[string]struct{}, len(cat.Items))
		for _, item := range cat.Items {
			if _, dup := set[item]; dup {
				return fmt.Errorf("catalog %s: duplicate item %q in %q", c.TestType, item, cat.Name)
			}
			set[item] = struct{}{}

			key := entity.RatingKey(cat.Name, item)
			if other, dup := keys[key]; dup {
				return fmt.Errorf("catalog %s: key %q is produced by both %q and %q", c.TestType, key, other, cat.Name)
			}
			keys[key] = cat.Name
		}
		c.items[cat.Name] = set
	}
	return nil
}

// Get возвращает каталог варианта теста
func Get(testType entity.TestType) (*Catalog, error) {
	if !testType.IsValid() {
		return nil, fmt.Errorf("%w: unknown test type %q", apperrors.ErrValidation, testType)
	}
	all, err := Load()
	if err != nil {
		return nil, err
	}
	c, ok := all[testType]
	if !ok {
		return nil, fmt.Errorf("%w: catalog %q", apperrors.ErrNotFound, testType)
	}
	return c, nil
}

// HasItem проверяет наличие пункта в категории
func (c *Catalog) HasItem(category, item string) bool {
	set, ok := c.items[category]
	if !ok {
		return false
	}
	_, ok = set[item]
	return ok
}

// ItemCount возвращает число пунктов категории (0 для неизвестной)
func (c *Catalog) ItemCount(category string) int {
	return len(c.items[category])
}

// TotalItems возвращает общее число пунктов каталога
func (c *Catalog) TotalItems() int {
	total := 0
	for _, set := range c.items {
		total += len(set)
	}
	return total
}

// ResolveKey разбирает ключ "категория-пункт". Название категории берется по самому
// длинному совпадающему префиксу, поэтому дефисы допустимы и в категориях, и в пунктах.
func (c *Catalog) ResolveKey(key string) (category, item string, ok bool) {
	names := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		names = append(names, cat.Name)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	for _, name := range names {
		prefix := name + "-"
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := key[len(prefix):]
		if c.HasItem(name, rest) {
			return name, rest, true
		}
	}
	return "", "", false
}

// ValidateRatings проверяет, что каждый ключ карты оценок есть в каталоге
func (c *Catalog) ValidateRatings(ratings entity.Ratings) error {
	for key := range ratings {
		if _, _, ok := c.ResolveKey(key); !ok {
			return fmt.Errorf("%w: unknown item %q for %s", apperrors.ErrValidation, key, c.TestType)
		}
	}
	return nil
}
