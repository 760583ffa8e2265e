package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"animal-watch-bot/internal/domain/derror"
	"animal-watch-bot/internal/domain/entity"
	"animal-watch-bot/internal/domain/port"
)

//go:embed animals.yaml
var defaultAnimals []byte

type file struct {
	Animals []entity.Animal `yaml:"animals"`
}

// Catalog хранит неизменяемый справочник животных.
type Catalog struct {
	animals []entity.Animal
	byKey   map[string]int
}

// Default возвращает встроенный каталог.
func Default() (*Catalog, error) {
	return Parse(defaultAnimals)
}

// Load читает каталог из YAML-файла. Для пустого пути берётся встроенный каталог.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse разбирает и проверяет YAML-каталог.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(f.Animals) == 0 {
		return nil, errors.New("catalog is empty")
	}

	c := &Catalog{byKey: make(map[string]int, len(f.Animals))}
	for i, a := range f.Animals {
		a.Key = strings.TrimSpace(a.Key)
		switch {
		case a.Key == "":
			return nil, fmt.Errorf("catalog entry %d: key is required", i)
		case a.Label == "":
			return nil, fmt.Errorf("catalog entry %q: label is required", a.Key)
		case a.Source == "":
			return nil, fmt.Errorf("catalog entry %q: source is required", a.Key)
		case strings.ContainsRune(a.Key, ':'):
			return nil, fmt.Errorf("catalog entry %q: key must not contain ':'", a.Key)
		}
		if _, dup := c.byKey[a.Key]; dup {
			return nil, fmt.Errorf("catalog entry %q: duplicate key", a.Key)
		}
		c.byKey[a.Key] = len(c.animals)
		c.animals = append(c.animals, a)
	}
	return c, nil
}

// Get возвращает животное по ключу
func (c *Catalog) Get(key string) (entity.Animal, error) {
	i, ok := c.byKey[key]
	if !ok {
		return entity.Animal{}, fmt.Errorf("%w: %q", derror.ErrUnknownAnimal, key)
	}
	return c.animals[i], nil
}

// All возвращает копию списка животных
func (c *Catalog) All() []entity.Animal {
	out := make([]entity.Animal, len(c.animals))
	copy(out, c.animals)
	return out
}

// Keys возвращает ключи в порядке каталога.
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.animals))
	for i, a := range c.animals {
		keys[i] = a.Key
	}
	return keys
}

// Проверка реализации интерфейса
var _ port.AnimalCatalog = (*Catalog)(nil)
