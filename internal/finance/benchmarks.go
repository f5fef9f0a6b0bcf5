package finance

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultBenchmark is the benchmark used when a request names none.
const DefaultBenchmark = "IBOV"

// Benchmark is a reference index: Name is its column name, Symbol the provider symbol.
type Benchmark struct {
	Name    string `yaml:"name" json:"name"`
	Symbol  string `yaml:"symbol" json:"symbol"`
	Display string `yaml:"display" json:"display"`
}

// BenchmarkCatalog is the set of benchmarks a request may choose from.
type BenchmarkCatalog struct {
	defaultName string
	byName      map[string]Benchmark
}

type benchmarkFile struct {
	Default    string      `yaml:"default"`
	Benchmarks []Benchmark `yaml:"benchmarks"`
}

// DefaultBenchmarks returns the built-in catalogue.
func DefaultBenchmarks() *BenchmarkCatalog {
	c := &BenchmarkCatalog{defaultName: DefaultBenchmark, byName: map[string]Benchmark{}}
	c.add(Benchmark{Name: "IBOV", Symbol: "^BVSP", Display: "Ibovespa"})
	return c
}

// LoadBenchmarks reads a YAML catalogue and merges it over the built-in one.
func LoadBenchmarks(path string) (*BenchmarkCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read benchmarks file '%s': %w", path, err)
	}
	var f benchmarkFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse benchmarks from YAML: %w", err)
	}

	c := DefaultBenchmarks()
	for i, b := range f.Benchmarks {
		if strings.TrimSpace(b.Name) == "" || strings.TrimSpace(b.Symbol) == "" {
			return nil, fmt.Errorf("benchmark %d must have a name and a symbol", i)
		}
		if strings.EqualFold(b.Name, PortfolioColumn) {
			return nil, fmt.Errorf("benchmark name %q is reserved", b.Name)
		}
		c.add(b)
	}
	if f.Default != "" {
		if _, ok := c.byName[strings.ToUpper(f.Default)]; !ok {
			return nil, fmt.Errorf("default benchmark %q is not in the catalogue", f.Default)
		}
		c.defaultName = strings.ToUpper(f.Default)
	}
	return c, nil
}

func (c *BenchmarkCatalog) add(b Benchmark) {
	b.Name = strings.ToUpper(strings.TrimSpace(b.Name))
	b.Symbol = strings.TrimSpace(b.Symbol)
	if b.Display == "" {
		b.Display = b.Name
	}
	c.byName[b.Name] = b
}

// Default returns the name of the default benchmark.
func (c *BenchmarkCatalog) Default() string { return c.defaultName }

// Resolve looks a benchmark up by name; an empty name selects the default.
func (c *BenchmarkCatalog) Resolve(name string) (Benchmark, error) {
	key := strings.ToUpper(strings.TrimSpace(name))
	if key == "" {
		key = c.defaultName
	}
	b, ok := c.byName[key]
	if !ok {
		return Benchmark{}, fmt.Errorf("unknown benchmark %q", name)
	}
	return b, nil
}

// All returns the catalogue sorted by name.
func (c *BenchmarkCatalog) All() []Benchmark {
	out := make([]Benchmark, 0, len(c.byName))
	for _, b := range c.byName {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
