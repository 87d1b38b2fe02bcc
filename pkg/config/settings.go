package config

import (
	"fmt"
	"time"
)

// Defaults applied by Settings when a key is absent.
const (
	DefaultTimeout   = 30 * time.Second
	DefaultMaxDepth  = 1000
	DefaultCacheSize = 256
)

// Binding is one named input: an image file path or a constant.
type Binding struct {
	Name   string
	Path   string
	Number float64
	IsPath bool
}

// Settings are the options understood by the imagemath command.
type Settings struct {
	Expression string
	Output     string
	Bindings   []Binding
	Timeout    time.Duration
	MaxDepth   int
	CacheSize  int
	Debug      bool
}

// Load reads Settings from a YAML or JSON file.
func Load(path string) (Settings, error) {
	cfg, err := FromFile(path)
	if err != nil {
		return Settings{}, err
	}
	return Parse(cfg)
}

// Parse extracts Settings from cfg. Bindings are returned sorted by name.
func Parse(cfg Config) (Settings, error) {
	s := Settings{
		Expression: cfg.String("expression", ""),
		Output:     cfg.String("output", ""),
		Timeout:    cfg.Duration("timeout", DefaultTimeout),
		MaxDepth:   cfg.Int("max_depth", DefaultMaxDepth),
		CacheSize:  cfg.Int("cache_size", DefaultCacheSize),
		Debug:      cfg.Bool("debug", false),
	}

	b := cfg.Sub("bindings")
	for _, name := range b.Keys() {
		switch v := b.Any(name, nil).(type) {
		case string:
			s.Bindings = append(s.Bindings, Binding{Name: name, Path: v, IsPath: true})
		case int, int64, float64:
			s.Bindings = append(s.Bindings, Binding{Name: name, Number: b.Float(name, 0)})
		default:
			return Settings{}, fmt.Errorf("binding %q: want a file path or a number, got %T", name, v)
		}
	}
	return s, nil
}
