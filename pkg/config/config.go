package config

import (
	"fmt"
	"sort"
	"time"
)

// Config wraps a map[string]any for type-safe value extraction.
type Config struct {
	data map[string]any
}

// New creates a Config from data. A nil map yields an empty Config.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

// String returns the string at key, or defaultVal.
func (c Config) String(key, defaultVal string) string {
	if s, ok := c.data[key].(string); ok {
		return s
	}
	return defaultVal
}

// Duration returns the duration at key, or defaultVal. Strings are parsed
// with time.ParseDuration; numbers are seconds.
func (c Config) Duration(key string, defaultVal time.Duration) time.Duration {
	switch val := c.data[key].(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case float64:
		return time.Duration(val * float64(time.Second))
	case int:
		return time.Duration(val) * time.Second
	case int64:
		return time.Duration(val) * time.Second
	case time.Duration:
		return val
	}
	return defaultVal
}

// Bool returns the bool at key, or defaultVal.
func (c Config) Bool(key string, defaultVal bool) bool {
	if b, ok := c.data[key].(bool); ok {
		return b
	}
	return defaultVal
}

// Int returns the integer at key, or defaultVal. Floats are accepted when
// they have no fractional part.
func (c Config) Int(key string, defaultVal int) int {
	switch val := c.data[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		if val == float64(int(val)) {
			return int(val)
		}
	}
	return defaultVal
}

// Float returns the number at key as float64, or defaultVal.
func (c Config) Float(key string, defaultVal float64) float64 {
	switch val := c.data[key].(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	}
	return defaultVal
}

// Sub returns the nested mapping at key as a Config. A missing or
// non-mapping value yields an empty Config.
func (c Config) Sub(key string) Config {
	switch val := c.data[key].(type) {
	case map[string]any:
		return New(val)
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, v := range val {
			m[fmt.Sprint(k)] = v
		}
		return New(m)
	}
	return New(nil)
}

// Keys returns the sorted top-level keys.
func (c Config) Keys() []string {
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Any returns the raw value at key, or defaultVal.
func (c Config) Any(key string, defaultVal any) any {
	if v, ok := c.data[key]; ok {
		return v
	}
	return defaultVal
}

// Has reports whether key is present.
func (c Config) Has(key string) bool {
	_, ok := c.data[key]
	return ok
}

// Raw returns the underlying map. It must not be modified.
func (c Config) Raw() map[string]any {
	return c.data
}
