/*
Package config loads evaluation settings from YAML or JSON.

A Config wraps a map[string]any and exposes typed accessors that fall
back to a default when a key is missing or holds the wrong type:

	cfg, err := config.FromFile("job.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	timeout := cfg.Duration("timeout", 30*time.Second)

Settings collects the keys the imagemath command understands:

	expression: "min(a, b) * 2"
	output: out.png
	timeout: 5s
	max_depth: 200
	cache_size: 64
	debug: false
	bindings:
	  a: testdata/a.png
	  b: testdata/b.png
	  k: 3

A binding whose value is a number is passed to the expression as a
constant; a string names an image file.
*/
package config
