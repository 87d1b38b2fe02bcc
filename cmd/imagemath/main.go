// Command imagemath evaluates an image expression from the command line.
//
// Usage:
//
//	imagemath -e 'convert(min(a, b) * 2, "L")' -b a=left.png -b b=right.png -o out.png
//	imagemath -c job.yaml
//	imagemath -e '(a - 128) / 2' -b a=0.5
//
// Bindings are name=path for PNG, JPEG or GIF files and name=number for
// constants. Values from the flags override those of the -c file. Image
// results are written as PNG to -o; other results are printed on stdout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stdimage "image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sandrolain/imagemath/pkg/config"
	"github.com/sandrolain/imagemath/pkg/evaluator"
	"github.com/sandrolain/imagemath/pkg/image"
	"github.com/sandrolain/imagemath/pkg/observability"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// bindingFlags collects repeated -b name=value flags.
type bindingFlags []config.Binding

func (b *bindingFlags) String() string {
	parts := make([]string, len(*b))
	for i, bind := range *b {
		if bind.IsPath {
			parts[i] = bind.Name + "=" + bind.Path
		} else {
			parts[i] = bind.Name + "=" + strconv.FormatFloat(bind.Number, 'g', -1, 64)
		}
	}
	return strings.Join(parts, ",")
}

func (b *bindingFlags) Set(s string) error {
	bind, err := parseBinding(s)
	if err != nil {
		return err
	}
	*b = append(*b, bind)
	return nil
}

// parseBinding parses name=value. A value that parses as a number is a
// constant; anything else is a file path.
func parseBinding(s string) (config.Binding, error) {
	name, value, ok := strings.Cut(s, "=")
	if !ok || name == "" || value == "" {
		return config.Binding{}, fmt.Errorf("binding %q: want name=path or name=number", s)
	}
	if n, err := strconv.ParseFloat(value, 64); err == nil {
		return config.Binding{Name: name, Number: n}, nil
	}
	return config.Binding{Name: name, Path: value, IsPath: true}, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("imagemath", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		expr     = fs.String("e", "", "expression to evaluate")
		cfgPath  = fs.String("c", "", "YAML or JSON job file")
		output   = fs.String("o", "", "PNG file for image results")
		timeout  = fs.Duration("timeout", 0, "evaluation timeout (default 30s)")
		maxDepth = fs.Int("max-depth", 0, "maximum evaluation depth (default 1000)")
		debug    = fs.Bool("debug", false, "enable debug logging")
		binds    bindingFlags
	)
	fs.Var(&binds, "b", "binding name=path|number (repeatable)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	settings := config.Settings{
		Timeout:  config.DefaultTimeout,
		MaxDepth: config.DefaultMaxDepth,
	}
	if *cfgPath != "" {
		var err error
		if settings, err = config.Load(*cfgPath); err != nil {
			fmt.Fprintf(stderr, "imagemath: %v\n", err)
			return 1
		}
	}
	if *expr != "" {
		settings.Expression = *expr
	}
	if *output != "" {
		settings.Output = *output
	}
	if *timeout > 0 {
		settings.Timeout = *timeout
	}
	if *maxDepth > 0 {
		settings.MaxDepth = *maxDepth
	}
	settings.Debug = settings.Debug || *debug
	settings.Bindings = mergeBindings(settings.Bindings, binds)

	if settings.Expression == "" {
		fmt.Fprintln(stderr, "imagemath: no expression given (use -e or -c)")
		fs.Usage()
		return 2
	}

	if err := evaluate(settings, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "imagemath: %v\n", err)
		return 1
	}
	return 0
}

// mergeBindings returns base with every binding of override replacing the
// one of the same name.
func mergeBindings(base, override []config.Binding) []config.Binding {
	out := make([]config.Binding, 0, len(base)+len(override))
	seen := make(map[string]int, len(base))
	for _, b := range base {
		seen[b.Name] = len(out)
		out = append(out, b)
	}
	for _, b := range override {
		if i, ok := seen[b.Name]; ok {
			out[i] = b
			continue
		}
		seen[b.Name] = len(out)
		out = append(out, b)
	}
	return out
}

func evaluate(s config.Settings, stdout, stderr io.Writer) error {
	level := slog.LevelWarn
	if s.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	bindings, err := loadBindings(s.Bindings)
	if err != nil {
		return err
	}

	ev := evaluator.New(
		evaluator.WithLogger(logger),
		evaluator.WithDebug(s.Debug),
		evaluator.WithTimeout(s.Timeout),
		evaluator.WithMaxDepth(s.MaxDepth),
		evaluator.WithCaching(s.CacheSize > 0),
		evaluator.WithCacheSize(s.CacheSize),
		evaluator.WithMetrics(observability.NewMetricsRecorder()),
		evaluator.WithSpanManager(observability.NewSpanManager()),
	)

	start := time.Now()
	result, err := ev.EvalString(context.Background(), s.Expression, bindings)
	if err != nil {
		return err
	}
	logger.Debug("done", slog.Duration("elapsed", time.Since(start)))

	im, ok := result.(*image.Image)
	if !ok {
		_, err := fmt.Fprintln(stdout, formatScalar(result))
		return err
	}
	if s.Output == "" {
		_, err := fmt.Fprintln(stdout, im.String())
		return err
	}
	return writePNG(s.Output, im)
}

func loadBindings(binds []config.Binding) (map[string]any, error) {
	out := make(map[string]any, len(binds))
	for _, b := range binds {
		if !b.IsPath {
			if math.Trunc(b.Number) == b.Number && math.Abs(b.Number) < 1<<53 {
				out[b.Name] = int64(b.Number)
			} else {
				out[b.Name] = b.Number
			}
			continue
		}
		im, err := readImage(b.Path)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", b.Name, err)
		}
		out[b.Name] = im
	}
	return out, nil
}

func readImage(path string) (*image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := stdimage.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return image.FromStd(src), nil
}

func writePNG(path string, im *image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, im.ToStd()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// formatScalar prints results the way the expression language spells them.
func formatScalar(v any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case float64:
		s := strconv.FormatFloat(x, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEn") {
			s += ".0"
		}
		return s
	case string:
		return x
	}
	return fmt.Sprint(v)
}
