package main

import (
	"bytes"
	stdimage "image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/imagemath/pkg/config"
)

func writeGray(t *testing.T, dir, name string, pix ...uint8) string {
	t.Helper()
	im := stdimage.NewGray(stdimage.Rect(0, 0, len(pix), 1))
	copy(im.Pix, pix)
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, im))
	require.NoError(t, f.Close())
	return path
}

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Scalar(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"-e", "1 + 2"}, "3\n"},
		{[]string{"-e", "7 / 2"}, "3.5\n"},
		{[]string{"-e", "float(k)", "-b", "k=2"}, "2.0\n"},
		{[]string{"-e", "k * 2", "-b", "k=0.25"}, "0.5\n"},
		{[]string{"-e", "1 < 2"}, "True\n"},
		{[]string{"-e", "None"}, "None\n"},
	}
	for _, tt := range tests {
		code, out, errOut := runCLI(tt.args...)
		assert.Equal(t, 0, code, errOut)
		assert.Equal(t, tt.want, out)
	}
}

func TestRun_ImageToPNG(t *testing.T) {
	dir := t.TempDir()
	a := writeGray(t, dir, "a.png", 10, 200, 30)
	b := writeGray(t, dir, "b.png", 20, 100, 30)
	out := filepath.Join(dir, "out.png")

	code, _, errOut := runCLI("-e", "min(a, b) * 2", "-b", "a="+a, "-b", "b="+b, "-o", out)
	require.Equal(t, 0, code, errOut)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	gray, ok := img.(*stdimage.Gray)
	require.True(t, ok)
	assert.Equal(t, []uint8{20, 200, 60}, gray.Pix)
}

func TestRun_ImageWithoutOutput(t *testing.T) {
	a := writeGray(t, t.TempDir(), "a.png", 1, 2)
	code, out, _ := runCLI("-e", "a + 1", "-b", "a="+a)
	assert.Equal(t, 0, code)
	assert.Equal(t, "<image mode=I size=2x1>\n", out)
}

func TestRun_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	a := writeGray(t, dir, "a.png", 4)
	cfg := filepath.Join(dir, "job.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("expression: a * k\nbindings:\n  a: "+a+"\n  k: 3\ncache_size: 8\n"), 0o600))

	code, out, errOut := runCLI("-c", cfg)
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "<image mode=I size=1x1>\n", out)

	// Flags override the file.
	code, out, errOut = runCLI("-c", cfg, "-e", "k + 1", "-b", "k=9")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "10\n", out)
}

func TestRun_Errors(t *testing.T) {
	code, _, errOut := runCLI()
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "no expression")

	code, _, errOut = runCLI("-e", "os.system")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "S0204")

	code, _, errOut = runCLI("-e", "x + 1")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "'x' not allowed")

	code, _, errOut = runCLI("-e", "a", "-b", "a="+filepath.Join(t.TempDir(), "missing.png"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, `binding "a"`)

	code, _, _ = runCLI("-b", "novalue")
	assert.Equal(t, 2, code)
}

func TestParseBinding(t *testing.T) {
	b, err := parseBinding("k=1.5")
	require.NoError(t, err)
	assert.Equal(t, config.Binding{Name: "k", Number: 1.5}, b)

	b, err = parseBinding("img=./a=b.png")
	require.NoError(t, err)
	assert.Equal(t, config.Binding{Name: "img", Path: "./a=b.png", IsPath: true}, b)

	_, err = parseBinding("=3")
	assert.Error(t, err)
}

func TestMergeBindings(t *testing.T) {
	got := mergeBindings(
		[]config.Binding{{Name: "a", Number: 1}, {Name: "b", Number: 2}},
		[]config.Binding{{Name: "b", Number: 3}, {Name: "c", Number: 4}},
	)
	assert.Equal(t, []config.Binding{{Name: "a", Number: 1}, {Name: "b", Number: 3}, {Name: "c", Number: 4}}, got)
}
