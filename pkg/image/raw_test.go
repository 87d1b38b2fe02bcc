package image_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandrolain/imagemath/pkg/image"
	"github.com/sandrolain/imagemath/pkg/types"
)

func TestFromRaw(t *testing.T) {
	var r image.Raw
	require.NoError(t, json.Unmarshal([]byte(`{"mode":"I","width":2,"height":1,"pixels":[-3.7, 12]}`), &r))

	im, err := image.FromRaw(r)
	require.NoError(t, err)
	assert.Equal(t, []int32{-3, 12}, im.Ints())

	back := im.Raw()
	assert.Equal(t, image.Raw{Mode: image.ModeI, Width: 2, Height: 1, Pixels: []float64{-3, 12}}, back)

	rgb, err := image.FromRaw(image.Raw{Mode: image.ModeRGB, Width: 1, Height: 1, Pixels: []float64{1, 300, -1}})
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 255, 0}, rgb.Bytes())
}

func TestFromRaw_Errors(t *testing.T) {
	_, err := image.FromRaw(image.Raw{Mode: "P", Width: 1, Height: 1, Pixels: []float64{0}})
	assert.Equal(t, types.ErrUnsupportedMode, types.CodeOf(err))

	_, err = image.FromRaw(image.Raw{Mode: image.ModeL, Width: 2, Height: 2, Pixels: []float64{0}})
	assert.Error(t, err)

	// The sample count is checked before anything is allocated.
	_, err = image.FromRaw(image.Raw{Mode: image.ModeI, Width: 1e9, Height: 1e9})
	assert.ErrorContains(t, err, "needs 1000000000000000000 samples")

	_, err = image.FromRaw(image.Raw{Mode: image.ModeI, Width: 1 << 32, Height: 1 << 32})
	assert.ErrorContains(t, err, "too large")
}
