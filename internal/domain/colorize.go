package domain

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"
)

// OverlayAlpha is the alpha given to visible overlay pixels.
const OverlayAlpha uint8 = 180

// rampEpsilon keeps zero-width ramp intervals from dividing by zero.
const rampEpsilon = 1e-12

// ColorStop anchors a color at a position in [0, 1].
type ColorStop struct {
	Stop  float64
	Color RGB
}

// ColorRamp is a piecewise-linear color map over strictly increasing stops.
type ColorRamp []ColorStop

// DefaultRamp runs from regrowth green through unburned yellow to high
// severity red over the normalized dNBR range.
var DefaultRamp = ColorRamp{
	{Stop: 0.0, Color: RGB{26, 152, 80}},
	{Stop: 0.2, Color: RGB{102, 189, 99}},
	{Stop: 0.35, Color: RGB{255, 255, 190}},
	{Stop: 0.55, Color: RGB{253, 174, 97}},
	{Stop: 0.8, Color: RGB{244, 109, 67}},
	{Stop: 1.0, Color: RGB{215, 48, 39}},
}

// Validate checks that the ramp has at least two strictly increasing stops.
func (r ColorRamp) Validate() error {
	if len(r) < 2 {
		return errors.New("color ramp needs at least two stops")
	}
	for i := 1; i < len(r); i++ {
		if !(r[i].Stop > r[i-1].Stop) {
			return fmt.Errorf("color ramp stop %d (%.3f) does not increase over %.3f", i, r[i].Stop, r[i-1].Stop)
		}
	}
	return nil
}

// At returns the interpolated color at v. Values outside the stop range use
// the first or last interval, clamped to 8-bit channels.
func (r ColorRamp) At(v float64) RGB {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	// Index of the first stop strictly above v, kept inside the interior
	// intervals so both neighbours always exist.
	i := sort.Search(len(r), func(i int) bool { return r[i].Stop > v })
	i = max(1, min(i, len(r)-1))

	lo, hi := r[i-1], r[i]
	w := (v - lo.Stop) / (hi.Stop - lo.Stop + rampEpsilon)
	return RGB{
		R: lerpChannel(lo.Color.R, hi.Color.R, w),
		G: lerpChannel(lo.Color.G, hi.Color.G, w),
		B: lerpChannel(lo.Color.B, hi.Color.B, w),
	}
}

func lerpChannel(a, b uint8, w float64) uint8 {
	v := float64(a) + (float64(b)-float64(a))*w
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

// Normalize clips r to [lo, hi] and rescales it to [0, 1]. Non-finite results
// become 0 so invalid pixels never reach the image.
func Normalize(r Raster, lo, hi float64) Raster {
	out := r.derive()
	span := hi - lo
	for i, v := range r.data {
		n := (math.Max(lo, math.Min(hi, v)) - lo) / span
		if math.IsNaN(n) || math.IsInf(n, 0) {
			n = 0
		}
		out.data[i] = n
	}
	return out
}

// Colorize maps normalized values through ramp into an RGBA image. The alpha
// channel is OverlayAlpha where the corresponding source (pre-normalization)
// value is strictly positive and 0 otherwise, so unburned and regrowth pixels
// vanish from the overlay.
func Colorize(normalized, source Raster, ramp ColorRamp) (*image.NRGBA, error) {
	if err := ramp.Validate(); err != nil {
		return nil, err
	}
	if normalized.shape != source.shape {
		return nil, shapeMismatch(normalized.shape, source.shape)
	}

	img := image.NewNRGBA(image.Rect(0, 0, normalized.shape.Cols, normalized.shape.Rows))
	for i, v := range normalized.data {
		c := ramp.At(v)
		px := img.Pix[i*4 : i*4+4 : i*4+4]
		px[0], px[1], px[2] = c.R, c.G, c.B
		if source.data[i] > 0 {
			px[3] = OverlayAlpha
		}
	}
	return img, nil
}

// RenderOverlay normalizes r over [-1, 1] and colorizes it with ramp.
func RenderOverlay(r Raster, ramp ColorRamp) (*image.NRGBA, error) {
	return Colorize(Normalize(r, -1, 1), r, ramp)
}

// ColorizeClasses paints each pixel with its severity band color. NoClass
// pixels are transparent.
func ColorizeClasses(c ClassRaster, bands BandTable) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, c.shape.Cols, c.shape.Rows))
	for i, class := range c.data {
		if int(class) >= len(bands) {
			continue
		}
		col := bands[class].Color
		px := img.Pix[i*4 : i*4+4 : i*4+4]
		px[0], px[1], px[2], px[3] = col.R, col.G, col.B, OverlayAlpha
	}
	return img
}
