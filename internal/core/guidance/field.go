// Package guidance turns the track's on-track tile mask into a smooth
// grayscale potential field. AI cars sample it to sense how far they are
// from the edge of the track.
package guidance

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/zeusync/tdr/internal/core/systems/physics"
)

const (
	// MiniScale is the nearest-neighbour upscale applied to the tile mask
	// before blurring.
	MiniScale = 8
	// FieldScale is the total upscale from tile cells to field pixels. One
	// field pixel covers one world unit on 128 unit tiles.
	FieldScale = 128
	// BlurSigma is the gaussian blur applied at MiniScale.
	BlurSigma = 8.0

	OnTrack  = 255
	OffTrack = 0
)

// Mask is the track layer view the field is built from.
type Mask interface {
	Size() (w, h int)
	HasTile(x, y int) bool
}

// Field is an immutable grid of 8-bit intensities centred on the world
// origin. Row 0 is the top of the track (world +y).
type Field struct {
	w, h int
	pix  []uint8
}

// NewField wraps raw pixels, row-major from the top row. Mostly useful for
// injecting synthetic fields.
func NewField(w, h int, pix []uint8) (*Field, error) {
	if w <= 0 || h <= 0 || len(pix) != w*h {
		return nil, fmt.Errorf("%w: %dx%d with %d pixels", ErrFieldBounds, w, h, len(pix))
	}
	cp := make([]uint8, len(pix))
	copy(cp, pix)
	return &Field{w: w, h: h, pix: cp}, nil
}

// MaskImage renders the mask as a binary grayscale image, one pixel per
// tile: 255 where a track tile is present.
func MaskImage(m Mask) (*image.Gray, error) {
	w, h := m.Size()
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyMask
	}
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if m.HasTile(x, y) {
				img.Pix[y*img.Stride+x] = OnTrack
			}
		}
	}
	return img, nil
}

// Build derives the guidance field for a track mask. This is an O(W*H)
// image pipeline meant to run once per level load.
func Build(m Mask) (*Field, error) {
	micro, err := MaskImage(m)
	if err != nil {
		return nil, err
	}
	w, h := micro.Rect.Dx(), micro.Rect.Dy()

	mini := imaging.Resize(micro, w*MiniScale, h*MiniScale, imaging.NearestNeighbor)
	mini = imaging.Blur(mini, BlurSigma)
	full := imaging.Resize(mini, w*FieldScale, h*FieldScale, imaging.Gaussian)

	fw, fh := full.Rect.Dx(), full.Rect.Dy()
	f := &Field{w: fw, h: fh, pix: make([]uint8, fw*fh)}
	for y := 0; y < fh; y++ {
		row := full.Pix[y*full.Stride:]
		for x := 0; x < fw; x++ {
			f.pix[y*fw+x] = row[x*4]
		}
	}
	return f, nil
}

// Size returns the field dimensions in pixels.
func (f *Field) Size() (w, h int) { return f.w, f.h }

// At returns the raw pixel at column x, row y, or 0 outside the field.
func (f *Field) At(x, y int) int {
	if x < 0 || y < 0 || x >= f.w || y >= f.h {
		return 0
	}
	return int(f.pix[y*f.w+x])
}

// Query samples the field at a world position. Positions off the field,
// including NaN, read as 0 ("no guidance").
func (f *Field) Query(pos physics.Vec2) int {
	if f == nil {
		return 0
	}
	fw, fh := float64(f.w), float64(f.h)
	px := pos[0] + fw*0.5
	py := pos[1] + fh*0.5
	if !(px >= 0 && px < fw && py >= 0 && py < fh) {
		return 0
	}
	return f.At(int(px), f.h-1-int(py))
}

// Image returns a grayscale copy of the field, for debug dumps.
func (f *Field) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, f.w, f.h))
	copy(img.Pix, f.pix)
	return img
}
