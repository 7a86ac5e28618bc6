package imaging

import (
	"image"

	"github.com/anthonynsimon/bild/blend"
	"github.com/disintegration/imaging"
)

// Compose lays a transparent overlay over base. An overlay of a different
// size is stretched to base's size first, the way a canvas is stretched over
// the image it annotates.
func Compose(base, overlay image.Image) *image.RGBA {
	bw, bh := base.Bounds().Dx(), base.Bounds().Dy()
	if overlay.Bounds().Dx() != bw || overlay.Bounds().Dy() != bh {
		overlay = imaging.Resize(overlay, bw, bh, imaging.Linear)
	}
	return blend.Normal(imaging.Clone(base), overlay)
}
