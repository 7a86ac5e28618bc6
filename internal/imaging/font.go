package imaging

import (
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

var labelFont *truetype.Font

func init() {
	var err error
	labelFont, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// FontFace returns the label face at the given size in pixels.
func FontFace(size float64) font.Face {
	return truetype.NewFace(labelFont, &truetype.Options{Size: size})
}
