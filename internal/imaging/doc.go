// Package imaging provides the image operations behind the tile solver: loading
// and caching captures, cropping tiles, drawing the tile grid, comparing tiles
// between captures, composing overlays and the class colour palette.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with the origin at the top-left corner,
// X increasing rightward and Y increasing downward. Regions are given as
// geometry.Rect with (X1,Y1) inclusive and (X2,Y2) exclusive. Fractional
// regions are rounded outwards when cropping.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The other functions are stateless
// and never modify their input images.
//
// # Colours
//
// Palette entries are "#RRGGBB" strings. Overlay colours accept "#RRGGBBAA"
// as well. Colour arithmetic goes through go-colorful.
package imaging
