package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
)

// cropRegion is a pixel-space rectangle taken from a crop hint.
type cropRegion struct {
	x0, y0, x1, y1 int
}

// dominantCrop extracts the first crop hint's bounding box. The Vision API
// omits zero-valued vertex coordinates, so missing fields decode as 0.
func dominantCrop(hints *cropHints) (cropRegion, bool) {
	if hints == nil || len(hints.CropHints) == 0 {
		return cropRegion{}, false
	}
	vertices := hints.CropHints[0].BoundingPoly.Vertices
	if len(vertices) < 3 {
		return cropRegion{}, false
	}
	region := cropRegion{x0: vertices[0].X, y0: vertices[0].Y, x1: vertices[0].X, y1: vertices[0].Y}
	for _, v := range vertices[1:] {
		if v.X < region.x0 {
			region.x0 = v.X
		}
		if v.X > region.x1 {
			region.x1 = v.X
		}
		if v.Y < region.y0 {
			region.y0 = v.Y
		}
		if v.Y > region.y1 {
			region.y1 = v.Y
		}
	}
	if region.x1 <= region.x0 || region.y1 <= region.y0 {
		return cropRegion{}, false
	}
	return region, true
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// cropImage decodes the source, cuts out the region, and re-encodes as JPEG.
func cropImage(data []byte, region cropRegion) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	rect := image.Rect(region.x0, region.y0, region.x1, region.y1).Intersect(src.Bounds())
	if rect.Empty() {
		return nil, errors.New("crop region outside image bounds")
	}
	// Skip near-full-frame crops: a second label pass would repeat the first.
	if rect.Dx()*rect.Dy()*10 >= src.Bounds().Dx()*src.Bounds().Dy()*9 {
		return nil, errors.New("crop region covers the full frame")
	}
	cropper, ok := src.(subImager)
	if !ok {
		return nil, errors.New("image format does not support cropping")
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, cropper.SubImage(rect), &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode crop: %w", err)
	}
	return buf.Bytes(), nil
}
