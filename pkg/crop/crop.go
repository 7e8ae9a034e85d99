// Package crop cuts rectangular regions out of scanned page images and
// writes them as JPEG files named after the page, the search target and
// the crop coordinates.
package crop

import (
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"io"
	"path"
	"strings"
)

// DefaultQuality is the JPEG quality used for crops.
const DefaultQuality = 80

// Crop returns the part of img covered by r, clamped to the image
// bounds. Source formats exposing SubImage share pixels with the
// original; others are copied.
func Crop(img image.Image, r image.Rectangle) image.Image {
	r = r.Intersect(img.Bounds())
	type subImager interface {
		SubImage(image.Rectangle) image.Image
	}
	if s, ok := img.(subImager); ok {
		return s.SubImage(r)
	}
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), img, r.Min, draw.Src)
	return out
}

// EncodeJPEG writes img to w as a JPEG at the given quality. Quality 0
// means DefaultQuality.
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	if quality == 0 {
		quality = DefaultQuality
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}

// Filename builds the crop's output name from the page image name, the
// optional search target, the matched keyword and the crop rectangle:
// crop_<page>_<target>_<keyword>_<x0>_<y0>_<x1>_<y1>.jpg
func Filename(pageName, target, keyword string, r image.Rectangle) string {
	stem := strings.TrimSuffix(path.Base(pageName), path.Ext(pageName))
	parts := []string{"crop", stem}
	if target != "" {
		parts = append(parts, target)
	}
	parts = append(parts, keyword,
		fmt.Sprintf("%d_%d_%d_%d", r.Min.X, r.Min.Y, r.Max.X, r.Max.Y))
	return strings.Join(parts, "_") + ".jpg"
}
