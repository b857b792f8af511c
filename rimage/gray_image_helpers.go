// Package rimage holds image and depth map types of the stereo pipeline: gray image helpers and
// file I/O, the grid that relates image pixels to depth cells, and the multi-hypothesis DepthMap.
package rimage

import (
	"image"
	"image/draw"

	"github.com/pkg/errors"
)

// SameImgSize compares image.Grays to see if they're the same size.
func SameImgSize(g1, g2 image.Image) bool {
	return g1.Bounds().Dx() == g2.Bounds().Dx() && g1.Bounds().Dy() == g2.Bounds().Dy()
}

// MakeGray converts any image to an *image.Gray with its origin at (0, 0). Gray images already
// at the origin are returned unchanged.
func MakeGray(pic image.Image) *image.Gray {
	if gray, ok := pic.(*image.Gray); ok && gray.Rect.Min == (image.Point{}) {
		return gray
	}
	result := image.NewGray(image.Rect(0, 0, pic.Bounds().Dx(), pic.Bounds().Dy()))
	draw.Draw(result, result.Bounds(), pic, pic.Bounds().Min, draw.Src)
	return result
}

// CheckGrayPair verifies that both images have the expected size.
func CheckGrayPair(img1, img2 *image.Gray, width, height int) error {
	if img1 == nil || img2 == nil {
		return errors.New("input image is nil")
	}
	for _, img := range []*image.Gray{img1, img2} {
		if img.Rect.Dx() != width || img.Rect.Dy() != height {
			return errors.Errorf("img dimension and camera don't match Image(%d,%d) != Camera(%d,%d)",
				img.Rect.Dx(), img.Rect.Dy(), width, height)
		}
	}
	return nil
}

// GrayAt returns the intensity at (u, v) of an image whose origin is (0, 0). The caller checks
// bounds.
func GrayAt(img *image.Gray, u, v int) uint8 {
	return img.Pix[v*img.Stride+u]
}

// NearestGray returns the intensity of the pixel nearest to (u, v) and whether it lies in the image.
func NearestGray(img *image.Gray, u, v float64) (uint8, bool) {
	if u < -0.5 || v < -0.5 {
		return 0, false
	}
	x := int(u + 0.5)
	y := int(v + 0.5)
	if x >= img.Rect.Dx() || y >= img.Rect.Dy() {
		return 0, false
	}
	return GrayAt(img, x, y), true
}
