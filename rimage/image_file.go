package rimage

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	// register ppm/pgm decoding with image.Decode.
	_ "github.com/lmittmann/ppm"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
	"golang.org/x/image/draw"
)

// ReadImageFromFile decodes a png or ppm file.
func ReadImageFromFile(path string) (image.Image, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(f.Close)

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot decode %q", path)
	}
	return img, nil
}

// ReadGrayFromFile decodes an image file and converts it to gray.
func ReadGrayFromFile(path string) (*image.Gray, error) {
	img, err := ReadImageFromFile(path)
	if err != nil {
		return nil, err
	}
	return MakeGray(img), nil
}

// WriteImageToFile writes the image as png. Only the .png extension is supported.
func WriteImageToFile(path string, img image.Image) (err error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".png" {
		return errors.Errorf("unsupported image extension %q", ext)
	}
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return png.Encode(f, img)
}

// Upscale resizes a grid resolution image to width x height with nearest neighbor sampling so
// that every depth cell keeps a single value.
func Upscale(img *image.Gray, width, height int) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, width, height))
	draw.NearestNeighbor.Scale(out, out.Bounds(), img, img.Bounds(), draw.Src, nil)
	return out
}
