package rimage

import (
	"image"
	"image/color"

	"github.com/golang/geo/r2"

	"go.viam.com/curvedstereo/pointcloud"
)

func pointAt(params ScaleParameters, x, y int) r2.Point {
	return r2.Point{X: float64(params.U(x)), Y: float64(params.V(y))}
}

// ToPointCloud reconstructs every hypothesis holding an estimate into a cloud. Each point's value
// is its hypothesis index; when img is given, points are colored with the intensity of their
// cell's pixel.
func (dm *DepthMap) ToPointCloud(img *image.Gray) (pointcloud.PointCloud, error) {
	var pack MHPack
	dm.Reconstruct(&pack, ReconstructionFlags{WithSigma: true, AllHypotheses: true})
	cloud := pointcloud.NewWithPrealloc(len(pack.Cloud))
	for i, pt := range pack.Cloud {
		if !pack.Mask[i] {
			continue
		}
		data := pointcloud.NewValueData(pack.Hypothesis[i])
		if img != nil {
			if gray, ok := NearestGray(img, pack.Points[i].X, pack.Points[i].Y); ok {
				data.SetColor(color.NRGBA{R: gray, G: gray, B: gray, A: 255})
			}
		}
		if err := cloud.Set(pt, data); err != nil {
			return nil, err
		}
	}
	return cloud, nil
}
