package rimage

import "go.viam.com/curvedstereo/utils"

// ScaleParameters relates full resolution image pixels (u, v) to the cells (x, y) of a coarser
// grid: u = x*Scale + U0 and x = round((u - U0) / Scale).
type ScaleParameters struct {
	U0    int `json:"u0"`
	V0    int `json:"v0"`
	Scale int `json:"scale"`
	XMax  int `json:"x_max"`
	YMax  int `json:"y_max"`
}

// U returns the image column of grid column x.
func (p ScaleParameters) U(x int) int {
	return x*p.Scale + p.U0
}

// V returns the image row of grid row y.
func (p ScaleParameters) V(y int) int {
	return y*p.Scale + p.V0
}

// X returns the grid column nearest to image column u.
func (p ScaleParameters) X(u float64) int {
	return utils.RoundInt((u - float64(p.U0)) / float64(p.Scale))
}

// Y returns the grid row nearest to image row v.
func (p ScaleParameters) Y(v float64) int {
	return utils.RoundInt((v - float64(p.V0)) / float64(p.Scale))
}

// InGrid returns whether (x, y) is a cell of the grid.
func (p ScaleParameters) InGrid(x, y int) bool {
	return x >= 0 && x < p.XMax && y >= 0 && y < p.YMax
}

// Size returns the number of cells.
func (p ScaleParameters) Size() int {
	return p.XMax * p.YMax
}
