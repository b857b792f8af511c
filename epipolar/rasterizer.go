package epipolar

import (
	"image"
	"math"
)

// CurveRasterizer walks a Polynomial2 one pixel at a time. The value and the gradient of the
// polynomial are carried along and updated incrementally, so a step costs a handful of additions.
//
// The walking direction is the tangent s*(fv, -fu). Each step moves one pixel along the dominant
// axis of the tangent and picks the offset in {-1, 0, 1} on the other axis that keeps |f| lowest,
// which makes every visited pixel 8-adjacent to the previous one.
type CurveRasterizer struct {
	poly Polynomial2

	u, v      int
	f, fu, fv float64
	dir       int
	steps     int

	start                 image.Point
	f0, fu0, fv0          float64
	resetDir, towardsGoal int
}

// NewCurveRasterizer starts at start and orients the walk so that its first step heads towards goal.
func NewCurveRasterizer(start, goal image.Point, poly Polynomial2) *CurveRasterizer {
	pt := toR2(start)
	grad := poly.Gradient(pt)
	cr := &CurveRasterizer{
		poly:  poly,
		u:     start.X,
		v:     start.Y,
		f:     poly.Eval(pt),
		fu:    grad.X,
		fv:    grad.Y,
		dir:   1,
		start: start,
	}
	delta := goal.Sub(start)
	if grad.Y*float64(delta.X)-grad.X*float64(delta.Y) < 0 {
		cr.dir = -1
	}
	cr.f0, cr.fu0, cr.fv0 = cr.f, cr.fu, cr.fv
	cr.resetDir, cr.towardsGoal = cr.dir, cr.dir
	return cr
}

// U returns the current column.
func (cr *CurveRasterizer) U() int { return cr.u }

// V returns the current row.
func (cr *CurveRasterizer) V() int { return cr.v }

// Point returns the current pixel.
func (cr *CurveRasterizer) Point() image.Point { return image.Point{cr.u, cr.v} }

// Count returns the signed number of steps taken since the start.
func (cr *CurveRasterizer) Count() int { return cr.steps }

// Value returns the polynomial at the current pixel.
func (cr *CurveRasterizer) Value() float64 { return cr.f }

// SetStep keeps the direction given at construction for a positive step and reverses it for a
// negative one.
func (cr *CurveRasterizer) SetStep(step int) {
	if step < 0 {
		cr.dir = -cr.towardsGoal
	} else {
		cr.dir = cr.towardsGoal
	}
	cr.resetDir = cr.dir
}

// Step moves one pixel forward.
func (cr *CurveRasterizer) Step() {
	cr.move(cr.dir)
	cr.steps++
}

// Unstep moves one pixel backward.
func (cr *CurveRasterizer) Unstep() {
	cr.move(-cr.dir)
	cr.steps--
}

// Steps moves n pixels forward, or -n pixels backward when n is negative.
func (cr *CurveRasterizer) Steps(n int) {
	for ; n > 0; n-- {
		cr.Step()
	}
	for ; n < 0; n++ {
		cr.Unstep()
	}
}

// Reset goes back to the starting pixel and direction.
func (cr *CurveRasterizer) Reset() {
	cr.u, cr.v = cr.start.X, cr.start.Y
	cr.f, cr.fu, cr.fv = cr.f0, cr.fu0, cr.fv0
	cr.dir = cr.resetDir
	cr.steps = 0
}

// Walk calls fn with the step index and the pixel for up to n pixels starting with the current
// one, advancing after every call. It stops early when the pixel leaves bounds or fn returns false,
// and returns the number of pixels visited.
func (cr *CurveRasterizer) Walk(n int, bounds image.Rectangle, fn func(i int, pt image.Point) bool) int {
	for i := 0; i < n; i++ {
		pt := cr.Point()
		if !pt.In(bounds) || !fn(i, pt) {
			return i
		}
		cr.Step()
	}
	return n
}

func (cr *CurveRasterizer) move(dir int) {
	tu := float64(dir) * cr.fv
	tv := -float64(dir) * cr.fu
	p := cr.poly
	if math.Abs(tu) >= math.Abs(tv) {
		du := 1
		if tu < 0 {
			du = -1
		}
		best, bestF := 0, math.Inf(1)
		for dv := -1; dv <= 1; dv++ {
			f := cr.f + cr.fu*float64(du) + cr.fv*float64(dv) +
				p.KUU + p.KUV*float64(du*dv) + p.KVV*float64(dv*dv)
			if math.Abs(f) < math.Abs(bestF) {
				best, bestF = dv, f
			}
		}
		cr.advance(du, best, bestF)
		return
	}
	dv := 1
	if tv < 0 {
		dv = -1
	}
	best, bestF := 0, math.Inf(1)
	for du := -1; du <= 1; du++ {
		f := cr.f + cr.fu*float64(du) + cr.fv*float64(dv) +
			p.KUU*float64(du*du) + p.KUV*float64(du*dv) + p.KVV
		if math.Abs(f) < math.Abs(bestF) {
			best, bestF = du, f
		}
	}
	cr.advance(best, dv, bestF)
}

func (cr *CurveRasterizer) advance(du, dv int, f float64) {
	p := cr.poly
	cr.u += du
	cr.v += dv
	cr.f = f
	cr.fu += 2*p.KUU*float64(du) + p.KUV*float64(dv)
	cr.fv += p.KUV*float64(du) + 2*p.KVV*float64(dv)
}
