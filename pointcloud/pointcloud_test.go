package pointcloud

import (
	"bytes"
	"encoding/binary"
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestBasicCloud(t *testing.T) {
	cloud := NewWithPrealloc(3)
	test.That(t, cloud.Set(r3.Vector{X: 1, Y: 2, Z: 3}, NewValueData(0)), test.ShouldBeNil)
	test.That(t, cloud.Set(r3.Vector{X: -1, Y: 0, Z: 5}, NewValueData(1)), test.ShouldBeNil)
	test.That(t, cloud.Set(r3.Vector{X: 1, Y: 2, Z: 3}, NewValueData(2)), test.ShouldBeNil)
	test.That(t, cloud.Set(r3.Vector{X: math.NaN()}, nil), test.ShouldNotBeNil)

	test.That(t, cloud.Size(), test.ShouldEqual, 2)
	d, ok := cloud.At(1, 2, 3)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, d.Value(), test.ShouldEqual, 2)
	_, ok = cloud.At(0, 0, 0)
	test.That(t, ok, test.ShouldBeFalse)

	meta := cloud.MetaData()
	test.That(t, meta.HasValue, test.ShouldBeTrue)
	test.That(t, meta.HasColor, test.ShouldBeFalse)
	test.That(t, meta.MinX, test.ShouldEqual, -1.)
	test.That(t, meta.MaxZ, test.ShouldEqual, 5.)

	var order []float64
	cloud.Iterate(2, 1, func(p r3.Vector, d Data) bool {
		order = append(order, p.X)
		return true
	})
	test.That(t, order, test.ShouldResemble, []float64{-1})
}

func TestToPCD(t *testing.T) {
	cloud := New()
	test.That(t, cloud.Set(r3.Vector{X: 0.5, Y: -0.25, Z: 2}, NewColoredData(color.NRGBA{R: 1, G: 2, B: 3, A: 255}).SetValue(1)), test.ShouldBeNil)

	var ascii bytes.Buffer
	test.That(t, ToPCD(cloud, &ascii, PCDAscii), test.ShouldBeNil)
	lines := strings.Split(strings.TrimSpace(ascii.String()), "\n")
	test.That(t, lines[1], test.ShouldEqual, "FIELDS x y z rgb label")
	test.That(t, lines[len(lines)-2], test.ShouldEqual, "DATA ascii")
	test.That(t, lines[len(lines)-1], test.ShouldEqual, "0.500000 -0.250000 2.000000 66051 1")

	var bin bytes.Buffer
	test.That(t, ToPCD(cloud, &bin, PCDBinary), test.ShouldBeNil)
	raw := bin.Bytes()
	payload := raw[bytes.Index(raw, []byte("DATA binary\n"))+len("DATA binary\n"):]
	test.That(t, payload, test.ShouldHaveLength, 20)
	test.That(t, math.Float32frombits(binary.LittleEndian.Uint32(payload[8:])), test.ShouldEqual, float32(2))
	test.That(t, binary.LittleEndian.Uint32(payload[12:]), test.ShouldEqual, uint32(66051))

	test.That(t, ToPCD(cloud, &bin, PCDType(7)), test.ShouldNotBeNil)
}
