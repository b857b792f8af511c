package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// PCDType is the format of a pcd file.
type PCDType int

const (
	// PCDAscii ascii format for pcd.
	PCDAscii PCDType = 0
	// PCDBinary binary format for pcd.
	PCDBinary PCDType = 1
)

// ToPCD writes the cloud in PCD v0.7 format. Positions are written unchanged, so a cloud in
// meters produces a file in meters. Colored clouds get a packed rgb field and clouds with values
// a label field.
func ToPCD(cloud PointCloud, out io.Writer, outputType PCDType) error {
	meta := cloud.MetaData()
	fields := []string{"x", "y", "z"}
	sizes := "4 4 4"
	types := "F F F"
	counts := "1 1 1"
	if meta.HasColor {
		fields = append(fields, "rgb")
		sizes += " 4"
		types += " I"
		counts += " 1"
	}
	if meta.HasValue {
		fields = append(fields, "label")
		sizes += " 4"
		types += " I"
		counts += " 1"
	}

	w := bufio.NewWriter(out)
	_, err := fmt.Fprintf(w, "VERSION .7\n"+
		"FIELDS %s\n"+
		"SIZE %s\n"+
		"TYPE %s\n"+
		"COUNT %s\n"+
		"WIDTH %d\n"+
		"HEIGHT 1\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n",
		joinFields(fields), sizes, types, counts, cloud.Size(), cloud.Size())
	if err != nil {
		return err
	}

	switch outputType {
	case PCDBinary:
		_, err = fmt.Fprintf(w, "DATA binary\n")
	case PCDAscii:
		_, err = fmt.Fprintf(w, "DATA ascii\n")
	default:
		return errors.Errorf("unsupported pcd type %d", outputType)
	}
	if err != nil {
		return err
	}
	if err := writePCDData(cloud, w, outputType); err != nil {
		return err
	}
	return w.Flush()
}

func joinFields(fields []string) string {
	out := fields[0]
	for _, f := range fields[1:] {
		out += " " + f
	}
	return out
}

func writePCDData(cloud PointCloud, out io.Writer, pcdtype PCDType) error {
	meta := cloud.MetaData()
	var err error
	buf := make([]byte, 0, 20)
	cloud.Iterate(0, 0, func(pos r3.Vector, d Data) bool {
		switch pcdtype {
		case PCDBinary:
			buf = buf[:0]
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(pos.X)))
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(pos.Y)))
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(pos.Z)))
			if meta.HasColor {
				buf = binary.LittleEndian.AppendUint32(buf, uint32(colorToPCDInt(d)))
			}
			if meta.HasValue {
				buf = binary.LittleEndian.AppendUint32(buf, uint32(valueOf(d)))
			}
			_, err = out.Write(buf)
		case PCDAscii:
			_, err = fmt.Fprintf(out, "%f %f %f", pos.X, pos.Y, pos.Z)
			if err == nil && meta.HasColor {
				_, err = fmt.Fprintf(out, " %d", colorToPCDInt(d))
			}
			if err == nil && meta.HasValue {
				_, err = fmt.Fprintf(out, " %d", valueOf(d))
			}
			if err == nil {
				_, err = fmt.Fprintln(out)
			}
		}
		return err == nil
	})
	return err
}

func colorToPCDInt(d Data) int {
	if d == nil || !d.HasColor() {
		return 0
	}
	r, g, b := d.RGB255()
	return (int(r) << 16) | (int(g) << 8) | int(b)
}

func valueOf(d Data) int {
	if d == nil || !d.HasValue() {
		return 0
	}
	return d.Value()
}
