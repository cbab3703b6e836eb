package grid

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Snapshot is a point-in-time copy of a grid, row-major. All rows have
// equal length.
type Snapshot [][]float64

func (s Snapshot) Dims() (width, height int) {
	if len(s) == 0 {
		return 0, 0
	}
	return len(s[0]), len(s)
}

// Rectangular reports whether every row has the same length. Frames
// are constructed from Grid.Snapshot so a violation is a bug in the
// kernel, not a runtime condition.
func (s Snapshot) Rectangular() bool {
	if len(s) == 0 {
		return false
	}
	w := len(s[0])
	for _, row := range s {
		if len(row) != w {
			return false
		}
	}
	return w > 0
}

// MarshalJSON writes the snapshot as nested JSON arrays. NaN and Inf
// cells serialize as null so a misbehaving kernel never breaks frame
// encoding; consumers treat null as a missing cell.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(s) * 64)
	buf.WriteByte('[')
	for i, row := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('[')
		for j, v := range row {
			if j > 0 {
				buf.WriteByte(',')
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				buf.WriteString("null")
			} else {
				b := strconv.AppendFloat(buf.AvailableBuffer(), v, 'g', -1, 64)
				buf.Write(b)
			}
		}
		buf.WriteByte(']')
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts the wire form produced by MarshalJSON, mapping
// null cells back to NaN.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw [][]*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Snapshot, len(raw))
	for i, row := range raw {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			if v == nil {
				out[i][j] = math.NaN()
			} else {
				out[i][j] = *v
			}
		}
	}
	*s = out
	return nil
}
