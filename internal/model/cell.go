package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// CellKind identifies what a raw upstream field actually held.
type CellKind int

const (
	CellAbsent CellKind = iota // key missing from the row
	CellNull
	CellNumber
	CellString
	CellOther // bool, object, or array
)

// Cell is a single raw upstream field. The upstream feed mixes numbers,
// numeric strings, and sentinel tokens in the same column, so the value is
// kept as-is and interpreted later by the pipeline parsers.
type Cell struct {
	Kind CellKind
	Num  float64
	Str  string
}

// Num returns a number cell.
func Num(f float64) Cell { return Cell{Kind: CellNumber, Num: f} }

// Str returns a string cell.
func Str(s string) Cell { return Cell{Kind: CellString, Str: s} }

// Null returns an explicit JSON null cell.
func Null() Cell { return Cell{Kind: CellNull} }

// Present reports whether the field was sent with a non-null value.
func (c Cell) Present() bool {
	return c.Kind != CellAbsent && c.Kind != CellNull
}

// Text returns the cell rendered as text, the way the upstream would have
// stringified it. Non-scalar kinds render as "".
func (c Cell) Text() string {
	switch c.Kind {
	case CellString:
		return c.Str
	case CellNumber:
		if math.IsNaN(c.Num) {
			return "NaN"
		}
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	default:
		return ""
	}
}

// UnmarshalJSON accepts any JSON value. It only fails on input the decoder
// would already have rejected as invalid JSON.
func (c *Cell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		*c = Cell{}
		return nil
	}

	switch data[0] {
	case 'n':
		*c = Null()
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Str(s)
		return nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		// Out-of-range literals come back as ±Inf with ErrRange; keep the
		// infinity so the parsers can reject it as non-finite.
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil && !math.IsInf(f, 0) {
			return err
		}
		*c = Num(f)
		return nil
	default:
		*c = Cell{Kind: CellOther}
		return nil
	}
}

// MarshalJSON writes the cell back in its original shape. Non-finite
// numbers have no JSON form and are written as strings.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellNumber:
		if math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
			return json.Marshal(c.Text())
		}
		return json.Marshal(c.Num)
	case CellString:
		return json.Marshal(c.Str)
	default:
		return []byte("null"), nil
	}
}
