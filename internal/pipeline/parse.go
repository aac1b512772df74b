// Package pipeline turns raw monthly-performance rows into the normalized
// chart dataset and its summary values.
package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/haledesignstudio/Pollen/internal/model"
)

// ErrNotArray is returned by DecodeRows when the payload is not a JSON array.
var ErrNotArray = errors.New("pipeline: payload is not a JSON array")

// zeroTokens are amount strings that mean "nothing reported".
var zeroTokens = map[string]struct{}{
	"":          {},
	"nan":       {},
	"null":      {},
	"undefined": {},
}

// ParseDayIndex converts a raw day cell into a day-of-month index.
// Numbers are floored; strings are read as a leading integer. Anything
// unparseable yields 0.
func ParseDayIndex(c model.Cell) int {
	switch c.Kind {
	case model.CellNumber:
		if math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
			return 0
		}
		f := math.Floor(c.Num)
		if f > math.MaxInt32 || f < math.MinInt32 {
			return 0
		}
		return int(f)
	case model.CellString:
		return parseLeadingInt(c.Str)
	default:
		return 0
	}
}

// parseLeadingInt reads an optional sign followed by digits from the start
// of the trimmed string, ignoring whatever follows ("12abc" -> 12).
func parseLeadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 32)
	if err != nil {
		return 0
	}
	return int(n)
}

// ParseAmount converts a raw amount cell into a number. Sentinel strings
// ("", "nan", "null", "undefined", any case, surrounding whitespace) and
// anything unparseable or non-finite yield 0.
func ParseAmount(c model.Cell) float64 {
	switch c.Kind {
	case model.CellNumber:
		if math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
			return 0
		}
		return c.Num
	case model.CellString:
		s := strings.ToLower(strings.TrimSpace(c.Str))
		if _, ok := zeroTokens[s]; ok {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Reported reports whether an amount cell carries a real upstream value.
// Only the literal "nan" token (and missing/null fields) count as not yet
// reported; an empty string is reported even though it parses to 0.
func Reported(c model.Cell) bool {
	if !c.Present() {
		return false
	}
	return strings.ToLower(strings.TrimSpace(c.Text())) != "nan"
}

// ParseDay sanitizes a whole row. Negative amounts are clamped to 0 so the
// cumulative series never decrease.
func ParseDay(r model.RawRow) model.ParsedDay {
	return model.ParsedDay{
		Day:      ParseDayIndex(r.BaseDay),
		Current:  nonNegative(ParseAmount(r.CurrentMonthAmount)),
		Record:   nonNegative(ParseAmount(r.RecordMonthAmount)),
		LastYear: nonNegative(ParseAmount(r.LastYearAmount)),
	}
}

func nonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

// DecodeRows decodes an upstream payload into raw rows. Malformed field
// values are kept for the parsers and array elements that are not objects
// are dropped; only a payload that is not a JSON array is an error. An empty
// body decodes to no rows.
func DecodeRows(body []byte) ([]model.RawRow, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}
	if body[0] != '[' {
		return nil, ErrNotArray
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("pipeline: decoding rows: %w", err)
	}

	rows := make([]model.RawRow, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' {
			continue
		}
		var r model.RawRow
		if err := json.Unmarshal(item, &r); err != nil {
			continue
		}
		rows = append(rows, r)
	}
	return rows, nil
}
