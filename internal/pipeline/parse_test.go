package pipeline

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haledesignstudio/Pollen/internal/model"
)

func TestParseDayIndexRoundTrips(t *testing.T) {
	for d := 1; d <= 31; d++ {
		assert.Equal(t, d, ParseDayIndex(model.Num(float64(d))), "number %d", d)
		assert.Equal(t, d, ParseDayIndex(model.Str(strconv.Itoa(d))), "string %d", d)
	}
}

func TestParseDayIndex(t *testing.T) {
	tests := []struct {
		name string
		in   model.Cell
		want int
	}{
		{"float floors", model.Num(7.9), 7},
		{"negative float floors", model.Num(-0.5), -1},
		{"padded string", model.Str(" 12 "), 12},
		{"leading int", model.Str("12abc"), 12},
		{"decimal string", model.Str("3.7"), 3},
		{"garbage string", model.Str("abc"), 0},
		{"empty string", model.Str(""), 0},
		{"nan number", model.Num(math.NaN()), 0},
		{"infinite", model.Num(math.Inf(1)), 0},
		{"too large", model.Num(1e12), 0},
		{"null", model.Null(), 0},
		{"absent", model.Cell{}, 0},
		{"object", model.Cell{Kind: model.CellOther}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDayIndex(tt.in))
		})
	}
}

func TestParseAmountSentinels(t *testing.T) {
	for _, s := range []string{"", "nan", "NaN", " NAN ", "null", "Null", "undefined", "  UNDEFINED\t"} {
		assert.Equal(t, 0.0, ParseAmount(model.Str(s)), "%q", s)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name string
		in   model.Cell
		want float64
	}{
		{"number", model.Num(12.5), 12.5},
		{"numeric string", model.Str(" 1500.25 "), 1500.25},
		{"negative kept", model.Str("-3"), -3},
		{"exponent", model.Str("1e3"), 1000},
		{"garbage", model.Str("12abc"), 0},
		{"infinity string", model.Str("Infinity"), 0},
		{"inf string", model.Str("inf"), 0},
		{"nan number", model.Num(math.NaN()), 0},
		{"infinite number", model.Num(math.Inf(-1)), 0},
		{"null", model.Null(), 0},
		{"object", model.Cell{Kind: model.CellOther}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAmount(tt.in))
		})
	}
}

func TestReported(t *testing.T) {
	assert.True(t, Reported(model.Str("")), "empty string counts as reported")
	assert.True(t, Reported(model.Str("0")))
	assert.True(t, Reported(model.Num(0)))
	assert.True(t, Reported(model.Str("null")))
	assert.False(t, Reported(model.Str("nan")))
	assert.False(t, Reported(model.Str(" NaN ")))
	assert.False(t, Reported(model.Num(math.NaN())))
	assert.False(t, Reported(model.Null()))
	assert.False(t, Reported(model.Cell{}))
}

func TestParseDayClampsNegatives(t *testing.T) {
	got := ParseDay(model.RawRow{
		BaseDay:            model.Str("4"),
		CurrentMonthAmount: model.Str("-20"),
		RecordMonthAmount:  model.Num(30),
		LastYearAmount:     model.Str("nan"),
	})
	assert.Equal(t, model.ParsedDay{Day: 4, Current: 0, Record: 30, LastYear: 0}, got)
}

func TestDecodeRows(t *testing.T) {
	rows, err := DecodeRows([]byte(`[{"baseDay":1,"currentMonthAmount":"5"}, "junk", null, {"baseDay":"2"}]`))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, ParseDayIndex(rows[0].BaseDay))
	assert.Equal(t, 2, ParseDayIndex(rows[1].BaseDay))

	rows, err = DecodeRows([]byte("  "))
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = DecodeRows([]byte(`{"rows":[]}`))
	assert.ErrorIs(t, err, ErrNotArray)

	_, err = DecodeRows([]byte(`[{"baseDay":1}`))
	assert.Error(t, err)
}
