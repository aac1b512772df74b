package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawRowDecodesMixedCells(t *testing.T) {
	var r RawRow
	err := json.Unmarshal([]byte(`{"baseDay":"7","currentMonthAmount":12.5,"recordMonthAmount":null,"lastYearAmount":{"x":1}}`), &r)
	require.NoError(t, err)

	assert.Equal(t, Str("7"), r.BaseDay)
	assert.Equal(t, Num(12.5), r.CurrentMonthAmount)
	assert.Equal(t, CellNull, r.RecordMonthAmount.Kind)
	assert.Equal(t, CellOther, r.LastYearAmount.Kind)
}

func TestMissingFieldIsAbsent(t *testing.T) {
	var r RawRow
	require.NoError(t, json.Unmarshal([]byte(`{"baseDay":3}`), &r))

	assert.Equal(t, CellAbsent, r.CurrentMonthAmount.Kind)
	assert.False(t, r.CurrentMonthAmount.Present())
	assert.True(t, r.BaseDay.Present())
}

func TestHugeNumberKeepsInfinity(t *testing.T) {
	var c Cell
	require.NoError(t, json.Unmarshal([]byte(`1e400`), &c))
	assert.Equal(t, CellNumber, c.Kind)
	assert.True(t, math.IsInf(c.Num, 1))
}

func TestCellText(t *testing.T) {
	assert.Equal(t, "12.5", Num(12.5).Text())
	assert.Equal(t, "3", Num(3).Text())
	assert.Equal(t, " NaN ", Str(" NaN ").Text())
	assert.Equal(t, "", Null().Text())
}

func TestMarshalNonFiniteAsString(t *testing.T) {
	b, err := json.Marshal(Num(math.Inf(1)))
	require.NoError(t, err)
	assert.Equal(t, `"+Inf"`, string(b))
}

func TestDatasetPointAt(t *testing.T) {
	v := 4.0
	ds := Dataset{Points: []ChartPoint{
		{ProgressPercent: 0},
		{ProgressPercent: 1, CurrentValue: &v},
	}}

	p, ok := ds.PointAt(1)
	require.True(t, ok)
	assert.True(t, p.HasCurrent())
	assert.Equal(t, 4.0, p.Current())

	p, ok = ds.PointAt(0)
	require.True(t, ok)
	assert.Zero(t, p.Current())

	_, ok = ds.PointAt(50)
	assert.False(t, ok)
}

func TestChartPointOmitsAbsentCurrent(t *testing.T) {
	b, err := json.Marshal(ChartPoint{ProgressPercent: 60, LastYearValue: 1, RecordValue: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"progressPercent":60,"lastYearValue":1,"recordValue":2}`, string(b))
}
