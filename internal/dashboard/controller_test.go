package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/haledesignstudio/Pollen/internal/dashboard/mocks"
	"github.com/haledesignstudio/Pollen/internal/model"
)

func sampleRows() []model.RawRow {
	rows := make([]model.RawRow, 0, 30)
	for d := 1; d <= 30; d++ {
		cur := model.Num(100)
		if d > 10 {
			cur = model.Str("nan")
		}
		rows = append(rows, model.RawRow{
			BaseDay:            model.Num(float64(d)),
			CurrentMonthAmount: cur,
			RecordMonthAmount:  model.Num(200),
			LastYearAmount:     model.Num(150),
		})
	}
	return rows
}

func TestFetchNormalizes(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := mocks.NewMockSource(ctrl)
	src.EXPECT().FetchRows(gomock.Any()).Return(sampleRows(), nil)

	c := NewController(src)
	res, err := c.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(1), res.Generation)
	assert.Len(t, res.Dataset.Points, 101)
	assert.Equal(t, 10, res.Dataset.Meta.TodayDayIndex)
	assert.Equal(t, 33, res.Dataset.Meta.TodayProgressPercent)
	assert.InDelta(t, 990, res.Summary.TodayValue, 1e-6)
	assert.False(t, res.FetchedAt.IsZero())
}

func TestFetchPropagatesError(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := mocks.NewMockSource(ctrl)
	boom := &StatusError{Code: 502, Message: "upstream request failed"}
	src.EXPECT().FetchRows(gomock.Any()).Return(nil, boom)

	_, err := NewController(src).Fetch(context.Background())

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 502, se.Code)
}

func TestNewerFetchSupersedesInFlight(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := mocks.NewMockSource(ctrl)

	entered := make(chan struct{})
	gomock.InOrder(
		src.EXPECT().FetchRows(gomock.Any()).DoAndReturn(func(ctx context.Context) ([]model.RawRow, error) {
			close(entered)
			<-ctx.Done()
			return nil, ctx.Err()
		}),
		src.EXPECT().FetchRows(gomock.Any()).Return(sampleRows(), nil),
	)

	c := NewController(src)

	type outcome struct {
		res Result
		err error
	}
	first := make(chan outcome, 1)
	go func() {
		res, err := c.Fetch(context.Background())
		first <- outcome{res, err}
	}()
	<-entered

	res, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Generation)

	select {
	case got := <-first:
		assert.ErrorIs(t, got.err, ErrSuperseded)
		assert.Equal(t, uint64(1), got.res.Generation)
	case <-time.After(2 * time.Second):
		t.Fatal("first fetch was not canceled")
	}
}

func TestCloseCancelsInFlight(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := mocks.NewMockSource(ctrl)

	entered := make(chan struct{})
	src.EXPECT().FetchRows(gomock.Any()).DoAndReturn(func(ctx context.Context) ([]model.RawRow, error) {
		close(entered)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	c := NewController(src)
	done := make(chan error, 1)
	go func() {
		_, err := c.Fetch(context.Background())
		done <- err
	}()
	<-entered
	c.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("close did not cancel the fetch")
	}

	_, err := c.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestFallbackIsDegenerateDataset(t *testing.T) {
	fb := Fallback()
	require.Len(t, fb.Dataset.Points, 1)
	assert.True(t, fb.Dataset.Points[0].HasCurrent())
	assert.Equal(t, 31, fb.Dataset.Meta.CurrentMonthLength)
	assert.Equal(t, "0M", fb.Cards.Today)
}

func TestReloadPolicyStopsAfterMax(t *testing.T) {
	p := NewReloadPolicy(3*time.Second, 2)

	d, ok := p.OnFailure()
	require.True(t, ok)
	assert.Equal(t, 3*time.Second, d)

	_, ok = p.OnFailure()
	require.True(t, ok)

	_, ok = p.OnFailure()
	assert.False(t, ok)

	p.OnSuccess()
	d, ok = p.OnFailure()
	assert.True(t, ok)
	assert.Equal(t, 3*time.Second, d)
}

func TestReloadPolicyZeroNeverReloads(t *testing.T) {
	_, ok := NewReloadPolicy(time.Second, 0).OnFailure()
	assert.False(t, ok)
}
