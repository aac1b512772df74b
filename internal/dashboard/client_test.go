package dashboard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haledesignstudio/Pollen/internal/pipeline"
)

func TestNewProxyClientRequiresURL(t *testing.T) {
	assert.Nil(t, NewProxyClient("  "))
	assert.NotNil(t, NewProxyClient("http://127.0.0.1:8787/"))
}

func TestProxyClientFetchRows(t *testing.T) {
	var gotPath, gotAccept, gotCache string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		gotCache = r.Header.Get("Cache-Control")
		_, _ = w.Write([]byte(`[{"baseDay":"1","currentMonthAmount":"12.5"}, 7]`))
	}))
	defer srv.Close()

	rows, err := NewProxyClient(srv.URL + "/").FetchRows(context.Background())
	require.NoError(t, err)

	assert.Equal(t, performancePath, gotPath)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "no-cache", gotCache)
	require.Len(t, rows, 1)
	assert.Equal(t, 12.5, pipeline.ParseAmount(rows[0].CurrentMonthAmount))
}

func TestProxyClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"upstream request failed","status":401}`))
	}))
	defer srv.Close()

	_, err := NewProxyClient(srv.URL).FetchRows(context.Background())

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.Code)
	assert.Equal(t, "upstream request failed", se.Message)
	assert.Contains(t, err.Error(), "502")
}

func TestProxyClientRejectsNonArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`plain text`))
	}))
	defer srv.Close()

	_, err := NewProxyClient(srv.URL).FetchRows(context.Background())
	assert.ErrorIs(t, err, pipeline.ErrNotArray)
}

func TestProxyClientRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("[" + strings.Repeat(" ", maxBodySize) + "]"))
	}))
	defer srv.Close()

	_, err := NewProxyClient(srv.URL).FetchRows(context.Background())
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}
