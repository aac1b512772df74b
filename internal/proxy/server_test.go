package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/haledesignstudio/Pollen/internal/config"
	"github.com/haledesignstudio/Pollen/internal/pipeline"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUpstream struct {
	srv   *httptest.Server
	hits  atomic.Int32
	auth  atomic.Value
	corr  atomic.Value
	reply func(w http.ResponseWriter)
}

func newFakeUpstream(t *testing.T, reply func(w http.ResponseWriter)) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{reply: reply}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		f.auth.Store(r.Header.Get("Authorization"))
		f.corr.Store(r.Header.Get(CorrelationIDHeader))
		f.reply(w)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestMissingConfigAnswers500WithoutUpstreamCall(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter) { _, _ = w.Write([]byte(`[]`)) })

	cases := []struct {
		name    string
		url     string
		token   string
		wantErr error
	}{
		{"no url", "", "tok", config.ErrMissingUpstreamURL},
		{"no token", up.srv.URL, "", config.ErrMissingUpstreamToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := New(Config{UpstreamURL: tc.url, UpstreamToken: tc.token})
			rec := get(t, s, PerformancePath)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, tc.wantErr.Error(), decodeError(t, rec)["error"])
			assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
		})
	}
	assert.Zero(t, up.hits.Load())
}

func TestPassesJSONThroughWithBearer(t *testing.T) {
	payload := `[{"baseDay":1,"currentMonthAmount":100,"recordMonthAmount":200,"lastYearAmount":150}]`
	up := newFakeUpstream(t, func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(payload))
	})

	s := New(Config{UpstreamURL: up.srv.URL, UpstreamToken: "tok-123"})
	rec := get(t, s, PerformancePath)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, payload, rec.Body.String())
	assert.Equal(t, "Bearer tok-123", up.auth.Load())
	assert.NotEmpty(t, rec.Header().Get(CorrelationIDHeader))
}

func TestNonJSONBodyPassesAsText(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter) { _, _ = w.Write([]byte("not json at all")) })

	s := New(Config{UpstreamURL: up.srv.URL, UpstreamToken: "tok"})
	rec := get(t, s, PerformancePath)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Equal(t, "not json at all", rec.Body.String())
}

func TestEmptyBodyBecomesEmptyArray(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter) { w.WriteHeader(http.StatusOK) })

	s := New(Config{UpstreamURL: up.srv.URL, UpstreamToken: "tok"})
	rec := get(t, s, PerformancePath)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())
}

func TestUpstreamErrorDoesNotLeakBody(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("internal secret detail"))
	})

	s := New(Config{UpstreamURL: up.srv.URL, UpstreamToken: "tok"})
	rec := get(t, s, PerformancePath)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret detail")
	body := decodeError(t, rec)
	assert.Equal(t, "upstream request failed", body["error"])
	assert.Equal(t, float64(http.StatusForbidden), body["status"])

	st := s.snapshotStatus()
	assert.Equal(t, int64(1), st.UpstreamFailures)
	assert.Equal(t, http.StatusForbidden, st.LastUpstreamStatus)
}

func TestUpstreamTimeoutAnswers504(t *testing.T) {
	release := make(chan struct{})
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer up.Close()
	defer close(release)

	s := New(Config{UpstreamURL: up.URL, UpstreamToken: "tok", Timeout: 50 * time.Millisecond})
	rec := get(t, s, PerformancePath)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, "upstream timed out", decodeError(t, rec)["error"])
}

func TestUnreachableUpstreamAnswers502(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := up.URL
	up.Close()

	s := New(Config{UpstreamURL: url, UpstreamToken: "tok"})
	rec := get(t, s, PerformancePath)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "upstream unreachable", decodeError(t, rec)["error"])
}

func TestChartRouteNormalizes(t *testing.T) {
	var rows []string
	for d := 1; d <= 30; d++ {
		current := "1000"
		if d > 15 {
			current = `"nan"`
		}
		rows = append(rows, fmt.Sprintf(`{"baseDay":%d,"currentMonthAmount":%s,"recordMonthAmount":2000,"lastYearAmount":1500}`, d, current))
	}
	payload := "[" + strings.Join(rows, ",") + "]"
	up := newFakeUpstream(t, func(w http.ResponseWriter) { _, _ = w.Write([]byte(payload)) })

	s := New(Config{UpstreamURL: up.srv.URL, UpstreamToken: "tok"})
	rec := get(t, s, ChartPath)
	require.Equal(t, http.StatusOK, rec.Code)

	var got ChartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got.Points, pipeline.ProgressSteps)
	assert.Equal(t, 30, got.Meta.CurrentMonthLength)
	assert.Equal(t, 15, got.Meta.TodayDayIndex)
	assert.Equal(t, 50, got.Meta.TodayProgressPercent)
	assert.InDelta(t, 15000, got.Summary.TodayValue, 1e-6)
	assert.InDelta(t, 60000, got.Summary.RecordFinal, 1e-6)
	assert.Equal(t, "0.1M", got.Cards.RecordFinal)
	assert.False(t, got.Points[51].HasCurrent())
}

func TestChartRouteRejectsNonArray(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter) { _, _ = w.Write([]byte(`{"rows":[]}`)) })

	s := New(Config{UpstreamURL: up.srv.URL, UpstreamToken: "tok"})
	rec := get(t, s, ChartPath)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "upstream returned malformed payload", decodeError(t, rec)["error"])
}

func TestCorrelationIDIsEchoed(t *testing.T) {
	s := New(Config{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, HealthPath, nil)
	req.Header.Set(CorrelationIDHeader, "abc-123")
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc-123", rec.Header().Get(CorrelationIDHeader))
}

func TestStatusCountsRequests(t *testing.T) {
	s := New(Config{})
	get(t, s, PerformancePath)
	get(t, s, ChartPath)

	rec := get(t, s, StatusPath)
	require.Equal(t, http.StatusOK, rec.Code)

	var st Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, int64(2), st.Requests)
	assert.False(t, st.UpstreamConfigured)
}

func TestLambdaHandlerServesRoutes(t *testing.T) {
	h := NewLambdaHandler(New(Config{}))
	resp, err := h.Handle(t.Context(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       HealthPath,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", resp.Body)
}

func TestCorrelationIDForwardedUpstream(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter) { _, _ = w.Write([]byte(`[]`)) })
	s := New(Config{UpstreamURL: up.srv.URL, UpstreamToken: "tok"})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, PerformancePath, nil)
	req.Header.Set(CorrelationIDHeader, "trace-7")
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "trace-7", up.corr.Load())

	// A generated ID is forwarded too and matches the one echoed back.
	rec = get(t, s, PerformancePath)
	require.Equal(t, http.StatusOK, rec.Code)
	echoed := rec.Header().Get(CorrelationIDHeader)
	assert.NotEmpty(t, echoed)
	assert.Equal(t, echoed, up.corr.Load())
}

func TestOversizedUpstreamBodyIs502(t *testing.T) {
	up := newFakeUpstream(t, func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[" + strings.Repeat(" ", 4<<20) + "]"))
	})
	s := New(Config{UpstreamURL: up.srv.URL, UpstreamToken: "tok"})

	for _, path := range []string{PerformancePath, ChartPath} {
		rec := get(t, s, path)
		assert.Equal(t, http.StatusBadGateway, rec.Code, path)
		assert.Equal(t, "upstream response too large", decodeError(t, rec)["error"], path)
	}
}

func TestLambdaDebugLogRedactsCredentials(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	h := NewLambdaHandler(New(Config{Logger: zap.New(core)}))

	req := events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       HealthPath,
		Headers: map[string]string{
			"authorization": "Bearer very-secret",
			"Cookie":        "session=crumb",
			"Accept":        "application/json",
		},
		MultiValueHeaders: map[string][]string{
			"Authorization": {"Bearer very-secret"},
		},
	}
	_, err := h.Handle(t.Context(), req)
	require.NoError(t, err)

	entries := logs.FilterMessage("received lambda request").All()
	require.Len(t, entries, 1)
	dump := entries[0].ContextMap()["request"].(string)
	assert.NotContains(t, dump, "very-secret")
	assert.NotContains(t, dump, "crumb")
	assert.Contains(t, dump, "application/json")

	// The request actually served keeps its headers.
	assert.Equal(t, "Bearer very-secret", req.Headers["authorization"])
}
