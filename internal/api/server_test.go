package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v5"
	"golang.org/x/time/rate"
)

type testState struct {
	status  Status
	samples []int
	err     error
}

func (s testState) Status() Status { return s.status }

func (s testState) Sample(ctx context.Context, chunk, shots int, seed int64) ([]int, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.samples, nil
}

func newTestEcho(state State) *echo.Echo {
	e := echo.New()
	NewServer(state, rate.Inf, 1).Register(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestStatus(t *testing.T) {
	t.Parallel()

	e := newTestEcho(testState{status: Status{
		Precision: "double",
		ChunkBits: 10,
		NumChunks: 4,
		Workers:   8,
	}})

	rec := doJSON(t, e, http.MethodGet, "/v1/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d", rec.Code, http.StatusOK)
	}
	var got Status
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if got.Precision != "double" || got.ChunkBits != 10 || got.NumChunks != 4 {
		t.Fatalf("unexpected status payload: %+v", got)
	}
}

func TestSample(t *testing.T) {
	t.Parallel()

	e := newTestEcho(testState{
		status:  Status{NumChunks: 2},
		samples: []int{0, 3, 1},
	})

	rec := doJSON(t, e, http.MethodPost, "/v1/sample", `{"chunk":1,"shots":3,"seed":7}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var got SampleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode sample response: %v", err)
	}
	if !strings.HasPrefix(got.ID, "sample_") {
		t.Errorf("ID = %q, want sample_ prefix", got.ID)
	}
	if got.Chunk != 1 || got.Shots != 3 {
		t.Errorf("echoed request = chunk %d shots %d, want 1/3", got.Chunk, got.Shots)
	}
	if len(got.Samples) != 3 || got.Samples[1] != 3 {
		t.Errorf("samples = %v, want [0 3 1]", got.Samples)
	}
}

func TestSampleValidation(t *testing.T) {
	t.Parallel()

	e := newTestEcho(testState{status: Status{NumChunks: 2}})

	cases := []struct {
		name string
		body string
		code int
	}{
		{"zero shots", `{"chunk":0,"shots":0}`, http.StatusBadRequest},
		{"negative chunk", `{"chunk":-1,"shots":1}`, http.StatusNotFound},
		{"chunk out of range", `{"chunk":2,"shots":1}`, http.StatusNotFound},
		{"malformed body", `{"chunk":`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, e, http.MethodPost, "/v1/sample", tc.body)
			if rec.Code != tc.code {
				t.Fatalf("status code = %d, want %d: %s", rec.Code, tc.code, rec.Body.String())
			}
		})
	}
}

func TestSampleStateError(t *testing.T) {
	t.Parallel()

	e := newTestEcho(testState{
		status: Status{NumChunks: 1},
		err:    errors.New("pool gone"),
	})

	rec := doJSON(t, e, http.MethodPost, "/v1/sample", `{"chunk":0,"shots":1}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status code = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
	if !strings.Contains(rec.Body.String(), "pool gone") {
		t.Fatalf("expected error message in body, got: %s", rec.Body.String())
	}
}

func TestSampleRateLimit(t *testing.T) {
	t.Parallel()

	e := echo.New()
	NewServer(testState{status: Status{NumChunks: 1}, samples: []int{0}}, 0, 1).Register(e)

	// First request consumes the single burst token, second is throttled.
	rec := doJSON(t, e, http.MethodPost, "/v1/sample", `{"chunk":0,"shots":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request code = %d, want %d", rec.Code, http.StatusOK)
	}
	rec = doJSON(t, e, http.MethodPost, "/v1/sample", `{"chunk":0,"shots":1}`)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request code = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
}
