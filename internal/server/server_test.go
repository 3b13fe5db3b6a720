package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/psantana5/segtime/internal/pipeline"
	"github.com/psantana5/segtime/internal/profile"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) (*mux.Router, *profile.Registry) {
	t.Helper()

	reg := profile.NewRegistry()
	cat := reg.ForCategory("stages", profile.WithClock(profile.FixedClock(0, 400, 1000, 2000, 2100, 2600)))
	p := pipeline.New(zerolog.Nop(),
		pipeline.Profiled(cat, "upper", pipeline.StageFunc(func(_ context.Context, _ string, in []byte) ([]byte, error) {
			return bytes.ToUpper(in), nil
		})),
		pipeline.Mark(cat.Stop()),
	)
	p.OnStart(cat.Start("read").Record)

	h, err := NewHandler(reg, p, zerolog.Nop())
	require.NoError(t, err)

	router := mux.NewRouter()
	h.RegisterRoutes(router)
	return router, reg
}

func do(router http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)
	w := do(router, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestProcessEntityAndReport(t *testing.T) {
	router, reg := newTestRouter(t)

	w := do(router, "POST", "/entities/src/app/main.js", "hello")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp processResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, processResponse{Entity: "src/app/main.js", BytesIn: 5, BytesOut: 5}, resp)

	w = do(router, "POST", "/entities/lib.js", "x")
	require.Equal(t, http.StatusOK, w.Code)

	t.Run("text", func(t *testing.T) {
		w := do(router, "GET", "/report", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, reg.String()+"\n", w.Body.String())
		assert.Contains(t, w.Body.String(), "src/app/main.js")
	})

	t.Run("category json", func(t *testing.T) {
		w := do(router, "GET", "/report/stages", "")
		require.Equal(t, http.StatusOK, w.Code)

		var got map[string]map[string]float64
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.InDeltaMapValues(t, map[string]float64{"read": 0.4, "upper": 0.6, "total": 1.0}, got["src/app/main.js"], 1e-9)
		assert.InDeltaMapValues(t, map[string]float64{"read": 0.1, "upper": 0.5, "total": 0.6}, got["lib.js"], 1e-9)
	})

	t.Run("category yaml", func(t *testing.T) {
		w := do(router, "GET", "/report/stages?format=yaml", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "lib.js:")
	})

	t.Run("bad format", func(t *testing.T) {
		w := do(router, "GET", "/report/stages?format=xml", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown category", func(t *testing.T) {
		w := do(router, "GET", "/report/nope", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("summary", func(t *testing.T) {
		w := do(router, "GET", "/summary", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"entities":2`)
	})

	t.Run("metrics", func(t *testing.T) {
		w := do(router, "GET", "/metrics", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `segtime_entities{category="stages"} 2`)
	})
}

func TestProcessEntity_NoStages(t *testing.T) {
	reg := profile.NewRegistry()
	h, err := NewHandler(reg, pipeline.New(zerolog.Nop()), zerolog.Nop())
	require.NoError(t, err)
	router := mux.NewRouter()
	h.RegisterRoutes(router)

	w := do(router, "POST", "/entities/a.js", "x")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUnknownMethod(t *testing.T) {
	router, _ := newTestRouter(t)
	w := do(router, "GET", "/entities/a.js", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
