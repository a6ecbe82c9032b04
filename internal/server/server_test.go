package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChicagoDave/ilotplanner/pkg/config"
	"github.com/ChicagoDave/ilotplanner/pkg/drawing"
	"github.com/ChicagoDave/ilotplanner/pkg/errors"
	"github.com/ChicagoDave/ilotplanner/pkg/geo"
	"github.com/ChicagoDave/ilotplanner/pkg/layout"
	"github.com/ChicagoDave/ilotplanner/pkg/validation"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(config.Default(), 0, log.New(io.Discard)).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func wall(x0, y0, x1, y1 float64) drawing.Entity {
	return drawing.Entity{Kind: drawing.KindLine, Layer: "A-WALL", Points: []geo.Point{{X: x0, Y: y0}, {X: x1, Y: y1}}}
}

func room() *drawing.Drawing {
	return &drawing.Drawing{Name: "room", Entities: []drawing.Entity{
		wall(0, 0, 9, 0),
		wall(10, 0, 20, 0),
		wall(20, 0, 20, 10),
		wall(20, 10, 0, 10),
		wall(0, 10, 0, 0),
		{Kind: drawing.KindArc, Layer: "A-DOOR", Center: geo.Pt(9, 0), Radius: 1, StartAngle: 0, EndAngle: 90},
	}}
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestConfig(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/api/config")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cfg config.Config
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cfg))
	assert.Len(t, cfg.SizeClasses, len(config.Default().SizeClasses))
}

func TestAnalyze(t *testing.T) {
	srv := newTestServer(t)
	resp := post(t, srv.URL+"/api/analyze", map[string]any{"drawing": room()})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res layout.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, "room", res.Source)
	assert.NotEmpty(t, res.Ilots)
	assert.Equal(t, len(res.Ilots), res.Metrics.IlotCount)
}

func TestAnalyzeGeoJSON(t *testing.T) {
	srv := newTestServer(t)
	resp := post(t, srv.URL+"/api/analyze?format=geojson", map[string]any{"drawing": room()})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/geo+json", resp.Header.Get("Content-Type"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	assert.NotEmpty(t, fc.Features)
}

func TestAnalyzeErrors(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		body   any
		status int
		code   errors.Code
	}{
		{"missing drawing", map[string]any{}, http.StatusUnprocessableEntity, errors.ErrCodeInvalidInput},
		{"bad config", map[string]any{"drawing": room(), "config": map[string]any{"size_classes": []any{}}},
			http.StatusUnprocessableEntity, errors.ErrCodeInvalidConfig},
		{"open outline", map[string]any{"drawing": drawing.Drawing{Entities: []drawing.Entity{
			wall(0, 0, 10, 0), wall(10, 0, 10, 10), wall(0, 0, 0, 10),
		}}}, http.StatusUnprocessableEntity, errors.ErrCodeNoBoundary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv.URL+"/api/analyze", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			var body errorBody
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestAnalyzeMalformedBody(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Post(srv.URL+"/api/analyze", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestValidate(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv.URL+"/api/validate", map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report validation.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.True(t, report.Valid)

	resp = post(t, srv.URL+"/api/validate", map[string]any{"config": map[string]any{"runtime": map[string]any{"workers": 0}}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report = validation.Report{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.False(t, report.Valid)
	assert.Equal(t, 1, report.Count(errors.ErrCodeInvalidConfig))
}

func TestValidateLayout(t *testing.T) {
	srv := newTestServer(t)
	resp := post(t, srv.URL+"/api/analyze", map[string]any{"drawing": room()})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res layout.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))

	resp = post(t, srv.URL+"/api/validate", map[string]any{"layout": res})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report validation.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.True(t, report.Valid, "%v", report.Errors)
}
