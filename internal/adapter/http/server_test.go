package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/jawad201-cmd/punjab-smog-pipline/internal/adapter/http"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/analysis"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/attribution"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/domain"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/geo"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/store"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockReports struct {
	report *analysis.Report
}

func (m *mockReports) Latest() (*analysis.Report, bool) { return m.report, m.report != nil }

type testDeps struct {
	readyErr error
	report   *analysis.Report
	store    *store.MemoryStore
	registry *geo.Registry
}

func newTestServer(d testDeps) *httpadapter.Server {
	if d.store == nil {
		d.store = store.NewMemoryStore(0)
	}
	if d.registry == nil {
		d.registry = geo.NewRegistry(geo.EmbeddedSource(), 5)
	}
	return httpadapter.NewServer(":0", httpadapter.Deps{
		Ready:        &mockReadiness{err: d.readyErr},
		Reports:      &mockReports{report: d.report},
		Observations: d.store,
		Registry:     d.registry,
	}, slog.Default())
}

func get(t *testing.T, srv *httpadapter.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := get(t, newTestServer(testDeps{}), "/healthz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := get(t, newTestServer(testDeps{}), "/readyz")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := get(t, newTestServer(testDeps{readyErr: fmt.Errorf("not ready yet")}), "/readyz")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := get(t, newTestServer(testDeps{}), "/metrics")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestLatestReport(t *testing.T) {
	rec := get(t, newTestServer(testDeps{}), "/v1/reports/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	report := &analysis.Report{ID: "r-1", GeneratedAt: time.Date(2024, time.November, 6, 9, 0, 0, 0, time.UTC)}
	rec = get(t, newTestServer(testDeps{report: report}), "/v1/reports/latest")
	require.Equal(t, http.StatusOK, rec.Code)

	var body analysis.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "r-1", body.ID)
	assert.Equal(t, report.GeneratedAt, body.GeneratedAt)
}

func TestDistricts(t *testing.T) {
	rec := get(t, newTestServer(testDeps{}), "/v1/districts")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []domain.DistrictLocation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body, 42)
	assert.Equal(t, "attock", body[0].DistrictID)
}

func TestNeighbors(t *testing.T) {
	srv := newTestServer(testDeps{})

	rec := get(t, srv, "/v1/districts/lahore/neighbors?k=3")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []struct {
		DistrictID     string  `json:"district_id"`
		DistanceKM     float64 `json:"distance_km"`
		BearingDegrees float64 `json:"bearing_degrees"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 3)
	for i := 1; i < len(body); i++ {
		assert.LessOrEqual(t, body[i-1].DistanceKM, body[i].DistanceKM)
	}
	for _, n := range body {
		assert.NotEqual(t, "lahore", n.DistrictID)
		assert.GreaterOrEqual(t, n.BearingDegrees, 0.0)
		assert.Less(t, n.BearingDegrees, 360.0)
	}

	assert.Equal(t, http.StatusBadRequest, get(t, srv, "/v1/districts/lahore/neighbors?k=0").Code)
	assert.Equal(t, http.StatusNotFound, get(t, srv, "/v1/districts/karachi/neighbors").Code)
}

func TestAttribution(t *testing.T) {
	report := &analysis.Report{
		ID: "r-1",
		Attributions: []analysis.DistrictAttribution{{
			DistrictID: "lahore",
			Scores: []attribution.Score{
				{TargetDistrictID: "lahore", SourceDistrictID: "sheikhupura", Plausibility: 0.8},
			},
		}},
	}
	srv := newTestServer(testDeps{report: report})

	rec := get(t, srv, "/v1/districts/lahore/attribution")
	require.Equal(t, http.StatusOK, rec.Code)
	var body analysis.DistrictAttribution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Scores, 1)
	assert.Equal(t, "sheikhupura", body.Scores[0].SourceDistrictID)

	assert.Equal(t, http.StatusNotFound, get(t, srv, "/v1/districts/multan/attribution").Code, "not in report")
	assert.Equal(t, http.StatusNotFound, get(t, srv, "/v1/districts/karachi/attribution").Code, "unregistered")
	assert.Equal(t, http.StatusNotFound, get(t, newTestServer(testDeps{}), "/v1/districts/lahore/attribution").Code, "no report")
}

func TestLatestObservation(t *testing.T) {
	st := store.NewMemoryStore(0)
	require.NoError(t, st.LoadBatch(context.Background(), []domain.DistrictObservation{
		{DistrictID: "lahore", Date: time.Date(2024, time.November, 6, 8, 0, 0, 0, time.UTC), PM25: domain.Ptr(280.0)},
		{DistrictID: "lahore", Date: time.Date(2024, time.November, 6, 9, 0, 0, 0, time.UTC), PM25: domain.Ptr(310.0)},
	}))
	srv := newTestServer(testDeps{store: st})

	rec := get(t, srv, "/v1/districts/lahore/latest")
	require.Equal(t, http.StatusOK, rec.Code)
	var body domain.DistrictObservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.PM25)
	assert.InDelta(t, 310.0, *body.PM25, 0)

	assert.Equal(t, http.StatusNotFound, get(t, srv, "/v1/districts/multan/latest").Code)
}

const twoDistricts = `districts:
  - {id: lahore, name: Lahore, lat: 31.5204, lon: 74.3587}
  - {id: kasur, name: Kasur, lat: 31.1187, lon: 74.4461}
`

func TestRegistryReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "districts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(twoDistricts), 0o600))
	srv := newTestServer(testDeps{registry: geo.NewRegistry(geo.FileSource(path), 5)})

	districts := func() []domain.DistrictLocation {
		rec := get(t, srv, "/v1/districts")
		require.Equal(t, http.StatusOK, rec.Code)
		var body []domain.DistrictLocation
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body
	}
	reload := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/registry/reload", nil))
		return rec
	}

	require.Len(t, districts(), 2)

	updated := twoDistricts + "  - {id: sheikhupura, name: Sheikhupura, lat: 31.7167, lon: 73.9850}\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o600))
	assert.Len(t, districts(), 2, "edits are not visible before a reload")

	rec := reload()
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "reloaded", body["status"])
	assert.InDelta(t, 3, body["districts"], 0)
	assert.Len(t, districts(), 3)

	require.NoError(t, os.WriteFile(path, []byte("districts: []\n"), 0o600))
	assert.Equal(t, http.StatusInternalServerError, reload().Code)
	assert.Len(t, districts(), 3, "a failed reload keeps the previous index")

	assert.Equal(t, http.StatusMethodNotAllowed, get(t, srv, "/v1/registry/reload").Code)
}
