package http_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/coverage"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
)

// lineLog is a ~1 km east-west pass at latitude -21.175.
const lineLog = "-21.175,-48.450\n-21.175,-48.455\n-21.175,-48.460\n"

// targetsJSON is a ~660 m square centred on the pass.
const targetsJSON = `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"name":"Talhão 7"},"geometry":{"type":"Polygon","coordinates":[[[-48.458,-21.178],[-48.452,-21.178],[-48.452,-21.172],[-48.458,-21.172],[-48.458,-21.178]]]}}]}`

func (f *fixture) openWorkOrder(id string, status domain.WorkOrderStatus) {
	f.orders.orders[id] = &domain.WorkOrder{ID: id, FarmID: "farm-1", AircraftID: "a1", Status: status}
}

func completedApplication(t *testing.T) *domain.Application {
	t.Helper()
	out := coverage.Run(coverage.Input{
		Log:              []byte(lineLog),
		SwathWidthMeters: 20,
		Targets: []orb.Geometry{orb.Polygon{{
			{-48.458, -21.178}, {-48.452, -21.178}, {-48.452, -21.172}, {-48.458, -21.172}, {-48.458, -21.178},
		}}},
	})
	if !out.OK() {
		t.Fatalf("fixture run failed: %+v", out.Failure)
	}
	now := time.Now()
	return &domain.Application{
		ID:          "app-done",
		WorkOrderID: "wo-1",
		Status:      domain.ApplicationCompleted,
		Source:      domain.SourceGPSLog,
		Coverage:    out.Result,
		SubmittedAt: now,
		ProcessedAt: &now,
	}
}

// ---- Flight log submission ----

func TestSubmitFlightLog_Accepted(t *testing.T) {
	f := newFixture()
	f.openWorkOrder("wo-1", domain.WorkOrderPlanned)
	app := setupApp(f.deps())

	req := httptest.NewRequest("POST", "/v1/work-orders/wo-1/flight-logs", strings.NewReader(lineLog))
	req.Header.Set("Content-Type", "text/csv")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 202 {
		t.Fatalf("expected 202, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var got domain.Application
	json.NewDecoder(resp.Body).Decode(&got)
	if got.Status != domain.ApplicationProcessing {
		t.Errorf("expected %q, got %q", domain.ApplicationProcessing, got.Status)
	}
	if loc := resp.Header.Get("Location"); loc != "/v1/applications/"+got.ID {
		t.Errorf("unexpected Location %q", loc)
	}
	if len(f.dispatcher.ids) != 1 || f.dispatcher.ids[0] != got.ID {
		t.Errorf("expected application %s dispatched, got %v", got.ID, f.dispatcher.ids)
	}
	if s := f.orders.orders["wo-1"].Status; s != domain.WorkOrderRunning {
		t.Errorf("expected work order %q, got %q", domain.WorkOrderRunning, s)
	}
	if stored := f.apps.apps[got.ID]; stored == nil || string(stored.Log) != lineLog {
		t.Error("expected the raw log to be stored")
	}
}

func TestSubmitFlightLog_Multipart(t *testing.T) {
	f := newFixture()
	f.openWorkOrder("wo-1", domain.WorkOrderPlanned)
	app := setupApp(f.deps())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("log", "voo.csv")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(lineLog))
	mw.Close()

	req := httptest.NewRequest("POST", "/v1/work-orders/wo-1/flight-logs", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 202 {
		t.Fatalf("expected 202, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	if len(f.dispatcher.ids) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(f.dispatcher.ids))
	}
	if stored := f.apps.apps[f.dispatcher.ids[0]]; string(stored.Log) != lineLog {
		t.Errorf("unexpected stored log %q", stored.Log)
	}
}

func multipartLog(t *testing.T, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("log", "voo.csv")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte(content))
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestSubmitFlightLog_TooLarge(t *testing.T) {
	f := newFixture()
	f.openWorkOrder("wo-1", domain.WorkOrderPlanned)
	deps := f.deps()
	deps.MaxLogBytes = int64(len(lineLog))
	app := setupApp(deps)

	// One byte over the cap is rejected whole, never truncated.
	body, ct := multipartLog(t, lineLog+"\n")
	req := httptest.NewRequest("POST", "/v1/work-orders/wo-1/flight-logs", body)
	req.Header.Set("Content-Type", ct)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 413 {
		t.Fatalf("expected 413, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	if code := errorCode(t, resp.Body); code != "payload_too_large" {
		t.Errorf("expected payload_too_large, got %q", code)
	}

	req = httptest.NewRequest("POST", "/v1/work-orders/wo-1/flight-logs", strings.NewReader(lineLog+"\n"))
	req.Header.Set("Content-Type", "text/csv")
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 413 {
		t.Fatalf("expected 413 for raw body, got %d", resp.StatusCode)
	}
	if len(f.dispatcher.ids) != 0 || len(f.apps.apps) != 0 {
		t.Fatalf("oversized log must not be stored, got %d applications", len(f.apps.apps))
	}

	// Exactly at the cap is accepted in full.
	body, ct = multipartLog(t, lineLog)
	req = httptest.NewRequest("POST", "/v1/work-orders/wo-1/flight-logs", body)
	req.Header.Set("Content-Type", ct)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 202 {
		t.Fatalf("expected 202 at the cap, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	if stored := f.apps.apps[f.dispatcher.ids[0]]; string(stored.Log) != lineLog {
		t.Errorf("unexpected stored log %q", stored.Log)
	}
}

func TestSubmitFlightLog_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   domain.WorkOrderStatus
		path     string
		body     string
		wantCode int
	}{
		{"empty log", domain.WorkOrderPlanned, "/v1/work-orders/wo-1/flight-logs", "", 400},
		{"unknown work order", domain.WorkOrderPlanned, "/v1/work-orders/missing/flight-logs", lineLog, 404},
		{"completed work order", domain.WorkOrderCompleted, "/v1/work-orders/wo-1/flight-logs", lineLog, 409},
		{"cancelled work order", domain.WorkOrderCancelled, "/v1/work-orders/wo-1/flight-logs", lineLog, 409},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.openWorkOrder("wo-1", tt.status)
			app := setupApp(f.deps())

			req := httptest.NewRequest("POST", tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "text/csv")
			resp, _ := app.Test(req, -1)
			if resp.StatusCode != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, resp.StatusCode)
			}
			if len(f.dispatcher.ids) != 0 {
				t.Errorf("nothing should be dispatched, got %v", f.dispatcher.ids)
			}
		})
	}
}

// ---- Legacy process-log endpoint ----

func TestProcessLog_PolylineIsDeprecated(t *testing.T) {
	f := newFixture()
	f.openWorkOrder("wo-1", domain.WorkOrderPlanned)
	app := setupApp(f.deps())

	encoded := coverage.EncodePolyline(orb.LineString{{-48.450, -21.175}, {-48.460, -21.175}})
	body, _ := json.Marshal(map[string]string{"polyline": encoded})
	req := httptest.NewRequest("POST", "/v1/work-orders/wo-1/process-log", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 202 {
		t.Fatalf("expected 202, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	if resp.Header.Get("Deprecation") != "true" {
		t.Error("expected Deprecation header")
	}
	if resp.Header.Get("Sunset") == "" {
		t.Error("expected Sunset header")
	}
	if !strings.Contains(resp.Header.Get("Link"), "flight-logs") {
		t.Errorf("expected successor link, got %q", resp.Header.Get("Link"))
	}

	var got domain.Application
	json.NewDecoder(resp.Body).Decode(&got)
	if got.Source != domain.SourcePolyline {
		t.Errorf("expected source %q, got %q", domain.SourcePolyline, got.Source)
	}
}

func TestProcessLog_GeoJSONFlightPath(t *testing.T) {
	f := newFixture()
	f.openWorkOrder("wo-1", domain.WorkOrderPlanned)
	app := setupApp(f.deps())

	body := `{"flightPath":{"type":"LineString","coordinates":[[-48.450,-21.175],[-48.455,-21.175],[-48.460,-21.175]]}}`
	req := httptest.NewRequest("POST", "/v1/work-orders/wo-1/process-log", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 202 {
		t.Fatalf("expected 202, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
}

func TestProcessLog_MissingTrack(t *testing.T) {
	f := newFixture()
	f.openWorkOrder("wo-1", domain.WorkOrderPlanned)
	app := setupApp(f.deps())

	req := httptest.NewRequest("POST", "/v1/work-orders/wo-1/process-log", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- Application results ----

func TestApplicationGeoJSON(t *testing.T) {
	f := newFixture()
	f.apps.apps["app-done"] = completedApplication(t)
	f.apps.apps["app-busy"] = &domain.Application{ID: "app-busy", Status: domain.ApplicationProcessing}
	f.apps.apps["app-failed"] = &domain.Application{
		ID:      "app-failed",
		Status:  domain.ApplicationFailed,
		Failure: &coverage.Failure{Kind: coverage.KindInsufficientLogData, Stage: "path", Message: "need at least 2 points"},
	}
	app := setupApp(f.deps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/applications/app-done/geojson", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("unexpected Content-Type %q", ct)
	}
	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	json.NewDecoder(resp.Body).Decode(&fc)
	layers := map[string]bool{}
	for _, feat := range fc.Features {
		layers[feat.Properties["layer"].(string)] = true
	}
	for _, l := range []string{coverage.LayerFlightPath, coverage.LayerPlanned, coverage.LayerApplied, coverage.LayerCorrect} {
		if !layers[l] {
			t.Errorf("missing layer %s in %v", l, layers)
		}
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/applications/app-busy/geojson", nil), -1)
	if resp.StatusCode != 409 {
		t.Errorf("processing: expected 409, got %d", resp.StatusCode)
	}
	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/applications/app-failed/geojson", nil), -1)
	if resp.StatusCode != 422 {
		t.Errorf("failed: expected 422, got %d", resp.StatusCode)
	}
	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/applications/nope/geojson", nil), -1)
	if resp.StatusCode != 404 {
		t.Errorf("unknown: expected 404, got %d", resp.StatusCode)
	}
}

func TestApplicationKML(t *testing.T) {
	f := newFixture()
	f.apps.apps["app-done"] = completedApplication(t)
	app := setupApp(f.deps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/applications/app-done/kml", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/vnd.google-earth.kml+xml" {
		t.Errorf("unexpected Content-Type %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "aplicacao-app-done.kml") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
	if body := readBody(t, resp.Body); !bytes.Contains(body, []byte("<Placemark>")) {
		t.Error("expected placemarks in KML")
	}
}

func TestApplicationFlightPath(t *testing.T) {
	f := newFixture()
	done := completedApplication(t)
	f.apps.apps["app-done"] = done
	app := setupApp(f.deps())

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/applications/app-done/flight-path", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var got struct {
		Polyline   string `json:"polyline"`
		PointCount int    `json:"point_count"`
	}
	json.NewDecoder(resp.Body).Decode(&got)
	if got.PointCount != 3 {
		t.Errorf("expected 3 points, got %d", got.PointCount)
	}
	pts, err := coverage.PointsFromPolyline(got.Polyline)
	if err != nil || len(pts) != 3 {
		t.Errorf("polyline does not decode to the path: %v %v", pts, err)
	}
}

// ---- Stateless preview ----

func TestCoveragePreview_Success(t *testing.T) {
	app := setupApp(newFixture().deps())

	body, _ := json.Marshal(map[string]any{
		"log":         lineLog,
		"swath_width": 20,
		"targets":     json.RawMessage(targetsJSON),
	})
	req := httptest.NewRequest("POST", "/v1/coverage/preview", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var out coverage.Outcome
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Status != coverage.StatusCompleted || out.Result == nil {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if out.Result.CoveragePercent <= 0 || out.Result.CoveragePercent >= 100 {
		t.Errorf("expected partial coverage, got %.2f%%", out.Result.CoveragePercent)
	}
}

func TestCoveragePreview_Failures(t *testing.T) {
	tests := []struct {
		name     string
		body     map[string]any
		wantKind coverage.Kind
	}{
		{"single point", map[string]any{"log": "-21.175,-48.450\n", "swath_width": 20, "targets": json.RawMessage(targetsJSON)}, coverage.KindInsufficientLogData},
		{"no targets", map[string]any{"log": lineLog, "swath_width": 20}, coverage.KindNoTargetGeometry},
		{"zero swath", map[string]any{"log": lineLog, "swath_width": 0, "targets": json.RawMessage(targetsJSON)}, coverage.KindInvalidParameter},
	}

	app := setupApp(newFixture().deps())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, _ := json.Marshal(tt.body)
			req := httptest.NewRequest("POST", "/v1/coverage/preview", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			resp, _ := app.Test(req, -1)
			if resp.StatusCode != 422 {
				t.Fatalf("expected 422, got %d", resp.StatusCode)
			}
			var out coverage.Outcome
			json.NewDecoder(resp.Body).Decode(&out)
			if out.Failure == nil || out.Failure.Kind != tt.wantKind {
				t.Errorf("expected failure %s, got %+v", tt.wantKind, out.Failure)
			}
			if out.Status != coverage.StatusFailed {
				t.Errorf("expected status %q, got %q", coverage.StatusFailed, out.Status)
			}
		})
	}
}

// ---- Retry ----

func TestRetryApplication(t *testing.T) {
	f := newFixture()
	f.openWorkOrder("wo-1", domain.WorkOrderPlanned)
	f.apps.apps["app-stuck"] = &domain.Application{
		ID: "app-stuck", WorkOrderID: "wo-1", Status: domain.ApplicationProcessing,
		Source: domain.SourceGPSLog, Log: []byte(lineLog), SubmittedAt: time.Now(),
	}
	f.apps.apps["app-done"] = completedApplication(t)
	app := setupApp(f.deps())

	resp, _ := app.Test(httptest.NewRequest("POST", "/v1/applications/app-stuck/retry", nil), -1)
	if resp.StatusCode != 202 {
		t.Fatalf("expected 202, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	if len(f.dispatcher.ids) != 1 || f.dispatcher.ids[0] != "app-stuck" {
		t.Errorf("expected app-stuck dispatched, got %v", f.dispatcher.ids)
	}
	if s := f.orders.orders["wo-1"].Status; s != domain.WorkOrderRunning {
		t.Errorf("expected work order %q, got %q", domain.WorkOrderRunning, s)
	}

	tests := []struct {
		id   string
		want int
	}{
		{"app-done", 409},
		{"missing", 404},
	}
	for _, tt := range tests {
		resp, _ := app.Test(httptest.NewRequest("POST", "/v1/applications/"+tt.id+"/retry", nil), -1)
		if resp.StatusCode != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.id, tt.want, resp.StatusCode)
		}
	}
}

func TestCacheControl_StoredResultIsImmutable(t *testing.T) {
	f := newFixture()
	f.apps.apps["app-done"] = completedApplication(t)
	f.apps.apps["app-busy"] = &domain.Application{ID: "app-busy", WorkOrderID: "wo-1", Status: domain.ApplicationProcessing}
	app := setupApp(f.deps())

	for _, path := range []string{"/v1/applications/app-done/geojson", "/v1/applications/app-done/flight-path"} {
		resp, _ := app.Test(httptest.NewRequest("GET", path, nil), -1)
		if cc := resp.Header.Get("Cache-Control"); cc != "private, max-age=86400, immutable" {
			t.Errorf("%s: handler Cache-Control was overridden, got %q", path, cc)
		}
	}

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/applications/app-busy/geojson", nil), -1)
	if resp.StatusCode != 409 {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "private, no-cache" {
		t.Errorf("pending application: unexpected Cache-Control %q", cc)
	}
}
