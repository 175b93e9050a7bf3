package radardist

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DynamicDevices/radar-distance/internal/ports"
)

func newTestServer(t *testing.T) (*Monitor, *httptest.Server) {
	t.Helper()
	epoch := time.Now()
	fs := &fakeSource{}
	m := newTestMonitor(t, epoch, fs)

	fs.emit(epoch.Add(time.Second), "1 0.452")
	stepUntil(t, m, epoch.Add(2*time.Second), func(s Snapshot) bool {
		return len(s.Sources["bench-1"].Series) == 1
	})

	srv := httptest.NewServer(m.handler())
	t.Cleanup(srv.Close)
	return m, srv
}

func TestSnapshotEndpoint(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/snapshot")
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected application/json, got %s", ct)
	}

	var snap Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	view, ok := snap.Sources["bench-1"]
	if !ok {
		t.Fatalf("expected bench-1 in snapshot, got %+v", snap.Sources)
	}
	if len(view.Series) != 1 || view.Series[0].Distance != 0.452 {
		t.Fatalf("unexpected series: %+v", view.Series)
	}
	if view.Status != StateConnected {
		t.Fatalf("expected connected status, got %s", view.Status)
	}
}

func TestFreezeEndpoints(t *testing.T) {
	m, srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/freeze", "", nil)
	if err != nil {
		t.Fatalf("post freeze: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	m.step(time.Now())
	if !m.GetSnapshot().Frozen {
		t.Fatal("expected frozen after freeze request and tick")
	}

	resp, err = http.Post(srv.URL+"/api/unfreeze", "", nil)
	if err != nil {
		t.Fatalf("post unfreeze: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	m.step(time.Now())
	if m.GetSnapshot().Frozen {
		t.Fatal("expected unfrozen after unfreeze request and tick")
	}
}

func TestViewportEndpoints(t *testing.T) {
	m, srv := newTestServer(t)
	client := srv.Client()

	// No viewport yet.
	resp, err := http.Get(srv.URL + "/api/viewport")
	if err != nil {
		t.Fatalf("get viewport: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 before any viewport, got %d", resp.StatusCode)
	}

	put := func(body string) *http.Response {
		t.Helper()
		req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/viewport", strings.NewReader(body))
		if err != nil {
			t.Fatalf("build request: %v", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("put viewport: %v", err)
		}
		return resp
	}

	resp = put(`{"start": 20, "duration": 15}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	vp, ok := m.CurrentViewport()
	if !ok || vp.Start != 20 || vp.Duration != 15 {
		t.Fatalf("unexpected stored viewport: %+v ok=%v", vp, ok)
	}

	resp, err = http.Get(srv.URL + "/api/viewport")
	if err != nil {
		t.Fatalf("get viewport: %v", err)
	}
	var got Viewport
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode viewport: %v", err)
	}
	resp.Body.Close()
	if got != vp {
		t.Fatalf("expected %+v, got %+v", vp, got)
	}

	for _, bad := range []string{`{"start": 0, "duration": 0}`, `not json`} {
		resp = put(bad)
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for %q, got %d", bad, resp.StatusCode)
		}
	}
}

func TestHealthz(t *testing.T) {
	_, srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

var _ ports.StreamSource = (*fakeSource)(nil)
