package radardist

import (
	"encoding/json"
	"errors"
	"net/http"

	gmux "github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// handler builds the snapshot API router. Factored out of startServers so
// tests can mount it on httptest servers.
func (m *Monitor) handler() http.Handler {
	r := gmux.NewRouter()
	r.HandleFunc("/api/snapshot", m.handleSnapshot).Methods(http.MethodGet)
	r.HandleFunc("/api/freeze", m.handleFreeze).Methods(http.MethodPost)
	r.HandleFunc("/api/unfreeze", m.handleUnfreeze).Methods(http.MethodPost)
	r.HandleFunc("/api/viewport", m.handleGetViewport).Methods(http.MethodGet)
	r.HandleFunc("/api/viewport", m.handlePutViewport).Methods(http.MethodPut)
	r.HandleFunc("/healthz", handleHealthz).Methods(http.MethodGet)
	return r
}

func (m *Monitor) startServers() {
	m.httpSrv = &http.Server{
		Addr:    m.cfg.HTTP.Addr,
		Handler: m.handler(),
	}
	go func() {
		if err := m.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.obs.LogError("api_server_exited", err)
		}
	}()

	metrics := http.NewServeMux()
	metrics.Handle("/metrics", promhttp.Handler())
	metrics.HandleFunc("/healthz", handleHealthz)
	m.metricsSrv = &http.Server{
		Addr:    m.cfg.Metrics.Addr,
		Handler: metrics,
	}
	go func() {
		if err := m.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.obs.LogError("metrics_server_exited", err)
		}
	}()
}

func (m *Monitor) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, m.GetSnapshot())
}

func (m *Monitor) handleFreeze(w http.ResponseWriter, r *http.Request) {
	m.Freeze()
	w.WriteHeader(http.StatusNoContent)
}

func (m *Monitor) handleUnfreeze(w http.ResponseWriter, r *http.Request) {
	m.Unfreeze()
	w.WriteHeader(http.StatusNoContent)
}

func (m *Monitor) handleGetViewport(w http.ResponseWriter, r *http.Request) {
	vp, ok := m.CurrentViewport()
	if !ok {
		http.Error(w, "no viewport set", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, vp)
}

func (m *Monitor) handlePutViewport(w http.ResponseWriter, r *http.Request) {
	var vp Viewport
	if err := json.NewDecoder(r.Body).Decode(&vp); err != nil {
		http.Error(w, "invalid viewport: "+err.Error(), http.StatusBadRequest)
		return
	}
	if vp.Duration <= 0 {
		http.Error(w, "viewport duration must be positive", http.StatusBadRequest)
		return
	}
	m.SetViewport(vp)
	writeJSON(w, http.StatusOK, vp)
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
