package app

import (
	"encoding/json"
	"fmt"
	"net/http"

	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// healthHandler answers liveness probes.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// configHandler dumps the effective registry as JSON, one entry per
// switch. Runtime-mutable switches reflect their live values, so the dump
// shows, for example, truncate_io_addresses flipping after a Windows _OSI
// query.
func (a *App) configHandler(w http.ResponseWriter, r *http.Request) {
	snapshot := a.cfg.Snapshot()
	out := make(map[string]json.RawMessage, len(snapshot))
	for name, val := range snapshot {
		raw, err := ctyjson.Marshal(val, val.Type())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		out[name] = raw
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		a.logger.Error("Writing configuration dump failed", "error", err)
	}
}

// startDiagServer initializes and runs the diagnostics HTTP server.
func (a *App) startDiagServer(port int) {
	a.logger.Debug("Configuring diagnostics server.")
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.HandleFunc("/config", a.configHandler)

	addr := fmt.Sprintf(":%d", port)

	go func() {
		a.logger.Info("Diagnostics server starting", "address", fmt.Sprintf("http://localhost%s/config", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			a.logger.Error("Diagnostics server failed", "error", err)
		}
	}()
}
