package server

import (
	"net/http"
)

// Handler wires the HTTP surface: the JSON API, the websocket event stream,
// and static serving of generated report artifacts under /reports/.
func Handler(hub *Hub, store SessionStore, analyzer Analyzer, cfg APIConfig) http.Handler {
	mux := http.NewServeMux()

	registerWSRoute(mux, hub)
	registerAPIRoutes(mux, store, analyzer, cfg)

	if cfg.ReportsDir != "" {
		mux.Handle("GET /reports/", http.StripPrefix("/reports/", http.FileServer(http.Dir(cfg.ReportsDir))))
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return mux
}
