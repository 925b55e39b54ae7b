package main

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// StartAdmin serves a read-only HTTP view of the registry for operators.
// The UDP protocol is unaffected; everything here comes from Snapshot.
func StartAdmin(addr string, reg *Registry, log *zap.SugaredLogger) *http.Server {
	srv := &http.Server{Addr: addr, Handler: newAdminRouter(reg, log)}
	go func() {
		log.Infow("admin endpoint listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorw("admin endpoint stopped", "err", err)
		}
	}()
	return srv
}

func newAdminRouter(reg *Registry, log *zap.SugaredLogger) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/status", func(w http.ResponseWriter, _ *http.Request) {
		peers, catalog := reg.Snapshot()
		files := 0
		for _, names := range catalog {
			files += len(names)
		}
		writeJSON(w, log, map[string]int{
			"active_peers":    len(peers),
			"published_files": files,
		})
	}).Methods(http.MethodGet)

	r.HandleFunc("/peers", func(w http.ResponseWriter, _ *http.Request) {
		peers, _ := reg.Snapshot()
		writeJSON(w, log, peers)
	}).Methods(http.MethodGet)

	r.HandleFunc("/files", func(w http.ResponseWriter, _ *http.Request) {
		_, catalog := reg.Snapshot()
		writeJSON(w, log, catalog)
	}).Methods(http.MethodGet)

	return r
}

func writeJSON(w http.ResponseWriter, log *zap.SugaredLogger, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnw("encode admin response", "err", err)
	}
}
