// Package adminapi exposes operational HTTP endpoints over the router's
// session table and the blob staging collaborator, grounded on the
// teacher's internal/api/server.go gorilla/mux wiring (CORS middleware,
// HandleFunc().Methods(), JSON responses).
package adminapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dhag/Py.HagLib.Socket/internal/blobstore"
	"github.com/dhag/Py.HagLib.Socket/internal/protocol"
)

// Server is the admin HTTP surface: health, metrics, session inspection,
// and blob upload. It never touches the frame router or callback hub
// directly — only the session table (read-only) and the blob store.
type Server struct {
	sessions *protocol.SessionManager
	blobs    *blobstore.Store
	logger   *slog.Logger
}

// New builds an admin Server. blobs may be nil if blob upload is not
// wired for this deployment.
func New(sessions *protocol.SessionManager, blobs *blobstore.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{sessions: sessions, blobs: blobs, logger: logger}
}

// Router builds the gorilla/mux router for this admin surface.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/sessions", s.handleSessions).Methods(http.MethodGet)
	r.HandleFunc("/blobs", s.handleBlobUpload).Methods(http.MethodPost)
	r.HandleFunc("/blobs/{id}", s.handleBlobInfo).Methods(http.MethodGet)

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type sessionView struct {
	ID      uint64 `json:"id"`
	UserID  uint32 `json:"user_id"`
	GroupID uint32 `json:"group_id"`
	Name    string `json:"name"`
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions := s.sessions.SnapshotAll()
	out := make([]sessionView, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, sessionView{ID: sess.ID, UserID: sess.UserID, GroupID: sess.GroupID, Name: sess.Name})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (s *Server) handleBlobUpload(w http.ResponseWriter, r *http.Request) {
	if s.blobs == nil {
		http.Error(w, "blob staging not enabled", http.StatusNotImplemented)
		return
	}
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = "upload.bin"
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, err := s.blobs.Stage(filename, data)
	if err != nil {
		s.logger.Error("blob stage failed", "error", err)
		http.Error(w, "staging failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"id": id})
}

func (s *Server) handleBlobInfo(w http.ResponseWriter, r *http.Request) {
	if s.blobs == nil {
		http.Error(w, "blob staging not enabled", http.StatusNotImplemented)
		return
	}
	id := mux.Vars(r)["id"]
	info, err := s.blobs.Info(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}
