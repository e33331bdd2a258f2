package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"commoners/pkg/logging"

	"github.com/gorilla/mux"
)

// StaticServer serves a built web output directory.
type StaticServer struct {
	dir      string
	listener net.Listener
	srv      *http.Server
}

// NewStaticServer listens on localhost:port. Port 0 picks a free port.
func NewStaticServer(dir string, port int) (*StaticServer, error) {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("output directory %s not found; run build first", dir)
	}
	l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return nil, fmt.Errorf("listening on port %d: %w", port, err)
	}
	s := &StaticServer{dir: dir, listener: l}
	s.srv = &http.Server{Handler: s.Router(), ReadHeaderTimeout: 5 * time.Second}
	return s, nil
}

// Router returns the HTTP routes of the server.
func (s *StaticServer) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(logRequests)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods("GET")
	router.PathPrefix("/").Handler(spaHandler{dir: s.dir}).Methods("GET", "HEAD")
	return router
}

// URL returns the address the server listens on.
func (s *StaticServer) URL() string {
	return "http://" + s.listener.Addr().String()
}

// Serve blocks until ctx is cancelled.
func (s *StaticServer) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(s.listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

// spaHandler serves files from dir and falls back to index.html for paths
// that do not exist, so client side routes resolve.
type spaHandler struct {
	dir string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clean := path.Clean("/" + r.URL.Path)
	p := filepath.Join(h.dir, filepath.FromSlash(strings.TrimPrefix(clean, "/")))
	if info, err := os.Stat(p); err != nil || info.IsDir() && !hasIndex(p) {
		http.ServeFile(w, r, filepath.Join(h.dir, "index.html"))
		return
	}
	http.FileServer(http.Dir(h.dir)).ServeHTTP(w, r)
}

func hasIndex(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, "index.html"))
	return err == nil
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.Debug("Launch", "%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
