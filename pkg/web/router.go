package web

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/nergy-se/hitemp/pkg/app"
	"github.com/sirupsen/logrus"
)

type Server struct {
	app    *app.App
	router *mux.Router
}

func New(a *app.App) *Server {
	s := &Server{
		app:    a,
		router: mux.NewRouter(),
	}

	r := s.router
	r.HandleFunc("/health", s.health).Methods("GET")
	r.HandleFunc("/api/version", s.version).Methods("GET")
	r.HandleFunc("/api/params", s.listParams).Methods("GET")
	r.HandleFunc("/api/alarms", s.alarms).Methods("GET")
	r.HandleFunc("/api/devices", s.listDevices).Methods("GET")
	r.HandleFunc("/api/devices/{device}", s.getDevice).Methods("GET")
	r.HandleFunc("/api/devices/{device}/params/{code}", s.getParam).Methods("GET")
	r.HandleFunc("/api/devices/{device}/params/{code}", s.writeParam).Methods("PUT")
	r.HandleFunc("/api/devices/{device}/controls/{kind}", s.getControl).Methods("GET")
	r.HandleFunc("/api/devices/{device}/controls/{kind}", s.enableControl).Methods("PUT")
	r.HandleFunc("/api/devices/{device}/controls/{kind}", s.disableControl).Methods("DELETE")
	r.Handle("/metrics", a.Metrics().Handler()).Methods("GET")
	return s
}

// Mount serves h below prefix.
func (s *Server) Mount(prefix string, h http.Handler) {
	s.router.PathPrefix(prefix).Handler(h)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start serves on addr until ctx is done.
func (s *Server) Start(ctx context.Context, wg *sync.WaitGroup, addr string) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		logrus.Infof("web: listening on %s", addr)
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Errorf("web: %s", err)
		}
	}()
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if err != nil {
			logrus.Errorf("web: shutdown: %s", err)
		}
	}()
}
