package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func NewServer(port int, handler *Handler) *Server {

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stats", handler.getStats)
	mux.HandleFunc("GET /api/jobs/all", handler.getAllJobs)
	mux.HandleFunc("GET /api/jobs/{source}", handler.getJobsBySource)
	mux.HandleFunc("GET /api/scraper/status", handler.getScraperStatus)
	mux.HandleFunc("GET /api/scraper/can-run", handler.getCanRun)
	mux.HandleFunc("GET /api/scraper/trigger/{source}", handler.triggerScraper)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Start() {
	go func() {
		log.Infof("api server listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("api server stopped: %v", err)
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
