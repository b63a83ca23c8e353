// Package remote exposes a running player over HTTP: MIDI and parameter
// changes are queued to the player, and the devices of the mix can be
// inspected.
package remote

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/vsariola/groove/player"
)

// Server is the HTTP remote. It only talks to the player through the
// broker and never blocks on a full queue.
type Server struct {
	broker  *player.Broker
	router  *chi.Mux
	logger  *slog.Logger
	timeout time.Duration
}

// New creates a remote for the player listening on broker. Queries that
// need an answer from the player give up after timeout.
func New(broker *player.Broker, logger *slog.Logger, timeout time.Duration) *Server {
	s := &Server{
		broker:  broker,
		router:  chi.NewRouter(),
		logger:  logger,
		timeout: timeout,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/devices", s.handleDevices)
	r.Post("/midi/{channel}", s.handleMIDI)
	r.Post("/control/{uid}/{param}", s.handleControl)
	r.Post("/play", s.handleTransport(player.PlayMsg{Playing: true}))
	r.Post("/stop", s.handleTransport(player.PlayMsg{Playing: false}))
	r.Post("/rewind", s.handleTransport(player.RewindMsg{}))
}

func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down remote")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("shutdown error", slog.Any("error", err))
		}
		close(done)
	}()
	s.logger.Info("remote listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-done
	return nil
}
