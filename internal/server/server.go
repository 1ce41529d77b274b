// Package server exposes the procurement workflow over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/procurely/rfp-pilot/internal/logger"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	http   *http.Server
	logger *zap.Logger
}

func New(addr string, h *Handler, log *zap.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           Router(h),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.OrNop(log),
	}
}

// Router builds the API route tree for the given handler.
func Router(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.Ping)

		r.Post("/generate/rfp", h.GenerateRfp)
		r.Post("/submit/rfp", h.SubmitRfp)
		r.Get("/rfp/list", h.ListRfps)
		r.Get("/getrfp/{id}", h.GetRfp)
		r.Delete("/rfp/{id}", h.DeleteRfp)

		r.Post("/create/vendor", h.CreateVendor)
		r.Get("/list/vendor", h.ListVendors)
		r.Delete("/vendor/{id}", h.DeleteVendor)

		r.Post("/rfp/{id}/invite-vendors", h.InviteVendors)
		r.Post("/rfp/{rfpId}/vendor/{vendorId}/proposal", h.SubmitProposal)
	})

	return r
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
