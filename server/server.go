// Package server hosts the HTTP server for the memoir service.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/lifetales/lifetales/internal/profile"
	apiv1 "github.com/lifetales/lifetales/server/router/api/v1"
	"github.com/lifetales/lifetales/store"
)

// Server wires the echo server, the store, and the v1 API together.
type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	apiV1      *apiv1.APIV1Service
}

// NewServer creates the server and mounts all routes.
func NewServer(ctx context.Context, prof *profile.Profile, st *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			slog.Debug("http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status)
			return nil
		},
	}))

	if err := st.Migrate(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to migrate store")
	}

	apiV1 := apiv1.NewAPIV1Service(prof, st)
	apiV1.Register(e)
	apiV1.RegisterHealth(e)

	return &Server{
		Profile:    prof,
		Store:      st,
		echoServer: e,
		apiV1:      apiV1,
	}, nil
}

// Start begins serving. It blocks until the listener fails or the server
// is shut down.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started",
		"address", address,
		"mode", s.Profile.Mode,
		"driver", s.Profile.Driver,
		"version", s.Profile.Version)

	if err := s.echoServer.Start(address); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "failed to start server")
	}
	return nil
}

// Shutdown drains in-flight requests and closes services and the store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shut down server gracefully", "error", err)
	}
	s.apiV1.Close()
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("server stopped")
}
