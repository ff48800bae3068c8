package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lumacue/lumacue-core/internal/dmx"
	"github.com/lumacue/lumacue-core/internal/fixture"
	"github.com/lumacue/lumacue-core/internal/infrastructure/config"
	"github.com/lumacue/lumacue-core/internal/infrastructure/logging"
	"github.com/lumacue/lumacue-core/internal/player"
	"github.com/lumacue/lumacue-core/internal/show"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Logger   *logging.Logger
	Player   *player.Player
	Universe *dmx.Universe
	Fixtures fixture.Repository
	Registry *fixture.Registry
	Shows    show.Repository
	Version  string
}

// Server is the HTTP API server for the controller.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// Created with New, started with Start, stopped with Close.
type Server struct {
	cfg      config.APIConfig
	wsCfg    config.WebSocketConfig
	logger   *logging.Logger
	player   *player.Player
	universe *dmx.Universe
	fixtures fixture.Repository
	registry *fixture.Registry
	shows    show.Repository
	version  string

	server *http.Server
	hub    *Hub
	cancel context.CancelFunc
}

// New creates an API server with the given dependencies. The server is
// not started until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, errors.New("api: logger is required")
	}
	if deps.Player == nil {
		return nil, errors.New("api: player is required")
	}
	if deps.Universe == nil {
		return nil, errors.New("api: universe is required")
	}
	if deps.Fixtures == nil || deps.Shows == nil {
		return nil, errors.New("api: repositories are required")
	}

	return &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		logger:   deps.Logger,
		player:   deps.Player,
		universe: deps.Universe,
		fixtures: deps.Fixtures,
		registry: deps.Registry,
		shows:    deps.Shows,
		version:  deps.Version,
		hub:      NewHub(deps.WS, deps.Logger),
	}, nil
}

// Hub returns the WebSocket hub, for wiring into the player's status
// broadcasting before Start.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start begins listening for HTTP connections. The hub and the channel
// streaming loop run until Close.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)
	go s.streamChannels(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", "error", err)
		}
	}()

	s.logger.Info("api server started", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the server, waiting up to the shutdown
// timeout for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("api server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return errors.New("api server not started")
	}
	return nil
}
