package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/parlor/pelmanism/pkg/api/handlers"
	"github.com/parlor/pelmanism/pkg/api/middleware"
	"github.com/parlor/pelmanism/pkg/board"
	"github.com/parlor/pelmanism/pkg/log"
	"github.com/parlor/pelmanism/pkg/queue"
)

type APIServer struct {
	server *http.Server
}

type NewAPIServerOptions struct {
	Port    int
	Monitor *board.Monitor
	// ResultQueue optionally receives an OpResult per handled
	// operation for the stats worker. Nil disables it.
	ResultQueue queue.Queue
}

// NewRouter builds the route table for the board operations.
func NewRouter(opts NewAPIServerOptions) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.NewLoggingMiddleware())

	r.HandleFunc("/look/{playerID}", handlers.HandleLook(opts.Monitor, opts.ResultQueue)).Methods(http.MethodGet)
	r.HandleFunc("/flip/{playerID}/{row:[0-9]+},{col:[0-9]+}", handlers.HandleFlip(opts.Monitor, opts.ResultQueue)).Methods(http.MethodPost)
	r.HandleFunc("/map/{playerID}/{transform}", handlers.HandleMap(opts.Monitor, opts.ResultQueue)).Methods(http.MethodPost)
	r.HandleFunc("/watch/{playerID}", handlers.HandleWatch(opts.Monitor, opts.ResultQueue)).Methods(http.MethodGet)

	return r
}

// NewAPIServer creates a new http.Server exposing the board operations.
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: NewRouter(opts),
	}
	return &APIServer{
		server: server,
	}
}

// Start starts the APIServer
func (s *APIServer) Start() {
	log.Info("API server listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("API server closed")
			return
		}
		log.Error("API server error: %v", err)
	}
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
