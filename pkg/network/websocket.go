package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/parlor/pelmanism/pkg/board"
	"github.com/parlor/pelmanism/pkg/log"
	"github.com/parlor/pelmanism/pkg/messages"
	"nhooyr.io/websocket"
)

// WSServer pushes a fresh board snapshot to connected clients on every
// committed board change.
type WSServer struct {
	port    int
	monitor *board.Monitor
}

type NewWSServerOptions struct {
	Port    int
	Monitor *board.Monitor
}

// NewWSServer creates a new WebSocket server.
func NewWSServer(opts NewWSServerOptions) *WSServer {
	return &WSServer{
		port:    opts.Port,
		monitor: opts.Monitor,
	}
}

// Start starts the WebSocket server.
func (s *WSServer) Start(ctx context.Context) {
	r := mux.NewRouter()
	r.HandleFunc("/ws/{playerID}", func(w http.ResponseWriter, req *http.Request) {
		playerID := mux.Vars(req)["playerID"]

		conn, err := websocket.Accept(w, req, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			log.Error("Failed to accept WebSocket connection: %v", err)
			return
		}
		log.Debug("New WebSocket connection for player %s", playerID)

		s.handleWSConnection(ctx, conn, playerID)
	})

	addr := fmt.Sprintf(":%d", s.port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()

	log.Info("WebSocket server listening on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			log.Info("WebSocket server closed")
			return
		}
		log.Error("WebSocket server error: %v", err)
	}
}

// handleWSConnection sends an initial snapshot and then one message per
// change round until the client goes away or the server stops.
func (s *WSServer) handleWSConnection(ctx context.Context, conn *websocket.Conn, playerID string) {
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	snapshot, err := s.monitor.Look(playerID)
	if err != nil {
		if writeErr := s.writeError(ctx, conn, playerID, err); writeErr != nil {
			log.Error("Failed to write error to player %s: %v", playerID, writeErr)
		}
		return
	}
	if err := s.writeSnapshot(ctx, conn, playerID, snapshot); err != nil {
		log.Trace("Connection closed for player %s: %v", playerID, err)
		return
	}

	for {
		// Re-register each round: a watch handle resolves exactly once.
		ch, err := s.monitor.Watch(playerID)
		if err != nil {
			log.Error("Failed to watch for player %s: %v", playerID, err)
			return
		}

		select {
		case snapshot := <-ch:
			if err := s.writeSnapshot(ctx, conn, playerID, snapshot); err != nil {
				log.Trace("Connection closed for player %s: %v", playerID, err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *WSServer) writeSnapshot(ctx context.Context, conn *websocket.Conn, playerID string, snapshot string) error {
	payload, err := json.Marshal(&messages.ServerSnapshot{Board: snapshot})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %v", err)
	}

	return s.write(ctx, conn, &messages.Message{
		PlayerID: playerID,
		Type:     messages.MessageTypeServerSnapshot,
		Payload:  payload,
	})
}

func (s *WSServer) writeError(ctx context.Context, conn *websocket.Conn, playerID string, opErr error) error {
	payload, err := json.Marshal(&messages.ServerError{
		Kind:   board.ErrKind(opErr),
		Reason: opErr.Error(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal error: %v", err)
	}

	return s.write(ctx, conn, &messages.Message{
		PlayerID: playerID,
		Type:     messages.MessageTypeServerError,
		Payload:  payload,
	})
}

func (s *WSServer) write(ctx context.Context, conn *websocket.Conn, msg *messages.Message) error {
	b, err := messages.SerializeMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to serialize message: %v", err)
	}

	if err := conn.Write(ctx, websocket.MessageBinary, b); err != nil {
		return fmt.Errorf("failed to write message to WebSocket connection: %v", err)
	}

	return nil
}
