package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/parlor/pelmanism/pkg/board"
	"github.com/parlor/pelmanism/pkg/log"
	"github.com/parlor/pelmanism/pkg/queue"
	"github.com/parlor/pelmanism/pkg/sim"
)

// Transforms is the registry of named bulk transforms exposed over the
// map endpoint.
var Transforms = map[string]board.Transform{
	"upper": func(_ context.Context, value string) (string, error) {
		return strings.ToUpper(value), nil
	},
	"lower": func(_ context.Context, value string) (string, error) {
		return strings.ToLower(value), nil
	},
	"reverse": func(_ context.Context, value string) (string, error) {
		runes := []rune(value)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return string(runes), nil
	},
}

func HandleLook(monitor *board.Monitor, results queue.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := mux.Vars(r)["playerID"]

		start := time.Now()
		snapshot, err := monitor.Look(playerID)
		record(results, playerID, sim.OpLook, start, err)
		if err != nil {
			writeBoardError(w, err)
			return
		}
		writeSnapshot(w, snapshot)
	}
}

func HandleFlip(monitor *board.Monitor, results queue.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		playerID := vars["playerID"]

		row, err := strconv.Atoi(vars["row"])
		if err != nil {
			http.Error(w, "Malformed row", http.StatusBadRequest)
			return
		}
		col, err := strconv.Atoi(vars["col"])
		if err != nil {
			http.Error(w, "Malformed column", http.StatusBadRequest)
			return
		}

		start := time.Now()
		err = monitor.Flip(r.Context(), playerID, row, col)
		record(results, playerID, sim.OpFlip, start, err)
		if err != nil {
			writeBoardError(w, err)
			return
		}

		snapshot, err := monitor.Look(playerID)
		if err != nil {
			writeBoardError(w, err)
			return
		}
		writeSnapshot(w, snapshot)
	}
}

func HandleMap(monitor *board.Monitor, results queue.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		playerID := vars["playerID"]

		transform, ok := Transforms[vars["transform"]]
		if !ok {
			http.Error(w, "Unknown transform", http.StatusBadRequest)
			return
		}

		start := time.Now()
		snapshot, err := monitor.Map(r.Context(), playerID, transform)
		record(results, playerID, sim.OpMap, start, err)
		if err != nil {
			writeBoardError(w, err)
			return
		}
		writeSnapshot(w, snapshot)
	}
}

// HandleWatch long-polls: the response is written when the next board
// change commits. Closing the request cancels the wait.
func HandleWatch(monitor *board.Monitor, results queue.Queue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := mux.Vars(r)["playerID"]

		start := time.Now()
		ch, err := monitor.Watch(playerID)
		if err != nil {
			record(results, playerID, sim.OpWatch, start, err)
			writeBoardError(w, err)
			return
		}

		select {
		case snapshot := <-ch:
			record(results, playerID, sim.OpWatch, start, nil)
			writeSnapshot(w, snapshot)
		case <-r.Context().Done():
			// The handle is abandoned; the notifier's send still
			// succeeds because the channel is buffered.
		}
	}
}

// record forwards one operation result to the stats queue, when one is
// configured.
func record(results queue.Queue, playerID, op string, start time.Time, err error) {
	if results == nil {
		return
	}
	res := sim.OpResult{
		Timestamp: start.UnixMilli(),
		PlayerID:  playerID,
		Op:        op,
		Duration:  time.Since(start),
		ErrKind:   board.ErrKind(err),
	}
	if qErr := results.Enqueue(res); qErr != nil {
		log.Warn("Failed to enqueue op result: %v", qErr)
	}
}

func writeSnapshot(w http.ResponseWriter, snapshot string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(snapshot)); err != nil {
		log.Error("failed to write snapshot: %v", err)
	}
}

// writeBoardError maps board error kinds onto HTTP statuses.
func writeBoardError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case board.IsInvalidArgument(err), board.IsOutOfBounds(err):
		status = http.StatusBadRequest
	case board.IsNoCardAtLocation(err):
		status = http.StatusNotFound
	case board.IsSecondCardContested(err):
		status = http.StatusConflict
	case board.IsCardRemovedDuringWait(err):
		status = http.StatusGone
	case board.IsAcquireTimeout(err):
		status = http.StatusRequestTimeout
	default:
		status = http.StatusInternalServerError
	}
	http.Error(w, err.Error(), status)
}
