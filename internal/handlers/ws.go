package handlers

import (
	"iter"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vancomm/maze-server/internal/game"
)

func byPiece(s string, sep string) iter.Seq2[int, string] {
	return func(yield func(int, string) bool) {
		i := 0
		found := true
		var piece string
		for found {
			piece, s, found = strings.Cut(s, sep)
			if !yield(i, piece) {
				return
			}
			i += 1
		}
	}
}

// Connect plays a round over a websocket. Every tick_interval the server
// advances the round clock by one second and pushes the state while the round
// is running; each client command (s, u, d, l, r, g; one per line) is
// answered with the state after it.
func (h *MazeHandler) Connect(w http.ResponseWriter, r *http.Request) {
	round, ok := h.round(w, r)
	if !ok {
		return
	}

	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Error("upgrade")
		return
	}
	defer c.Close()

	log := h.log.WithField("round", round.ID)
	log.Debug("websocket connected")

	quit := make(chan struct{})
	defer close(quit)

	commands := make(chan string)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			mt, message, err := c.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.WithError(err).Warn("read")
				}
				return
			}
			if mt != websocket.TextMessage {
				continue
			}
			for _, piece := range byPiece(strings.TrimSpace(string(message)), "\n") {
				select {
				case commands <- piece:
				case <-quit:
					return
				}
			}
		}
	}()

	send := func(v any) bool {
		if err := c.WriteJSON(v); err != nil {
			log.WithError(err).Warn("write")
			return false
		}
		return true
	}

	if !send(h.state(round, round.Snapshot(), "")) {
		return
	}

	ticker := time.NewTicker(h.tick)
	defer ticker.Stop()

	for {
		select {
		case <-readerDone:
			log.Debug("websocket disconnected")
			return
		case <-r.Context().Done():
			c.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case <-ticker.C:
			var running bool
			snap, finished := round.Update(h.now(), func(s *game.Session) {
				running = s.Status() == game.Playing
				s.Tick(1)
			})
			if finished {
				h.record(r.Context(), round, snap)
			}
			if running && !send(h.state(round, snap, "")) {
				return
			}
		case cmd := <-commands:
			var (
				result game.MoveResult
				isMove bool
				cmdErr error
			)
			snap, finished := round.Update(h.now(), func(s *game.Session) {
				result, isMove, cmdErr = executeCommand(s, cmd)
			})
			if cmdErr != nil {
				if !send(wrapError(cmdErr)) {
					return
				}
				continue
			}
			if finished {
				h.record(r.Context(), round, snap)
			}
			label := ""
			if isMove {
				label = result.String()
			}
			if !send(h.state(round, snap, label)) {
				return
			}
		}
	}
}
