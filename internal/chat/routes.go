package chat

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/ad-verify/internal/api"
	"github.com/ziadkadry99/ad-verify/internal/auth"
	"github.com/ziadkadry99/ad-verify/internal/verifier"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type chatRequest struct {
	Message string `json:"message"`
}

// wsFrame is a server-to-client websocket message.
type wsFrame struct {
	Type string `json:"type"`
	*Reply
	Error string `json:"error,omitempty"`
}

// RegisterRoutes mounts the request/response chat endpoints. They must sit
// behind auth.Middleware.
func RegisterRoutes(r chi.Router, bot *Bot) {
	r.Post("/api/chat/", handleChat(bot))
	r.Get("/api/chat-messages/", handleHistory(bot.store))
}

// RegisterWebSocket mounts GET /api/chat/ws. The connection is long-lived,
// so it must not sit behind a request timeout.
func RegisterWebSocket(r chi.Router, bot *Bot) {
	r.Get("/api/chat/ws", handleWebSocket(bot))
}

func handleChat(bot *Bot) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		var req chatRequest
		if err := api.Decode(w, r, &req); err != nil {
			api.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		reply, err := bot.HandleMessage(r.Context(), u.ID, req.Message)
		if err != nil {
			writeError(w, err)
			return
		}
		api.JSON(w, http.StatusOK, reply)
	}
}

func handleHistory(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		msgs, err := store.List(r.Context(), u.ID)
		if err != nil {
			log.Printf("chat: listing messages: %v", err)
			api.Error(w, http.StatusInternalServerError, "failed to list messages")
			return
		}
		api.JSON(w, http.StatusOK, msgs)
	}
}

// handleWebSocket serves the same conversation over a websocket. Each text
// frame {"message": "..."} is answered with a "reply" or "error" frame.
func handleWebSocket(bot *Bot) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.RequireUser(w, r)
		if !ok {
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("chat: websocket upgrade: %v", err)
			return
		}
		defer conn.Close()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("chat: websocket read: %v", err)
				}
				return
			}

			var req chatRequest
			if err := json.Unmarshal(data, &req); err != nil {
				if err := conn.WriteJSON(wsFrame{Type: "error", Error: "invalid message format"}); err != nil {
					return
				}
				continue
			}

			reply, err := bot.HandleMessage(r.Context(), u.ID, req.Message)
			frame := wsFrame{Type: "reply", Reply: reply}
			if err != nil {
				frame = wsFrame{Type: "error", Error: errorMessage(err)}
			}
			if err := conn.WriteJSON(frame); err != nil {
				log.Printf("chat: websocket write: %v", err)
				return
			}
		}
	}
}

func errorMessage(err error) string {
	if !errors.Is(err, ErrEmptyMessage) && verifier.StatusFor(err) == http.StatusInternalServerError {
		log.Printf("chat: %v", err)
		return "internal error"
	}
	return err.Error()
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrEmptyMessage) {
		api.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	verifier.WriteError(w, err)
}
