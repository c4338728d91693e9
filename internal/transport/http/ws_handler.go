package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"lectio-quiz-service/internal/app"
	"lectio-quiz-service/internal/domain"
)

// WSHandler streams profile snapshots to connected clients so streak
// and point changes show up without polling.
type WSHandler struct {
	quiz     *app.QuizService
	events   *app.ProfileEvents
	upgrader websocket.Upgrader
}

func NewWSHandler(quiz *app.QuizService, events *app.ProfileEvents) *WSHandler {
	return &WSHandler{
		quiz:   quiz,
		events: events,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage struct {
	Type    string         `json:"type"`
	Payload domain.Profile `json:"payload"`
}

// ServeWS upgrades the connection and pushes the current profile
// followed by every persisted update until the client disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("accountId")
	if accountID == "" {
		accountID = r.Header.Get(accountHeader)
	}
	if accountID == "" {
		http.Error(w, "missing accountId", http.StatusBadRequest)
		return
	}

	snapshot, err := h.quiz.GetProfile(r.Context(), accountID)
	if err != nil {
		http.Error(w, "profile not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.events.Subscribe(accountID)
	defer cancel()

	send := make(chan outboundMessage, 16)
	writerDone := make(chan struct{})
	readerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	// The read loop exists to notice the client going away; inbound
	// payloads are ignored.
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send <- outboundMessage{Type: "profile", Payload: snapshot}

loop:
	for {
		select {
		case update, ok := <-updates:
			if !ok {
				break loop
			}
			select {
			case send <- outboundMessage{Type: "profile", Payload: update}:
			case <-writerDone:
				break loop
			case <-readerDone:
				break loop
			}
		case <-writerDone:
			break loop
		case <-readerDone:
			break loop
		}
	}

	close(send)
	<-writerDone
}
