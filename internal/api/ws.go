package api

import (
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/campusconnect/campus-connect/internal/realtime"
)

func (s *App) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		// non-browser clients send no origin
		return true
	}

	return slices.Contains(s.allowedOrigins, origin)
}

func (s *App) serveWs(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	user, err := s.db.GetUserById(userId)
	if err != nil {
		s.writeError(w, dbError(err))
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: s.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client, err := realtime.NewClient(toParticipant(user), conn, s.hub, s.log)
	if err != nil {
		s.log.Println("create client:", err)
		conn.Close()
		return
	}

	if err := s.hub.RegisterClient(client); err != nil {
		s.log.Println("register client:", err)
		conn.Close()
		return
	}

	go client.Write()
	go client.Read()
}
