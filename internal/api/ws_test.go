package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/campusconnect/campus-connect/internal/database"
	"github.com/campusconnect/campus-connect/internal/realtime"
	"github.com/campusconnect/campus-connect/internal/stats"
	"github.com/campusconnect/campus-connect/internal/testutil"
	"github.com/campusconnect/campus-connect/internal/types"
)

type wsFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func newRunningHub(t *testing.T) *realtime.Hub {
	hub := realtime.NewHub(testutil.TestLogger(t), stats.NewStatsUpdater(http.NewServeMux()))
	go hub.Run()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		hub.Shutdown(ctx)
	})
	return hub
}

func dialWs(t *testing.T, app *App, srv *httptest.Server, userId, origin string) (*websocket.Conn, *http.Response, error) {
	header := http.Header{}
	if userId != "" {
		token, err := app.createJwtForSession(userId)
		require.NoError(t, err)
		header.Set("Authorization", "Bearer "+token)
	}
	if origin != "" {
		header.Set("Origin", origin)
	}

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if conn != nil {
		t.Cleanup(func() { conn.Close() })
	}
	return conn, resp, err
}

func sendFrame(t *testing.T, conn *websocket.Conn, event string, data any) {
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(wsFrame{Event: event, Data: raw}))
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f wsFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestServeWs_Handshake(t *testing.T) {
	tcases := []struct {
		name       string
		userId     string
		origin     string
		statusCode int
	}{
		{name: "unauthenticated", statusCode: http.StatusUnauthorized},
		{name: "foreign origin", userId: userTwo, origin: "http://evil.example", statusCode: http.StatusForbidden},
		{name: "allowed origin", userId: userTwo, origin: "http://localhost:5173", statusCode: http.StatusSwitchingProtocols},
		{name: "no origin", userId: userTwo, statusCode: http.StatusSwitchingProtocols},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &database.MockRepository{}
			if tc.userId != "" {
				repo.On("GetUserById", tc.userId).Return(testUser(tc.userId, "Grace"), nil).Once()
			}

			app := newTestApp(t, repo, newRunningHub(t))
			srv := httptest.NewServer(app.Handler())
			defer srv.Close()

			_, resp, err := dialWs(t, app, srv, tc.userId, tc.origin)
			require.NotNil(t, resp)
			assert.Equal(t, tc.statusCode, resp.StatusCode)
			if tc.statusCode == http.StatusSwitchingProtocols {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, websocket.ErrBadHandshake)
			}
		})
	}
}

// A message sent over REST by one user reaches the other participant's
// socket, followed by the notification stored for them.
func TestSendMessage_LivePush(t *testing.T) {
	now := time.Now().UTC()
	repo := &database.MockRepository{}
	repo.On("GetUserById", userTwo).Return(testUser(userTwo, "Grace"), nil).Once()
	repo.On("IsParticipant", conversation, userOne).Return(true, nil).Once()
	repo.On("CreateMessage", mock.Anything).Return(database.Message{
		Id:             "0190f3a1-7c2e-7a10-8b00-0000000000e1",
		ConversationId: conversation,
		SenderId:       userOne,
		SenderName:     "Ada",
		Content:        "hi",
		MessageType:    database.MessageTypeText,
		ReadBy:         []string{userOne},
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil).Once()
	repo.On("GetConversation", conversation).Return(database.Conversation{
		Id:           conversation,
		Participants: []database.User{testUser(userOne, "Ada"), testUser(userTwo, "Grace")},
	}, nil).Once()
	repo.On("CreateNotification", mock.Anything).Return(database.Notification{
		Id:          notification,
		RecipientId: userTwo,
		Type:        database.NotificationMessage,
		Message:     "Ada sent you a message",
	}, nil).Once()

	app := newTestApp(t, repo, newRunningHub(t))
	srv := httptest.NewServer(app.Handler())
	defer srv.Close()

	conn, _, err := dialWs(t, app, srv, userTwo, "")
	require.NoError(t, err)
	sendFrame(t, conn, realtime.EventJoinRoom, conversation)
	sendFrame(t, conn, realtime.EventJoinNotifications, userTwo)
	sendFrame(t, conn, realtime.EventUserOnline, userTwo)

	f := readFrame(t, conn)
	require.Equal(t, realtime.EventOnlineUsers, f.Event)
	assert.JSONEq(t, `["`+userTwo+`"]`, string(f.Data))

	rr := serve(t, app, http.MethodGet, "/api/users/online", nil, userOne)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"users":["`+userTwo+`"]}`, rr.Body.String())

	rr = serve(t, app, http.MethodPost, "/api/messages",
		jsonBody(t, SendMessageRequest{ConversationId: conversation, Content: "hi"}), userOne)
	require.Equal(t, http.StatusCreated, rr.Code)

	f = readFrame(t, conn)
	require.Equal(t, realtime.EventReceiveMessage, f.Event)
	var msg types.Message
	require.NoError(t, json.Unmarshal(f.Data, &msg))
	assert.Equal(t, "hi", msg.Content)
	assert.Equal(t, "Ada", msg.Sender.Name)

	f = readFrame(t, conn)
	require.Equal(t, realtime.EventNewNotification, f.Event)
	var n types.Notification
	require.NoError(t, json.Unmarshal(f.Data, &n))
	assert.Equal(t, notification, n.Id)

	repo.AssertExpectations(t)
}
