package api

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/campusconnect/campus-connect/internal/database"
	"github.com/campusconnect/campus-connect/internal/types"
)

const defaultMessageLimit = 50

type CreateConversationRequest struct {
	UserId string `json:"user_id" validate:"required,uuid"`
}

type SendMessageRequest struct {
	ConversationId string `json:"conversation_id" validate:"required,uuid"`
	Content        string `json:"content" validate:"required,max=5000"`
	MessageType    string `json:"message_type" validate:"omitempty,oneof=text image file system"`
	FileUrl        string `json:"file_url" validate:"omitempty,url"`
	FileName       string `json:"file_name" validate:"max=255"`
}

func (s *App) listConversations(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	conversations, err := s.db.ListConversations(userId)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, lo.Map(conversations, func(c database.Conversation, _ int) types.Conversation {
		return toConversation(c)
	}))
}

func (s *App) getOrCreateConversation(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	var req CreateConversationRequest
	if errResp := s.decodeRequest(r, &req); errResp != nil {
		s.writeError(w, errResp)
		return
	}

	if req.UserId == userId {
		s.writeError(w, NewBadRequestError())
		return
	}

	if _, err := s.db.GetUserById(req.UserId); err != nil {
		s.writeError(w, dbError(err))
		return
	}

	conversation, err := s.db.GetOrCreateDirectConversation(userId, req.UserId)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, toConversation(conversation))
}

// sendMessage stores the message, then pushes it to the conversation's live
// subscribers and leaves a notification for every other participant. Push
// and notification failures never fail the request.
func (s *App) sendMessage(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	var req SendMessageRequest
	if errResp := s.decodeRequest(r, &req); errResp != nil {
		s.writeError(w, errResp)
		return
	}

	if errResp := s.checkParticipant(req.ConversationId, userId); errResp != nil {
		s.writeError(w, errResp)
		return
	}

	dbMsg, err := s.db.CreateMessage(database.CreateMessageParams{
		ConversationId: req.ConversationId,
		SenderId:       userId,
		Content:        req.Content,
		MessageType:    req.MessageType,
		FileUrl:        req.FileUrl,
		FileName:       req.FileName,
	})
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	msg := toMessage(dbMsg)
	if err := s.hub.PushMessage(msg.ConversationId, msg, userId); err != nil {
		s.log.Printf("push message %q: %v", msg.Id, err)
	}

	s.notifyParticipants(msg)

	s.writeJson(w, http.StatusCreated, msg)
}

func (s *App) notifyParticipants(msg types.Message) {
	if s.notifier == nil {
		return
	}

	conversation, err := s.db.GetConversation(msg.ConversationId)
	if err != nil {
		s.log.Printf("load participants of %q: %v", msg.ConversationId, err)
		return
	}

	for _, p := range conversation.Participants {
		if p.Id == msg.Sender.Id {
			continue
		}

		_, err := s.notifier.Create(database.CreateNotificationParams{
			RecipientId: p.Id,
			SenderId:    msg.Sender.Id,
			Type:        database.NotificationMessage,
			Message:     fmt.Sprintf("%s sent you a message", msg.Sender.Name),
			Link:        "/messages/" + msg.ConversationId,
		})
		if err != nil {
			s.log.Printf("notify %q of message %q: %v", p.Id, msg.Id, err)
		}
	}
}

func (s *App) getMessages(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	conversationId := r.PathValue("conversationId")
	if errResp := s.checkParticipant(conversationId, userId); errResp != nil {
		s.writeError(w, errResp)
		return
	}

	page, limit := pageParams(r, defaultMessageLimit)
	messages, total, err := s.db.GetMessages(conversationId, page, limit)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, types.MessagePage{
		Messages:   lo.Map(messages, func(m database.Message, _ int) types.Message { return toMessage(m) }),
		Pagination: types.NewPagination(page, limit, total),
	})
}

func (s *App) markMessagesRead(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	conversationId := r.PathValue("conversationId")
	if errResp := s.checkParticipant(conversationId, userId); errResp != nil {
		s.writeError(w, errResp)
		return
	}

	if err := s.db.MarkMessagesRead(conversationId, userId); err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// checkParticipant rejects malformed conversation ids and users outside
// the conversation.
func (s *App) checkParticipant(conversationId, userId string) *ApiError {
	if _, err := uuid.Parse(conversationId); err != nil {
		return NewBadRequestError()
	}

	ok, err := s.db.IsParticipant(conversationId, userId)
	if err != nil {
		return NewInternalServerError(err)
	}
	if !ok {
		return NewForbiddenError()
	}

	return nil
}
