package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/campusconnect/campus-connect/internal/database"
	"github.com/campusconnect/campus-connect/internal/notify"
	"github.com/campusconnect/campus-connect/internal/types"
)

const defaultNotificationLimit = 20

type CreateNotificationRequest struct {
	RecipientId string `json:"recipient_id" validate:"required,uuid"`
	Type        string `json:"type" validate:"omitempty,oneof=like comment follow group_invite group_join message mention opportunity badge system"`
	Message     string `json:"message" validate:"required,max=500"`
	Link        string `json:"link" validate:"max=500"`
}

func (s *App) listNotifications(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	page, limit := pageParams(r, defaultNotificationLimit)
	notifications, err := s.db.ListNotifications(userId, page, limit)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	total, err := s.db.CountNotifications(userId, false)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	unread, err := s.db.CountNotifications(userId, true)
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusOK, types.NotificationPage{
		Notifications: lo.Map(notifications, func(n database.Notification, _ int) types.Notification {
			return notify.Notification(n)
		}),
		UnreadCount: unread,
		Pagination:  types.NewPagination(page, limit, total),
	})
}

func (s *App) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	if err := s.db.MarkAllNotificationsRead(userId); err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *App) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	s.mutateNotification(w, r, s.db.MarkNotificationRead)
}

func (s *App) deleteNotification(w http.ResponseWriter, r *http.Request) {
	s.mutateNotification(w, r, s.db.DeleteNotification)
}

// mutateNotification applies fn to the notification named in the path.
// Notifications of other users are reported as not found.
func (s *App) mutateNotification(w http.ResponseWriter, r *http.Request, fn func(id, recipientId string) error) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		s.writeError(w, NewBadRequestError())
		return
	}

	if err := fn(id, userId); err != nil {
		s.writeError(w, dbError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *App) createNotification(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		s.writeError(w, NewUnauthorizedError())
		return
	}

	var req CreateNotificationRequest
	if errResp := s.decodeRequest(r, &req); errResp != nil {
		s.writeError(w, errResp)
		return
	}

	if _, err := s.db.GetUserById(req.RecipientId); err != nil {
		s.writeError(w, dbError(err))
		return
	}

	if req.Type == "" {
		req.Type = database.NotificationSystem
	}

	n, err := s.notifier.Create(database.CreateNotificationParams{
		RecipientId: req.RecipientId,
		SenderId:    userId,
		Type:        req.Type,
		Message:     req.Message,
		Link:        req.Link,
	})
	if err != nil {
		s.writeError(w, NewInternalServerError(err))
		return
	}

	s.writeJson(w, http.StatusCreated, n)
}
