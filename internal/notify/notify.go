package notify

import (
	"fmt"
	"log"

	"github.com/campusconnect/campus-connect/internal/database"
	"github.com/campusconnect/campus-connect/internal/types"
)

// Pusher delivers a notification to the live connections of its recipient.
type Pusher interface {
	PushNotification(recipientId string, notification any) error
}

// Emitter pushes notifications that are already stored. Delivery is best
// effort: failures are logged and never returned.
type Emitter struct {
	log    *log.Logger
	pusher Pusher
}

func NewEmitter(logger *log.Logger, pusher Pusher) *Emitter {
	return &Emitter{log: logger, pusher: pusher}
}

func (e *Emitter) Emit(n types.Notification) {
	if e == nil || e.pusher == nil {
		return
	}

	if err := e.pusher.PushNotification(n.RecipientId, n); err != nil {
		e.log.Printf("emit notification %q to %q: %v", n.Id, n.RecipientId, err)
	}
}

// Service creates notifications durably and then emits them.
type Service struct {
	repo    database.Repository
	emitter *Emitter
}

func NewService(repo database.Repository, emitter *Emitter) *Service {
	return &Service{repo: repo, emitter: emitter}
}

// Create stores the notification and emits it once the write has
// succeeded. The stored record is returned whatever happens to the push.
func (s *Service) Create(params database.CreateNotificationParams) (types.Notification, error) {
	dbNotification, err := s.repo.CreateNotification(params)
	if err != nil {
		return types.Notification{}, fmt.Errorf("create notification: %w", err)
	}

	n := Notification(dbNotification)
	s.emitter.Emit(n)

	return n, nil
}

// Notification converts a stored notification to its API form.
func Notification(n database.Notification) types.Notification {
	var sender *types.Sender
	if n.SenderId.Valid {
		sender = &types.Sender{
			Id:     n.SenderId.String,
			Name:   n.SenderName.String,
			Avatar: n.SenderAvatar.String,
		}
	}

	return types.Notification{
		Id:          n.Id,
		RecipientId: n.RecipientId,
		Sender:      sender,
		Type:        n.Type,
		Message:     n.Message,
		Link:        n.Link,
		IsRead:      n.IsRead,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}
