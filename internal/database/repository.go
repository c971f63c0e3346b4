package database

type Repository interface {
	Ping() error
	Close() error

	CreateUser(params CreateUserParams) (User, error)
	GetUserById(id string) (User, error)
	GetUserByEmail(email string) (User, error)
	SetUserOnline(id string, online bool) error

	GetOrCreateDirectConversation(userId, peerId string) (Conversation, error)
	GetConversation(id string) (Conversation, error)
	ListConversations(userId string) ([]Conversation, error)
	IsParticipant(conversationId, userId string) (bool, error)

	CreateMessage(params CreateMessageParams) (Message, error)
	GetMessages(conversationId string, page, limit int) ([]Message, int, error)
	MarkMessagesRead(conversationId, userId string) error

	CreateNotification(params CreateNotificationParams) (Notification, error)
	ListNotifications(recipientId string, page, limit int) ([]Notification, error)
	CountNotifications(recipientId string, unreadOnly bool) (int, error)
	MarkNotificationRead(id, recipientId string) error
	MarkAllNotificationsRead(recipientId string) error
	DeleteNotification(id, recipientId string) error
}
