package database

import (
	"database/sql"
	"time"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeFile   = "file"
	MessageTypeSystem = "system"
)

const (
	NotificationLike        = "like"
	NotificationComment     = "comment"
	NotificationFollow      = "follow"
	NotificationGroupInvite = "group_invite"
	NotificationGroupJoin   = "group_join"
	NotificationMessage     = "message"
	NotificationMention     = "mention"
	NotificationOpportunity = "opportunity"
	NotificationBadge       = "badge"
	NotificationSystem      = "system"
)

type User struct {
	Id           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Avatar       string
	IsOnline     bool
	LastSeen     time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Conversation struct {
	Id            string
	IsGroup       bool
	GroupId       sql.NullString
	LastMessageId sql.NullString
	LastMessageAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Participants  []User
}

type Message struct {
	Id             string
	ConversationId string
	SenderId       string
	SenderName     string
	SenderAvatar   string
	Content        string
	MessageType    string
	FileUrl        string
	FileName       string
	ReadBy         []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Notification struct {
	Id           string
	RecipientId  string
	SenderId     sql.NullString
	SenderName   sql.NullString
	SenderAvatar sql.NullString
	Type         string
	Message      string
	Link         string
	IsRead       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	Role         string
}

type CreateMessageParams struct {
	ConversationId string
	SenderId       string
	Content        string
	MessageType    string
	FileUrl        string
	FileName       string
}

type CreateNotificationParams struct {
	RecipientId string
	SenderId    string
	Type        string
	Message     string
	Link        string
}
