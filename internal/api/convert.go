package api

import (
	"github.com/samber/lo"

	"github.com/campusconnect/campus-connect/internal/database"
	"github.com/campusconnect/campus-connect/internal/types"
)

func toUser(u database.User) types.User {
	return types.User{
		Id:        u.Id,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Avatar:    u.Avatar,
		IsOnline:  u.IsOnline,
		LastSeen:  u.LastSeen,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// toParticipant drops the fields other users should not see.
func toParticipant(u database.User) types.User {
	return types.User{
		Id:       u.Id,
		Name:     u.Name,
		Avatar:   u.Avatar,
		IsOnline: u.IsOnline,
		LastSeen: u.LastSeen,
	}
}

func toConversation(c database.Conversation) types.Conversation {
	return types.Conversation{
		Id:            c.Id,
		IsGroup:       c.IsGroup,
		GroupId:       c.GroupId.String,
		Participants:  lo.Map(c.Participants, func(u database.User, _ int) types.User { return toParticipant(u) }),
		LastMessageId: c.LastMessageId.String,
		LastMessageAt: c.LastMessageAt,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func toMessage(m database.Message) types.Message {
	readBy := m.ReadBy
	if readBy == nil {
		readBy = []string{}
	}

	return types.Message{
		Id:             m.Id,
		ConversationId: m.ConversationId,
		Sender: types.Sender{
			Id:     m.SenderId,
			Name:   m.SenderName,
			Avatar: m.SenderAvatar,
		},
		Content:     m.Content,
		MessageType: m.MessageType,
		FileUrl:     m.FileUrl,
		FileName:    m.FileName,
		ReadBy:      readBy,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
