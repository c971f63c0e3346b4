package realtime

import "github.com/google/uuid"

const (
	groupChannelPrefix        = "group_"
	notificationChannelPrefix = "notifications_"
)

// ConversationChannel names the channel of a conversation. Conversation ids
// are UUIDs and are used as is; anything else is rejected so a client
// cannot name a group or notification channel.
func ConversationChannel(conversationId string) (string, bool) {
	if _, err := uuid.Parse(conversationId); err != nil {
		return "", false
	}
	return conversationId, true
}

func GroupChannel(groupId string) string {
	return groupChannelPrefix + groupId
}

func NotificationChannel(userId string) string {
	return notificationChannelPrefix + userId
}
