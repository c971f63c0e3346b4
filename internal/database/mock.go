package database

import (
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockRepository) Close() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockRepository) CreateUser(params CreateUserParams) (User, error) {
	args := m.Called(params)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) GetUserById(id string) (User, error) {
	args := m.Called(id)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) GetUserByEmail(email string) (User, error) {
	args := m.Called(email)
	return args.Get(0).(User), args.Error(1)
}
func (m *MockRepository) SetUserOnline(id string, online bool) error {
	args := m.Called(id, online)
	return args.Error(0)
}
func (m *MockRepository) GetOrCreateDirectConversation(userId, peerId string) (Conversation, error) {
	args := m.Called(userId, peerId)
	return args.Get(0).(Conversation), args.Error(1)
}
func (m *MockRepository) GetConversation(id string) (Conversation, error) {
	args := m.Called(id)
	return args.Get(0).(Conversation), args.Error(1)
}
func (m *MockRepository) ListConversations(userId string) ([]Conversation, error) {
	args := m.Called(userId)
	return args.Get(0).([]Conversation), args.Error(1)
}
func (m *MockRepository) IsParticipant(conversationId, userId string) (bool, error) {
	args := m.Called(conversationId, userId)
	return args.Bool(0), args.Error(1)
}
func (m *MockRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	args := m.Called(params)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockRepository) GetMessages(conversationId string, page, limit int) ([]Message, int, error) {
	args := m.Called(conversationId, page, limit)
	return args.Get(0).([]Message), args.Int(1), args.Error(2)
}
func (m *MockRepository) MarkMessagesRead(conversationId, userId string) error {
	args := m.Called(conversationId, userId)
	return args.Error(0)
}
func (m *MockRepository) CreateNotification(params CreateNotificationParams) (Notification, error) {
	args := m.Called(params)
	return args.Get(0).(Notification), args.Error(1)
}
func (m *MockRepository) ListNotifications(recipientId string, page, limit int) ([]Notification, error) {
	args := m.Called(recipientId, page, limit)
	return args.Get(0).([]Notification), args.Error(1)
}
func (m *MockRepository) CountNotifications(recipientId string, unreadOnly bool) (int, error) {
	args := m.Called(recipientId, unreadOnly)
	return args.Int(0), args.Error(1)
}
func (m *MockRepository) MarkNotificationRead(id, recipientId string) error {
	args := m.Called(id, recipientId)
	return args.Error(0)
}
func (m *MockRepository) MarkAllNotificationsRead(recipientId string) error {
	args := m.Called(recipientId)
	return args.Error(0)
}
func (m *MockRepository) DeleteNotification(id, recipientId string) error {
	args := m.Called(id, recipientId)
	return args.Error(0)
}
