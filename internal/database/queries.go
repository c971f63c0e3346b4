package database

import (
	"database/sql"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/lib/pq"
	"github.com/samber/lo"
)

const (
	selectUserColumns = "SELECT id, name, email, password_hash, role, avatar, is_online, last_seen, created_at, updated_at FROM users "

	selectConversationColumns = "SELECT c.id, c.is_group, c.group_id, c.last_message_id, c.last_message_at, c.created_at, c.updated_at FROM conversations c "

	selectNotificationColumns = "SELECT n.id, n.recipient_id, n.sender_id, u.name, u.avatar, n.type, n.message, n.link, n.is_read, n.created_at, n.updated_at " +
		"FROM notifications n LEFT JOIN users u ON u.id = n.sender_id "

	insertParticipantQuery = "INSERT INTO conversation_participants (conversation_id, user_id, joined_at) VALUES ($1, $2, $3)"

	directPairLockQuery = "SELECT pg_advisory_xact_lock(hashtext($1))"
)

// directPairKey is the same for (a, b) and (b, a).
func directPairKey(userId, peerId string) string {
	if peerId < userId {
		userId, peerId = peerId, userId
	}
	return userId + ":" + peerId
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(
		&u.Id,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.Avatar,
		&u.IsOnline,
		&u.LastSeen,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func scanConversation(row rowScanner) (Conversation, error) {
	var c Conversation
	err := row.Scan(
		&c.Id,
		&c.IsGroup,
		&c.GroupId,
		&c.LastMessageId,
		&c.LastMessageAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

func scanNotification(row rowScanner) (Notification, error) {
	var n Notification
	err := row.Scan(
		&n.Id,
		&n.RecipientId,
		&n.SenderId,
		&n.SenderName,
		&n.SenderAvatar,
		&n.Type,
		&n.Message,
		&n.Link,
		&n.IsRead,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	return n, err
}

// expectAffected turns an update or delete that matched nothing into
// sql.ErrNoRows.
func expectAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}

	return nil
}

func offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	if limit > 0 && page > math.MaxInt/limit {
		page = math.MaxInt / limit
	}
	return (page - 1) * limit
}

func (db *PgRepository) CreateUser(params CreateUserParams) (User, error) {
	id, err := newId()
	if err != nil {
		return User{}, err
	}

	role := params.Role
	if role == "" {
		role = RoleStudent
	}

	now := time.Now().UTC()
	row := db.conn.QueryRow(
		"INSERT INTO users (id, name, email, password_hash, role, last_seen, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $6, $6) "+
			"RETURNING id, name, email, password_hash, role, avatar, is_online, last_seen, created_at, updated_at",
		id,
		params.Name,
		params.Email,
		params.PasswordHash,
		role,
		now,
	)

	return scanUser(row)
}

func (db *PgRepository) GetUserById(id string) (User, error) {
	return scanUser(db.conn.QueryRow(selectUserColumns+"WHERE id = $1 LIMIT 1", id))
}

func (db *PgRepository) GetUserByEmail(email string) (User, error) {
	return scanUser(db.conn.QueryRow(selectUserColumns+"WHERE email = $1 LIMIT 1", email))
}

func (db *PgRepository) SetUserOnline(id string, online bool) error {
	return expectAffected(db.conn.Exec(
		"UPDATE users SET is_online = $2, last_seen = $3, updated_at = $3 WHERE id = $1",
		id,
		online,
		time.Now().UTC(),
	))
}

func (db *PgRepository) GetOrCreateDirectConversation(userId, peerId string) (Conversation, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Conversation{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	// serialize get-or-create per pair; the lock is released on commit or rollback
	if _, err = tx.Exec(directPairLockQuery, directPairKey(userId, peerId)); err != nil {
		return Conversation{}, fmt.Errorf("lock conversation pair: %w", err)
	}

	var conversationId string
	err = tx.QueryRow(
		"SELECT c.id FROM conversations c "+
			"WHERE c.is_group = FALSE "+
			"AND EXISTS (SELECT 1 FROM conversation_participants p WHERE p.conversation_id = c.id AND p.user_id = $1) "+
			"AND EXISTS (SELECT 1 FROM conversation_participants p WHERE p.conversation_id = c.id AND p.user_id = $2) "+
			"AND (SELECT COUNT(*) FROM conversation_participants p WHERE p.conversation_id = c.id) = 2 "+
			"LIMIT 1",
		userId,
		peerId,
	).Scan(&conversationId)

	switch {
	case err == sql.ErrNoRows:
		conversationId, err = newId()
		if err != nil {
			return Conversation{}, err
		}

		now := time.Now().UTC()
		_, err = tx.Exec(
			"INSERT INTO conversations (id, is_group, last_message_at, created_at, updated_at) VALUES ($1, FALSE, $2, $2, $2)",
			conversationId,
			now,
		)
		if err != nil {
			return Conversation{}, err
		}

		for _, participant := range []string{userId, peerId} {
			if _, err = tx.Exec(insertParticipantQuery, conversationId, participant, now); err != nil {
				return Conversation{}, err
			}
		}
	case err != nil:
		return Conversation{}, err
	}

	if err = tx.Commit(); err != nil {
		return Conversation{}, err
	}

	return db.GetConversation(conversationId)
}

func (db *PgRepository) GetConversation(id string) (Conversation, error) {
	c, err := scanConversation(db.conn.QueryRow(selectConversationColumns+"WHERE c.id = $1 LIMIT 1", id))
	if err != nil {
		return Conversation{}, err
	}

	participants, err := db.loadParticipants([]string{c.Id})
	if err != nil {
		return Conversation{}, err
	}
	c.Participants = participants[c.Id]

	return c, nil
}

func (db *PgRepository) ListConversations(userId string) ([]Conversation, error) {
	rows, err := db.conn.Query(
		selectConversationColumns+
			"JOIN conversation_participants cp ON cp.conversation_id = c.id "+
			"WHERE cp.user_id = $1 ORDER BY c.last_message_at DESC",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	conversations := make([]Conversation, 0)
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		conversations = append(conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if len(conversations) == 0 {
		return conversations, nil
	}

	participants, err := db.loadParticipants(lo.Map(conversations, func(c Conversation, _ int) string {
		return c.Id
	}))
	if err != nil {
		return nil, err
	}

	for i := range conversations {
		conversations[i].Participants = participants[conversations[i].Id]
	}

	return conversations, nil
}

func (db *PgRepository) loadParticipants(conversationIds []string) (map[string][]User, error) {
	rows, err := db.conn.Query(
		"SELECT cp.conversation_id, u.id, u.name, u.avatar, u.is_online, u.last_seen "+
			"FROM conversation_participants cp JOIN users u ON u.id = cp.user_id "+
			"WHERE cp.conversation_id = ANY($1) ORDER BY cp.joined_at",
		pq.Array(conversationIds),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make(map[string][]User)
	for rows.Next() {
		var (
			conversationId string
			u              User
		)
		if err := rows.Scan(&conversationId, &u.Id, &u.Name, &u.Avatar, &u.IsOnline, &u.LastSeen); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		participants[conversationId] = append(participants[conversationId], u)
	}

	return participants, rows.Err()
}

func (db *PgRepository) IsParticipant(conversationId, userId string) (bool, error) {
	var exists bool
	err := db.conn.QueryRow(
		"SELECT EXISTS (SELECT 1 FROM conversation_participants WHERE conversation_id = $1 AND user_id = $2)",
		conversationId,
		userId,
	).Scan(&exists)

	return exists, err
}

// CreateMessage stores the message, marks it read by its sender and moves
// the conversation's last message pointer in a single transaction.
func (db *PgRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	id, err := newId()
	if err != nil {
		return Message{}, err
	}

	messageType := params.MessageType
	if messageType == "" {
		messageType = MessageTypeText
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return Message{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	_, err = tx.Exec(
		"INSERT INTO messages (id, conversation_id, sender_id, content, message_type, file_url, file_name, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)",
		id,
		params.ConversationId,
		params.SenderId,
		params.Content,
		messageType,
		params.FileUrl,
		params.FileName,
		now,
	)
	if err != nil {
		return Message{}, err
	}

	_, err = tx.Exec(
		"INSERT INTO message_reads (message_id, user_id, read_at) VALUES ($1, $2, $3)",
		id,
		params.SenderId,
		now,
	)
	if err != nil {
		return Message{}, err
	}

	_, err = tx.Exec(
		"UPDATE conversations SET last_message_id = $2, last_message_at = $3, updated_at = $3 WHERE id = $1",
		params.ConversationId,
		id,
		now,
	)
	if err != nil {
		return Message{}, err
	}

	msg := Message{
		Id:             id,
		ConversationId: params.ConversationId,
		SenderId:       params.SenderId,
		Content:        params.Content,
		MessageType:    messageType,
		FileUrl:        params.FileUrl,
		FileName:       params.FileName,
		ReadBy:         []string{params.SenderId},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err = tx.QueryRow("SELECT name, avatar FROM users WHERE id = $1", params.SenderId).
		Scan(&msg.SenderName, &msg.SenderAvatar)
	if err != nil {
		return Message{}, err
	}

	if err = tx.Commit(); err != nil {
		return Message{}, err
	}

	return msg, nil
}

// GetMessages returns one page of a conversation counted from the newest
// message, ordered oldest first, along with the conversation's total.
func (db *PgRepository) GetMessages(conversationId string, page, limit int) ([]Message, int, error) {
	var total int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM messages WHERE conversation_id = $1", conversationId).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := db.conn.Query(
		"SELECT m.id, m.conversation_id, m.sender_id, u.name, u.avatar, m.content, m.message_type, m.file_url, m.file_name, "+
			"COALESCE(array_agg(r.user_id::text) FILTER (WHERE r.user_id IS NOT NULL), '{}'::text[]), m.created_at, m.updated_at "+
			"FROM messages m JOIN users u ON u.id = m.sender_id "+
			"LEFT JOIN message_reads r ON r.message_id = m.id "+
			"WHERE m.conversation_id = $1 "+
			"GROUP BY m.id, u.name, u.avatar "+
			"ORDER BY m.created_at DESC, m.id DESC LIMIT $2 OFFSET $3",
		conversationId,
		limit,
		offset(page, limit),
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	messages := make([]Message, 0, limit)
	for rows.Next() {
		var msg Message
		err := rows.Scan(
			&msg.Id,
			&msg.ConversationId,
			&msg.SenderId,
			&msg.SenderName,
			&msg.SenderAvatar,
			&msg.Content,
			&msg.MessageType,
			&msg.FileUrl,
			&msg.FileName,
			pq.Array(&msg.ReadBy),
			&msg.CreatedAt,
			&msg.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("rows error: %w", err)
	}

	slices.Reverse(messages)
	return messages, total, nil
}

func (db *PgRepository) MarkMessagesRead(conversationId, userId string) error {
	_, err := db.conn.Exec(
		"INSERT INTO message_reads (message_id, user_id, read_at) "+
			"SELECT id, $2, $3 FROM messages WHERE conversation_id = $1 "+
			"ON CONFLICT DO NOTHING",
		conversationId,
		userId,
		time.Now().UTC(),
	)

	return err
}

func (db *PgRepository) CreateNotification(params CreateNotificationParams) (Notification, error) {
	id, err := newId()
	if err != nil {
		return Notification{}, err
	}

	senderId := sql.NullString{String: params.SenderId, Valid: params.SenderId != ""}
	row := db.conn.QueryRow(
		"WITH n AS ("+
			"INSERT INTO notifications (id, recipient_id, sender_id, type, message, link, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $7) "+
			"RETURNING id, recipient_id, sender_id, type, message, link, is_read, created_at, updated_at) "+
			"SELECT n.id, n.recipient_id, n.sender_id, u.name, u.avatar, n.type, n.message, n.link, n.is_read, n.created_at, n.updated_at "+
			"FROM n LEFT JOIN users u ON u.id = n.sender_id",
		id,
		params.RecipientId,
		senderId,
		params.Type,
		params.Message,
		params.Link,
		time.Now().UTC(),
	)

	return scanNotification(row)
}

func (db *PgRepository) ListNotifications(recipientId string, page, limit int) ([]Notification, error) {
	rows, err := db.conn.Query(
		selectNotificationColumns+
			"WHERE n.recipient_id = $1 ORDER BY n.created_at DESC, n.id DESC LIMIT $2 OFFSET $3",
		recipientId,
		limit,
		offset(page, limit),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]Notification, 0, limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

func (db *PgRepository) CountNotifications(recipientId string, unreadOnly bool) (int, error) {
	query := "SELECT COUNT(*) FROM notifications WHERE recipient_id = $1"
	if unreadOnly {
		query += " AND is_read = FALSE"
	}

	var count int
	err := db.conn.QueryRow(query, recipientId).Scan(&count)
	return count, err
}

func (db *PgRepository) MarkNotificationRead(id, recipientId string) error {
	return expectAffected(db.conn.Exec(
		"UPDATE notifications SET is_read = TRUE, updated_at = $3 WHERE id = $1 AND recipient_id = $2",
		id,
		recipientId,
		time.Now().UTC(),
	))
}

func (db *PgRepository) MarkAllNotificationsRead(recipientId string) error {
	_, err := db.conn.Exec(
		"UPDATE notifications SET is_read = TRUE, updated_at = $2 WHERE recipient_id = $1 AND is_read = FALSE",
		recipientId,
		time.Now().UTC(),
	)

	return err
}

func (db *PgRepository) DeleteNotification(id, recipientId string) error {
	return expectAffected(db.conn.Exec(
		"DELETE FROM notifications WHERE id = $1 AND recipient_id = $2",
		id,
		recipientId,
	))
}
