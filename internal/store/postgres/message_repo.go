package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"messenger/internal/domain"
)

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

var _ domain.MessageRepository = (*MessageRepo)(nil)

const messageColumns = `id, conversation_id, sender_id, content, file_path, file_type, status, created_at`

func (r *MessageRepo) Create(ctx context.Context, m *domain.Message) error {
	if m.Status == "" {
		m.Status = domain.StatusSent
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO messages (conversation_id, sender_id, content, file_path, file_type, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, m.ConversationID, m.SenderID, m.Content, m.FilePath, m.FileType, m.Status).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *MessageRepo) GetByID(ctx context.Context, id int64) (*domain.Message, error) {
	m := &domain.Message{}
	err := r.db.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id).Scan(
		&m.ID,
		&m.ConversationID,
		&m.SenderID,
		&m.Content,
		&m.FilePath,
		&m.FileType,
		&m.Status,
		&m.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return m, nil
}

func (r *MessageRepo) ListForConversation(ctx context.Context, conversationID int64, before time.Time, limit int) ([]*domain.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE conversation_id = $1
	`
	args := []any{conversationID}
	if !before.IsZero() {
		query += ` AND created_at < $2 ORDER BY created_at DESC LIMIT $3`
		args = append(args, before, limit)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var res []*domain.Message
	for rows.Next() {
		m := &domain.Message{}
		if err := rows.Scan(
			&m.ID,
			&m.ConversationID,
			&m.SenderID,
			&m.Content,
			&m.FilePath,
			&m.FileType,
			&m.Status,
			&m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

// UpdateStatus advances a message's status; the WHERE guard keeps the
// transition monotone.
func (r *MessageRepo) UpdateStatus(ctx context.Context, messageID int64, status domain.MessageStatus) error {
	var guard string
	switch status {
	case domain.StatusDelivered:
		guard = `status = 'sent'`
	case domain.StatusRead:
		guard = `status IN ('sent', 'delivered')`
	default:
		return fmt.Errorf("%w: cannot move a message back to %q", domain.ErrInvalidInput, status)
	}
	_, err := r.db.ExecContext(ctx, `UPDATE messages SET status = $1 WHERE id = $2 AND `+guard, status, messageID)
	if err != nil {
		return fmt.Errorf("update message status: %w", err)
	}
	return nil
}

func (r *MessageRepo) CountUnread(ctx context.Context, conversationID, userID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM messages
		WHERE conversation_id = $1 AND sender_id != $2 AND status != 'read'
	`, conversationID, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return count, nil
}
