package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/meldings/meldings-api/internal/models"
)

// MessageRepository provides persistence for messages and replies.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates the repository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// CreateMessage inserts a message row and fills in the generated identifier.
func (r *MessageRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	const query = `INSERT INTO messages (student_id, subject_id, content) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.GetContext(ctx, &message.ID, query, message.StudentID, message.SubjectID, message.Content); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// CreateReply inserts a reply row and fills in the generated identifier.
// The message_id foreign key is left to the store; violations surface
// through IsForeignKeyViolation.
func (r *MessageRepository) CreateReply(ctx context.Context, reply *models.Reply) error {
	const query = `INSERT INTO replies (message_id, teacher_id, content) VALUES ($1, $2, $3) RETURNING id`
	if err := r.db.GetContext(ctx, &reply.ID, query, reply.MessageID, reply.TeacherID, reply.Content); err != nil {
		return fmt.Errorf("create reply: %w", err)
	}
	return nil
}

// GetMessage returns a message by identifier.
func (r *MessageRepository) GetMessage(ctx context.Context, id int64) (*models.Message, error) {
	const query = `SELECT id, student_id, subject_id, content FROM messages WHERE id = $1 LIMIT 1`
	var message models.Message
	if err := r.db.GetContext(ctx, &message, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get message: %w", err)
	}
	return &message, nil
}

// ListMessages returns messages matching the filter with a total count.
func (r *MessageRepository) ListMessages(ctx context.Context, filter models.MessageFilter) ([]models.Message, int, error) {
	baseQuery := `FROM messages WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.StudentID != nil {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, *filter.StudentID)
	}
	if filter.SubjectID != nil {
		conditions = append(conditions, fmt.Sprintf("subject_id = $%d", len(args)+1))
		args = append(args, *filter.SubjectID)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	filter.Normalize()
	offset := (filter.Page - 1) * filter.PageSize

	listQuery := fmt.Sprintf("SELECT id, student_id, subject_id, content %s ORDER BY id DESC LIMIT %d OFFSET %d", baseQuery, filter.PageSize, offset)

	var messages []models.Message
	if err := r.db.SelectContext(ctx, &messages, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count messages: %w", err)
	}

	return messages, total, nil
}

// ListReplies returns all replies for a message in insertion order.
func (r *MessageRepository) ListReplies(ctx context.Context, messageID int64) ([]models.Reply, error) {
	const query = `SELECT id, message_id, teacher_id, content FROM replies WHERE message_id = $1 ORDER BY id ASC`
	var replies []models.Reply
	if err := r.db.SelectContext(ctx, &replies, query, messageID); err != nil {
		return nil, fmt.Errorf("list replies: %w", err)
	}
	return replies, nil
}

// IsForeignKeyViolation reports whether err is a Postgres FK violation.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	return false
}
