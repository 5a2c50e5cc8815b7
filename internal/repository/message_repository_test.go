package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meldings/meldings-api/internal/models"
)

func TestCreateMessageReturnsGeneratedID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	studentID := int64(42)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO messages (student_id, subject_id, content) VALUES ($1, $2, $3) RETURNING id")).
		WithArgs(studentID, int64(3), "hello").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	message := &models.Message{StudentID: &studentID, SubjectID: 3, Content: "hello"}
	err := repo.CreateMessage(context.Background(), message)
	require.NoError(t, err)
	assert.Equal(t, int64(11), message.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReplyReturnsGeneratedID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO replies (message_id, teacher_id, content) VALUES ($1, $2, $3) RETURNING id")).
		WithArgs(int64(4), int64(9), "ok").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(21))

	reply := &models.Reply{MessageID: 4, TeacherID: 9, Content: "ok"}
	err := repo.CreateReply(context.Background(), reply)
	require.NoError(t, err)
	assert.Equal(t, int64(21), reply.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMessagesScopedToStudent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	studentID := int64(42)
	listRows := sqlmock.NewRows([]string{"id", "student_id", "subject_id", "content"}).
		AddRow(11, studentID, 3, "hello")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, subject_id, content FROM messages WHERE 1=1 AND student_id = $1 ORDER BY id DESC LIMIT 20 OFFSET 0")).
		WithArgs(studentID).
		WillReturnRows(listRows)

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM messages WHERE 1=1 AND student_id = $1")).
		WithArgs(studentID).
		WillReturnRows(countRows)

	messages, total, err := repo.ListMessages(context.Background(), models.MessageFilter{StudentID: &studentID})
	require.NoError(t, err)
	assert.Len(t, messages, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListReplies(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewMessageRepository(db)

	rows := sqlmock.NewRows([]string{"id", "message_id", "teacher_id", "content"}).
		AddRow(21, 4, 9, "ok").
		AddRow(22, 4, 9, "also ok")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, message_id, teacher_id, content FROM replies WHERE message_id = $1 ORDER BY id ASC")).
		WithArgs(int64(4)).
		WillReturnRows(rows)

	replies, err := repo.ListReplies(context.Background(), 4)
	require.NoError(t, err)
	assert.Len(t, replies, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsForeignKeyViolation(t *testing.T) {
	wrapped := fmt.Errorf("create reply: %w", &pq.Error{Code: "23503"})
	assert.True(t, IsForeignKeyViolation(wrapped))
	assert.False(t, IsForeignKeyViolation(errors.New("boom")))
	assert.False(t, IsForeignKeyViolation(&pq.Error{Code: "23505"}))
}

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("create user: %w", &pq.Error{Code: "23505"})
	assert.True(t, IsUniqueViolation(wrapped))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
}
