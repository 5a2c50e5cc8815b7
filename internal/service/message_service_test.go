package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/meldings/meldings-api/internal/models"
	appErrors "github.com/meldings/meldings-api/pkg/errors"
)

type mockMessageRepo struct {
	createdMessage *models.Message
	createdReply   *models.Reply
	createReplyErr error
	message        *models.Message
	messages       []models.Message
	replies        []models.Reply
	lastFilter     models.MessageFilter
}

func (m *mockMessageRepo) CreateMessage(ctx context.Context, message *models.Message) error {
	message.ID = 11
	m.createdMessage = message
	return nil
}

func (m *mockMessageRepo) CreateReply(ctx context.Context, reply *models.Reply) error {
	if m.createReplyErr != nil {
		return m.createReplyErr
	}
	reply.ID = 21
	m.createdReply = reply
	return nil
}

func (m *mockMessageRepo) GetMessage(ctx context.Context, id int64) (*models.Message, error) {
	if m.message == nil {
		return nil, sql.ErrNoRows
	}
	return m.message, nil
}

func (m *mockMessageRepo) ListMessages(ctx context.Context, filter models.MessageFilter) ([]models.Message, int, error) {
	m.lastFilter = filter
	return m.messages, len(m.messages), nil
}

func (m *mockMessageRepo) ListReplies(ctx context.Context, messageID int64) ([]models.Reply, error) {
	return m.replies, nil
}

func newTestMessageService(repo *mockMessageRepo) *MessageService {
	return NewMessageService(repo, validator.New(), zap.NewNop(), nil, 0)
}

func studentClaims(id int64) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleStudent}
}

func instructorClaims(id int64) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleInstructor}
}

func TestPostMessageBindsAuthor(t *testing.T) {
	repo := &mockMessageRepo{}
	svc := newTestMessageService(repo)

	message, err := svc.PostMessage(context.Background(), studentClaims(42), models.CreateMessageRequest{
		SubjectID: 3,
		Content:   "hello",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), message.ID)
	require.NotNil(t, repo.createdMessage.StudentID)
	assert.Equal(t, int64(42), *repo.createdMessage.StudentID)
}

func TestPostMessageValidation(t *testing.T) {
	svc := newTestMessageService(&mockMessageRepo{})

	_, err := svc.PostMessage(context.Background(), studentClaims(1), models.CreateMessageRequest{SubjectID: 3})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPostReplyBindsInstructor(t *testing.T) {
	repo := &mockMessageRepo{}
	svc := newTestMessageService(repo)

	reply, err := svc.PostReply(context.Background(), instructorClaims(9), models.CreateReplyRequest{
		MessageID: 4,
		Content:   "ok",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(21), reply.ID)
	assert.Equal(t, int64(9), repo.createdReply.TeacherID)
	assert.Equal(t, int64(4), repo.createdReply.MessageID)
}

func TestPostReplyUnknownMessage(t *testing.T) {
	repo := &mockMessageRepo{
		createReplyErr: fmt.Errorf("create reply: %w", &pq.Error{Code: "23503"}),
	}
	svc := newTestMessageService(repo)

	_, err := svc.PostReply(context.Background(), instructorClaims(9), models.CreateReplyRequest{
		MessageID: 99999,
		Content:   "ok",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, 404, appErr.Status)
}

func TestListMessagesScopesStudents(t *testing.T) {
	repo := &mockMessageRepo{}
	svc := newTestMessageService(repo)

	_, _, err := svc.ListMessages(context.Background(), studentClaims(42), models.MessageFilter{})
	require.NoError(t, err)
	require.NotNil(t, repo.lastFilter.StudentID)
	assert.Equal(t, int64(42), *repo.lastFilter.StudentID)
}

func TestListMessagesInstructorSeesAll(t *testing.T) {
	repo := &mockMessageRepo{messages: []models.Message{{ID: 1}, {ID: 2}}}
	svc := newTestMessageService(repo)

	messages, pagination, err := svc.ListMessages(context.Background(), instructorClaims(9), models.MessageFilter{})
	require.NoError(t, err)
	assert.Nil(t, repo.lastFilter.StudentID)
	assert.Len(t, messages, 2)
	assert.Equal(t, 2, pagination.TotalCount)
}

func TestListMessagesClampsPageSize(t *testing.T) {
	repo := &mockMessageRepo{}
	svc := newTestMessageService(repo)

	_, pagination, err := svc.ListMessages(context.Background(), instructorClaims(9), models.MessageFilter{Page: 0, PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 20, repo.lastFilter.PageSize)
}

func TestListRepliesUnknownMessage(t *testing.T) {
	svc := newTestMessageService(&mockMessageRepo{})

	_, err := svc.ListReplies(context.Background(), 12)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestListReplies(t *testing.T) {
	repo := &mockMessageRepo{
		message: &models.Message{ID: 4, SubjectID: 3, Content: "hello"},
		replies: []models.Reply{{ID: 21, MessageID: 4, TeacherID: 9, Content: "ok"}},
	}
	svc := newTestMessageService(repo)

	replies, err := svc.ListReplies(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, int64(9), replies[0].TeacherID)
}
