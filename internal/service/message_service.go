package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/meldings/meldings-api/internal/models"
	"github.com/meldings/meldings-api/internal/repository"
	appErrors "github.com/meldings/meldings-api/pkg/errors"
)

type messageRepository interface {
	CreateMessage(ctx context.Context, message *models.Message) error
	CreateReply(ctx context.Context, reply *models.Reply) error
	GetMessage(ctx context.Context, id int64) (*models.Message, error)
	ListMessages(ctx context.Context, filter models.MessageFilter) ([]models.Message, int, error)
	ListReplies(ctx context.Context, messageID int64) ([]models.Reply, error)
}

// MessageService handles message and reply workflows.
type MessageService struct {
	repo      messageRepository
	validator *validator.Validate
	logger    *zap.Logger
	cache     *redis.Client
	cacheTTL  time.Duration
}

// NewMessageService creates an instance of MessageService. cache may be
// nil; reply listings then always hit the store.
func NewMessageService(repo messageRepository, validate *validator.Validate, logger *zap.Logger, cache *redis.Client, cacheTTL time.Duration) *MessageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &MessageService{repo: repo, validator: validate, logger: logger, cache: cache, cacheTTL: cacheTTL}
}

// PostMessage stores a student note bound to the authenticated caller.
func (s *MessageService) PostMessage(ctx context.Context, claims *models.JWTClaims, req models.CreateMessageRequest) (*models.Message, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid message payload")
	}

	message := &models.Message{
		StudentID: &claims.UserID,
		SubjectID: req.SubjectID,
		Content:   req.Content,
	}

	if err := s.repo.CreateMessage(ctx, message); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to create message")
	}

	return message, nil
}

// PostReply stores an instructor response. The message reference is
// enforced by the store's foreign key and surfaced as NOT_FOUND.
func (s *MessageService) PostReply(ctx context.Context, claims *models.JWTClaims, req models.CreateReplyRequest) (*models.Reply, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reply payload")
	}

	reply := &models.Reply{
		MessageID: req.MessageID,
		TeacherID: claims.UserID,
		Content:   req.Content,
	}

	if err := s.repo.CreateReply(ctx, reply); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "message not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to create reply")
	}

	s.invalidateReplies(ctx, reply.MessageID)

	return reply, nil
}

// ListMessages returns messages visible to the caller. Students see their
// own messages, instructors see everything.
func (s *MessageService) ListMessages(ctx context.Context, claims *models.JWTClaims, filter models.MessageFilter) ([]models.Message, *models.Pagination, error) {
	if claims.Role != models.RoleInstructor {
		filter.StudentID = &claims.UserID
	}
	filter.Normalize()

	messages, total, err := s.repo.ListMessages(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list messages")
	}

	pagination := &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	}

	return messages, pagination, nil
}

// ListReplies returns the replies for an existing message.
func (s *MessageService) ListReplies(ctx context.Context, messageID int64) ([]models.Reply, error) {
	if cached, ok := s.cachedReplies(ctx, messageID); ok {
		return cached, nil
	}

	if _, err := s.repo.GetMessage(ctx, messageID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "message not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to load message")
	}

	replies, err := s.repo.ListReplies(ctx, messageID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list replies")
	}

	s.storeReplies(ctx, messageID, replies)

	return replies, nil
}

func repliesCacheKey(messageID int64) string {
	return fmt.Sprintf("replies:%d", messageID)
}

func (s *MessageService) cachedReplies(ctx context.Context, messageID int64) ([]models.Reply, bool) {
	if s.cache == nil {
		return nil, false
	}

	raw, err := s.cache.Get(ctx, repliesCacheKey(messageID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("reply cache lookup failed", zap.Error(err))
		}
		return nil, false
	}

	var replies []models.Reply
	if err := json.Unmarshal(raw, &replies); err != nil {
		s.logger.Warn("reply cache entry corrupt", zap.Error(err))
		return nil, false
	}

	return replies, true
}

func (s *MessageService) storeReplies(ctx context.Context, messageID int64, replies []models.Reply) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(replies)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, repliesCacheKey(messageID), raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("reply cache write failed", zap.Error(err))
	}
}

func (s *MessageService) invalidateReplies(ctx context.Context, messageID int64) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Del(ctx, repliesCacheKey(messageID)).Err(); err != nil {
		s.logger.Warn("reply cache invalidation failed", zap.Error(err))
	}
}
