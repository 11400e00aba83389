package chat

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	pkgerrors "github.com/resummate/resummate-backend/internal/pkg/errors"
	types "github.com/resummate/resummate-backend/internal/domain"
	"github.com/resummate/resummate-backend/internal/platform/dbctx"
	"github.com/resummate/resummate-backend/internal/platform/logger"
)

type MessageRepo interface {
	Create(dbc dbctx.Context, row *types.Message) (*types.Message, error)
	// ListRecent returns up to limit messages, newest first. Callers that
	// need chronological order reverse it themselves.
	ListRecent(dbc dbctx.Context, threadID string, limit int) ([]*types.Message, error)
}

type messageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMessageRepo(db *gorm.DB, log *logger.Logger) MessageRepo {
	return &messageRepo{db: db, log: log.With("repo", "MessageRepo")}
}

func (r *messageRepo) Create(dbc dbctx.Context, row *types.Message) (*types.Message, error) {
	if row == nil {
		return nil, fmt.Errorf("missing message")
	}
	if strings.TrimSpace(row.ThreadID) == "" {
		return nil, fmt.Errorf("missing thread_id")
	}
	if row.Sender != types.SenderUser && row.Sender != types.SenderModel {
		return nil, fmt.Errorf("invalid sender %q", row.Sender)
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, pkgerrors.MapError(err)
	}
	return row, nil
}

func (r *messageRepo) ListRecent(dbc dbctx.Context, threadID string, limit int) ([]*types.Message, error) {
	if strings.TrimSpace(threadID) == "" {
		return nil, fmt.Errorf("missing thread_id")
	}
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Message
	if err := txx.WithContext(dbc.Ctx).
		Model(&types.Message{}).
		Where("thread_id = ?", threadID).
		Order("sent_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, pkgerrors.MapError(err)
	}
	return out, nil
}
