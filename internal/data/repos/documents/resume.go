package documents

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	pkgerrors "github.com/resummate/resummate-backend/internal/pkg/errors"
	types "github.com/resummate/resummate-backend/internal/domain"
	"github.com/resummate/resummate-backend/internal/platform/dbctx"
	"github.com/resummate/resummate-backend/internal/platform/logger"
)

// metadataColumns are the fields refreshed when a re-upload overwrites the
// live row for a thread.
var metadataColumns = []string{
	"file_name", "remote_name", "mime_type", "size_bytes",
	"create_time", "expiration_time", "update_time",
	"content_hash", "uri", "state", "source", "metadata",
	"updated_at",
}

type ResumeRepo interface {
	// Save upserts the thread's resume record atomically on thread_id.
	Save(dbc dbctx.Context, row *types.Resume) (*types.Resume, error)
	GetByThread(dbc dbctx.Context, threadID string) (*types.Resume, error)
	DeleteByThread(dbc dbctx.Context, threadID string) error
}

type resumeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResumeRepo(db *gorm.DB, log *logger.Logger) ResumeRepo {
	return &resumeRepo{db: db, log: log.With("repo", "ResumeRepo")}
}

func (r *resumeRepo) Save(dbc dbctx.Context, row *types.Resume) (*types.Resume, error) {
	if row == nil {
		return nil, fmt.Errorf("missing resume")
	}
	if strings.TrimSpace(row.ThreadID) == "" {
		return nil, fmt.Errorf("missing thread_id")
	}
	row.UpdatedAt = time.Now().UTC()
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "thread_id"}},
			DoUpdates: clause.AssignmentColumns(metadataColumns),
		}).
		Create(row).Error; err != nil {
		return nil, pkgerrors.MapError(err)
	}
	return row, nil
}

func (r *resumeRepo) GetByThread(dbc dbctx.Context, threadID string) (*types.Resume, error) {
	if strings.TrimSpace(threadID) == "" {
		return nil, fmt.Errorf("missing thread_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.Resume
	if err := txx.WithContext(dbc.Ctx).
		Where("thread_id = ?", threadID).
		First(&out).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.ErrNotFound
		}
		return nil, pkgerrors.MapError(err)
	}
	return &out, nil
}

func (r *resumeRepo) DeleteByThread(dbc dbctx.Context, threadID string) error {
	if strings.TrimSpace(threadID) == "" {
		return fmt.Errorf("missing thread_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	res := txx.WithContext(dbc.Ctx).
		Where("thread_id = ?", threadID).
		Delete(&types.Resume{})
	if res.Error != nil {
		return pkgerrors.MapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}
