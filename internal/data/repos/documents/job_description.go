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

type JobDescriptionRepo interface {
	Save(dbc dbctx.Context, row *types.JobDescription) (*types.JobDescription, error)
	GetByThread(dbc dbctx.Context, threadID string) (*types.JobDescription, error)
	DeleteByThread(dbc dbctx.Context, threadID string) error
}

type jobDescriptionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewJobDescriptionRepo(db *gorm.DB, log *logger.Logger) JobDescriptionRepo {
	return &jobDescriptionRepo{db: db, log: log.With("repo", "JobDescriptionRepo")}
}

func (r *jobDescriptionRepo) Save(dbc dbctx.Context, row *types.JobDescription) (*types.JobDescription, error) {
	if row == nil {
		return nil, fmt.Errorf("missing job description")
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

func (r *jobDescriptionRepo) GetByThread(dbc dbctx.Context, threadID string) (*types.JobDescription, error) {
	if strings.TrimSpace(threadID) == "" {
		return nil, fmt.Errorf("missing thread_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out types.JobDescription
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

func (r *jobDescriptionRepo) DeleteByThread(dbc dbctx.Context, threadID string) error {
	if strings.TrimSpace(threadID) == "" {
		return fmt.Errorf("missing thread_id")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	res := txx.WithContext(dbc.Ctx).
		Where("thread_id = ?", threadID).
		Delete(&types.JobDescription{})
	if res.Error != nil {
		return pkgerrors.MapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.ErrNotFound
	}
	return nil
}
