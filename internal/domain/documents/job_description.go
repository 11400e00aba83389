package documents

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// JobDescription mirrors Resume: at most one live row per thread.
type JobDescription struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ThreadID string    `gorm:"column:thread_id;type:text;not null;uniqueIndex" json:"thread_id"`

	FileMetadata

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (JobDescription) TableName() string { return "job_description" }

func (j *JobDescription) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}
