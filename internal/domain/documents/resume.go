package documents

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FileMetadata caches what the document AI store reported about an uploaded
// file. The authoritative content lives remotely and can expire; RemoteName
// is the handle used to resolve it again at generation time.
type FileMetadata struct {
	FileName   string `gorm:"column:file_name;not null" json:"file_name"`
	RemoteName string `gorm:"column:remote_name;not null" json:"remote_name"`
	MimeType   string `gorm:"column:mime_type" json:"mime_type"`
	SizeBytes  int64  `gorm:"column:size_bytes" json:"size_bytes"`

	CreateTime     string `gorm:"column:create_time" json:"create_time,omitempty"`
	ExpirationTime string `gorm:"column:expiration_time" json:"expiration_time,omitempty"`
	UpdateTime     string `gorm:"column:update_time" json:"update_time,omitempty"`

	ContentHash string `gorm:"column:content_hash" json:"content_hash,omitempty"`
	URI         string `gorm:"column:uri" json:"uri,omitempty"`
	State       string `gorm:"column:state" json:"state,omitempty"`
	Source      string `gorm:"column:source" json:"source,omitempty"`

	// Raw remote metadata as returned by the store, for forward-compat fields.
	Metadata datatypes.JSON `gorm:"type:jsonb;column:metadata;not null;default:'{}'" json:"metadata,omitempty"`
}

// Resume is the at-most-one resume record per thread. Re-upload overwrites
// the row via an upsert keyed on thread_id.
type Resume struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ThreadID string    `gorm:"column:thread_id;type:text;not null;uniqueIndex" json:"thread_id"`

	FileMetadata

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Resume) TableName() string { return "resume" }

func (r *Resume) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
