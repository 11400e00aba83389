package chat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SenderUser  = "user"
	SenderModel = "model"
)

// Message is one chat turn. Rows are append-only: the orchestrator creates
// exactly one per turn and never mutates or deletes them.
type Message struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ThreadID string    `gorm:"column:thread_id;type:text;not null;index" json:"thread_id"`

	Sender  string `gorm:"column:sender;not null;index" json:"sender"`
	Content string `gorm:"column:content;type:text;not null;default:''" json:"content"`

	SentAt time.Time `gorm:"column:sent_at;not null;index" json:"sent_at"`
}

func (Message) TableName() string { return "message" }

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.SentAt.IsZero() {
		m.SentAt = time.Now().UTC()
	}
	return nil
}
