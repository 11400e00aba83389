package domain

import (
	"github.com/resummate/resummate-backend/internal/domain/chat"
	"github.com/resummate/resummate-backend/internal/domain/documents"
)

const (
	SenderUser  = chat.SenderUser
	SenderModel = chat.SenderModel
)

type (
	Message        = chat.Message
	FileMetadata   = documents.FileMetadata
	Resume         = documents.Resume
	JobDescription = documents.JobDescription
)
