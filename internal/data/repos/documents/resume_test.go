package documents

import (
	"context"
	"errors"
	"testing"

	types "github.com/resummate/resummate-backend/internal/domain"
	"github.com/resummate/resummate-backend/internal/data/repos/testutil"
	"github.com/resummate/resummate-backend/internal/platform/dbctx"
	pkgerrors "github.com/resummate/resummate-backend/internal/pkg/errors"
)

func TestResumeRepoSaveUpsertsOnThread(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewResumeRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	threadID := "thread-upsert"
	_, err := repo.Save(dbc, &types.Resume{
		ThreadID: threadID,
		FileMetadata: types.FileMetadata{
			FileName:   "v1.pdf",
			RemoteName: "files/v1",
			MimeType:   "application/pdf",
		},
	})
	if err != nil {
		t.Fatalf("first save: %v", err)
	}

	if _, err := repo.Save(dbc, &types.Resume{
		ThreadID: threadID,
		FileMetadata: types.FileMetadata{
			FileName:   "v2.pdf",
			RemoteName: "files/v2",
			MimeType:   "application/pdf",
		},
	}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, err := repo.GetByThread(dbc, threadID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FileName != "v2.pdf" || got.RemoteName != "files/v2" {
		t.Fatalf("row not overwritten: %+v", got.FileMetadata)
	}

	var count int64
	if err := tx.Model(&types.Resume{}).Where("thread_id = ?", threadID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("thread holds %d rows, want exactly one", count)
	}
}

func TestResumeRepoGetMissingReturnsNotFound(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewResumeRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	if _, err := repo.GetByThread(dbc, "no-such-thread"); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestResumeRepoDeleteMissingReturnsNotFound(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewResumeRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	if err := repo.DeleteByThread(dbc, "no-such-thread"); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestJobDescriptionRepoLifecycle(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	repo := NewJobDescriptionRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	threadID := "thread-jd"
	if _, err := repo.Save(dbc, &types.JobDescription{
		ThreadID: threadID,
		FileMetadata: types.FileMetadata{
			FileName:   "posting.pdf",
			RemoteName: "files/jd",
			MimeType:   "application/pdf",
		},
	}); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.GetByThread(dbc, threadID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FileName != "posting.pdf" {
		t.Fatalf("row = %+v", got.FileMetadata)
	}

	if err := repo.DeleteByThread(dbc, threadID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByThread(dbc, threadID); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("err after delete = %v, want ErrNotFound", err)
	}
}
