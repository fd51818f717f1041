package dao

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/haierkeys/bento-note-sync/internal/domain"
	"github.com/haierkeys/bento-note-sync/pkg/code"
	"github.com/haierkeys/bento-note-sync/pkg/writequeue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDao(t *testing.T) *Dao {
	t.Helper()
	db, err := NewDBEngine(DatabaseConfig{
		Type:        "sqlite",
		Path:        filepath.Join(t.TempDir(), "test.db"),
		TablePrefix: "t_",
	})
	require.NoError(t, err)

	wq := writequeue.New(writequeue.DefaultConfig(), zap.NewNop())
	t.Cleanup(func() {
		_ = wq.Shutdown(context.Background())
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return New(db, wq, zap.NewNop())
}

func sampleNotes(prefix string, n int) []domain.Note {
	notes := make([]domain.Note, 0, n)
	for i := 0; i < n; i++ {
		id := prefix + string(rune('a'+i))
		notes = append(notes, domain.Note{
			ID:        id,
			Title:     "title " + id,
			Content:   "content " + id,
			Tags:      []string{"t1", "标签"},
			FolderID:  "work",
			IsPinned:  i%2 == 0,
			Color:     "blue",
			CreatedAt: int64(1000 + i),
			UpdatedAt: int64(2000 + i),
		})
	}
	return notes
}

func TestNoteRepositoryCRUD(t *testing.T) {
	d := newTestDao(t)
	repo := NewNoteRepository(d)
	ctx := context.Background()

	note := domain.Note{
		ID: "n1", Title: "hello", Tags: []string{"x"}, IsLocked: true, Password: "pw",
		EditorType: domain.EditorMarkdown, ReminderTime: 99, CreatedAt: 1, UpdatedAt: 2,
	}
	require.NoError(t, repo.Save(ctx, "alice", &note))

	got, err := repo.Get(ctx, "alice", "n1")
	require.NoError(t, err)
	assert.Equal(t, note, *got)

	note.Title = "changed"
	note.IsLocked = false
	require.NoError(t, repo.Save(ctx, "alice", &note))
	got, err = repo.Get(ctx, "alice", "n1")
	require.NoError(t, err)
	assert.Equal(t, "changed", got.Title)
	assert.False(t, got.IsLocked)

	_, err = repo.Get(ctx, "bob", "n1")
	assert.ErrorIs(t, err, code.ErrorNotFound, "notes are scoped by user")

	require.NoError(t, repo.Delete(ctx, "alice", "n1"))
	list, err := repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFolderRepositoryOrder(t *testing.T) {
	d := newTestDao(t)
	repo := NewFolderRepository(d)
	ctx := context.Background()

	folders := domain.DefaultFolders()
	for i := len(folders) - 1; i >= 0; i-- {
		require.NoError(t, repo.Save(ctx, "alice", &folders[i]))
	}
	list, err := repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, folders, list)
}

func TestDatasetReplaceAll(t *testing.T) {
	d := newTestDao(t)
	ds := NewDatasetRepository(d)
	ctx := context.Background()

	// A for alice, plus bob's data that must not be touched
	require.NoError(t, ds.Merge(ctx, "alice", sampleNotes("a", 3), domain.DefaultFolders()))
	require.NoError(t, ds.Merge(ctx, "bob", sampleNotes("b", 2), nil))

	restored := sampleNotes("r", 2)
	restoredFolders := []domain.Folder{{ID: "f1", Name: "Only", Icon: "User", Order: 1}}
	require.NoError(t, ds.ReplaceAll(ctx, "alice", restored, restoredFolders))

	notes, folders, err := ds.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, restored, notes)
	assert.Equal(t, restoredFolders, folders)

	bobNotes, _, err := ds.Load(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, bobNotes, 2)
}

func TestDatasetReplaceAllEmpty(t *testing.T) {
	d := newTestDao(t)
	ds := NewDatasetRepository(d)
	ctx := context.Background()

	require.NoError(t, ds.Merge(ctx, "alice", sampleNotes("a", 2), domain.DefaultFolders()))
	require.NoError(t, ds.ReplaceAll(ctx, "alice", nil, nil))

	notes, folders, err := ds.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, notes)
	assert.Empty(t, folders)
}

func TestDatasetReplaceAllRollsBack(t *testing.T) {
	d := newTestDao(t)
	ds := NewDatasetRepository(d)
	ctx := context.Background()

	original := sampleNotes("a", 2)
	require.NoError(t, ds.Merge(ctx, "alice", original, domain.DefaultFolders()))

	// 取消的 context 使写入失败，原数据应保持不变
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	err := ds.ReplaceAll(cancelled, "alice", sampleNotes("r", 3), nil)
	require.Error(t, err)

	notes, folders, err := ds.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, original, notes)
	assert.Len(t, folders, 5)
}

func TestDatasetReplaceAllDuplicateIDs(t *testing.T) {
	d := newTestDao(t)
	ds := NewDatasetRepository(d)
	ctx := context.Background()

	dup := []domain.Note{{ID: "x", Title: "first", Tags: []string{}}, {ID: "x", Title: "second", Tags: []string{}}}
	require.NoError(t, ds.ReplaceAll(ctx, "alice", dup, nil))

	notes, _, err := ds.Load(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "second", notes[0].Title)
}

func TestDatasetMergeKeepsExisting(t *testing.T) {
	d := newTestDao(t)
	ds := NewDatasetRepository(d)
	ctx := context.Background()

	require.NoError(t, ds.Merge(ctx, "alice", sampleNotes("a", 2), nil))
	update := sampleNotes("a", 1)
	update[0].Title = "updated"
	require.NoError(t, ds.Merge(ctx, "alice", append(update, sampleNotes("z", 1)...), nil))

	notes, _, err := ds.Load(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, "updated", notes[0].Title)
}

func TestSettingRepository(t *testing.T) {
	d := newTestDao(t)
	repo := NewSettingRepository(d)
	ctx := context.Background()

	_, ok, err := repo.Get(ctx, "backup")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Set(ctx, "backup", `{"interval":"1h"}`))
	require.NoError(t, repo.Set(ctx, "backup", `{"interval":"6h"}`))

	v, ok, err := repo.Get(ctx, "backup")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"interval":"6h"}`, v)
}
