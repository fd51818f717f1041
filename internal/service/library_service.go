package service

import (
	"context"
	"slices"
	"sync"

	"github.com/haierkeys/bento-note-sync/internal/domain"
	"github.com/haierkeys/bento-note-sync/pkg/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// LibraryService holds the in-memory view of a user's notes and folders.
// LibraryService 缓存用户的笔记与文件夹，恢复或导入后需要 Reload
type LibraryService interface {
	// Load returns the cached view, reading the store on first use.
	// A user without any data gets the default folders.
	Load(ctx context.Context, uid string) ([]domain.Note, []domain.Folder, error)
	// Reload drops the cache and rebuilds it from the store exactly as stored;
	// it never seeds default folders.
	Reload(ctx context.Context, uid string) error
	Notes(uid string) []domain.Note
	Folders(uid string) []domain.Folder
	// Unlock opens a locked note.
	Unlock(ctx context.Context, uid, noteID, secret string) (*domain.Note, error)
}

type library struct {
	notes   []domain.Note
	folders []domain.Folder
}

type libraryService struct {
	dataset domain.DatasetRepository
	notes   domain.NoteRepository
	logger  *zap.Logger

	mu    sync.RWMutex
	cache map[string]*library
}

func NewLibraryService(dataset domain.DatasetRepository, notes domain.NoteRepository, logger *zap.Logger) LibraryService {
	return &libraryService{
		dataset: dataset,
		notes:   notes,
		logger:  logger,
		cache:   map[string]*library{},
	}
}

func (s *libraryService) Load(ctx context.Context, uid string) ([]domain.Note, []domain.Folder, error) {
	s.mu.RLock()
	lib, ok := s.cache[uid]
	s.mu.RUnlock()
	if ok {
		return slices.Clone(lib.notes), slices.Clone(lib.folders), nil
	}

	lib, err := s.read(ctx, uid, true)
	if err != nil {
		return nil, nil, err
	}
	s.store(uid, lib)
	return slices.Clone(lib.notes), slices.Clone(lib.folders), nil
}

func (s *libraryService) store(uid string, lib *library) {
	s.mu.Lock()
	s.cache[uid] = lib
	s.mu.Unlock()
}

func (s *libraryService) Reload(ctx context.Context, uid string) error {
	// 恢复或导入后的数据原样保留，空数据不再写入默认文件夹
	lib, err := s.read(ctx, uid, false)
	if err != nil {
		s.mu.Lock()
		delete(s.cache, uid)
		s.mu.Unlock()
		return err
	}
	s.store(uid, lib)
	s.logger.Info("library reloaded", zap.String(logger.FieldUID, uid),
		zap.Int("notes", len(s.Notes(uid))), zap.Int("folders", len(s.Folders(uid))))
	return nil
}

func (s *libraryService) read(ctx context.Context, uid string, seed bool) (*library, error) {
	notes, folders, err := s.dataset.Load(ctx, uid)
	if err != nil {
		return nil, errors.Wrap(err, "load library")
	}

	// 首次使用：写入默认文件夹
	if seed && len(notes) == 0 && len(folders) == 0 {
		folders = domain.DefaultFolders()
		if err := s.dataset.Merge(ctx, uid, nil, folders); err != nil {
			return nil, errors.Wrap(err, "seed default folders")
		}
		s.logger.Info("seeded default folders", zap.String(logger.FieldUID, uid))
	}

	slices.SortStableFunc(folders, func(a, b domain.Folder) int {
		return a.Order - b.Order
	})
	return &library{notes: notes, folders: folders}, nil
}

func (s *libraryService) Notes(uid string) []domain.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if lib, ok := s.cache[uid]; ok {
		return slices.Clone(lib.notes)
	}
	return nil
}

func (s *libraryService) Folders(uid string) []domain.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if lib, ok := s.cache[uid]; ok {
		return slices.Clone(lib.folders)
	}
	return nil
}

func (s *libraryService) Unlock(ctx context.Context, uid, noteID, secret string) (*domain.Note, error) {
	note, err := s.notes.Get(ctx, uid, noteID)
	if err != nil {
		return nil, err
	}
	if err := note.Unlock(secret); err != nil {
		s.logger.Info("note unlock rejected",
			zap.String(logger.FieldAction, "unlock"),
			zap.String(logger.FieldUID, uid),
			zap.String("noteId", noteID))
		return nil, err
	}
	return note, nil
}
