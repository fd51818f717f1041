package dao

import (
	"context"
	"errors"

	"github.com/haierkeys/bento-note-sync/internal/domain"
	"github.com/haierkeys/bento-note-sync/internal/model"
	"github.com/haierkeys/bento-note-sync/pkg/code"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// noteRepository 实现 domain.NoteRepository 接口
type noteRepository struct {
	dao *Dao
}

// NewNoteRepository 创建 NoteRepository 实例
func NewNoteRepository(dao *Dao) domain.NoteRepository {
	return &noteRepository{dao: dao}
}

func (r *noteRepository) ListByUser(ctx context.Context, uid string) ([]domain.Note, error) {
	db, err := r.dao.DB(ctx, "Note")
	if err != nil {
		return nil, err
	}
	return listNotes(db, uid)
}

func (r *noteRepository) Get(ctx context.Context, uid, id string) (*domain.Note, error) {
	db, err := r.dao.DB(ctx, "Note")
	if err != nil {
		return nil, err
	}
	var m model.Note
	if err := db.Where("user_id = ? AND id = ?", uid, id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorNotFound
		}
		return nil, err
	}
	n, err := noteToDomain(&m)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *noteRepository) Save(ctx context.Context, uid string, note *domain.Note) error {
	m, err := noteToModel(uid, note)
	if err != nil {
		return err
	}
	return r.dao.ExecuteWrite(ctx, uid, []string{"Note"}, func(db *gorm.DB) error {
		return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error
	})
}

func (r *noteRepository) Delete(ctx context.Context, uid, id string) error {
	return r.dao.ExecuteWrite(ctx, uid, []string{"Note"}, func(db *gorm.DB) error {
		return db.Where("user_id = ? AND id = ?", uid, id).Delete(&model.Note{}).Error
	})
}

func listNotes(db *gorm.DB, uid string) ([]domain.Note, error) {
	var ms []model.Note
	if err := db.Where("user_id = ?", uid).Order("id").Find(&ms).Error; err != nil {
		return nil, err
	}
	notes := make([]domain.Note, 0, len(ms))
	for i := range ms {
		n, err := noteToDomain(&ms[i])
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, nil
}
