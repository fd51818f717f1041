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

type folderRepository struct {
	dao *Dao
}

func NewFolderRepository(dao *Dao) domain.FolderRepository {
	return &folderRepository{dao: dao}
}

func (r *folderRepository) ListByUser(ctx context.Context, uid string) ([]domain.Folder, error) {
	db, err := r.dao.DB(ctx, "Folder")
	if err != nil {
		return nil, err
	}
	return listFolders(db, uid)
}

func (r *folderRepository) Get(ctx context.Context, uid, id string) (*domain.Folder, error) {
	db, err := r.dao.DB(ctx, "Folder")
	if err != nil {
		return nil, err
	}
	var m model.Folder
	if err := db.Where("user_id = ? AND id = ?", uid, id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, code.ErrorNotFound
		}
		return nil, err
	}
	f, err := folderToDomain(&m)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *folderRepository) Save(ctx context.Context, uid string, folder *domain.Folder) error {
	m, err := folderToModel(uid, folder)
	if err != nil {
		return err
	}
	return r.dao.ExecuteWrite(ctx, uid, []string{"Folder"}, func(db *gorm.DB) error {
		return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error
	})
}

func (r *folderRepository) Delete(ctx context.Context, uid, id string) error {
	return r.dao.ExecuteWrite(ctx, uid, []string{"Folder"}, func(db *gorm.DB) error {
		return db.Where("user_id = ? AND id = ?", uid, id).Delete(&model.Folder{}).Error
	})
}

func listFolders(db *gorm.DB, uid string) ([]domain.Folder, error) {
	var ms []model.Folder
	if err := db.Where("user_id = ?", uid).Order("sort_order").Order("id").Find(&ms).Error; err != nil {
		return nil, err
	}
	folders := make([]domain.Folder, 0, len(ms))
	for i := range ms {
		f, err := folderToDomain(&ms[i])
		if err != nil {
			return nil, err
		}
		folders = append(folders, f)
	}
	return folders, nil
}
