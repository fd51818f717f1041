package dao

import (
	"context"

	"github.com/haierkeys/bento-note-sync/internal/domain"
	"github.com/haierkeys/bento-note-sync/internal/model"
	"github.com/haierkeys/bento-note-sync/pkg/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const batchSize = 200

// datasetRepository 实现 domain.DatasetRepository 接口
type datasetRepository struct {
	dao *Dao
}

func NewDatasetRepository(dao *Dao) domain.DatasetRepository {
	return &datasetRepository{dao: dao}
}

var datasetTables = []string{"Note", "Folder"}

// Load reads both collections inside one read transaction so they belong to the same state.
func (r *datasetRepository) Load(ctx context.Context, uid string) (notes []domain.Note, folders []domain.Folder, err error) {
	for _, t := range datasetTables {
		if _, err = r.dao.DB(ctx, t); err != nil {
			return nil, nil, err
		}
	}
	err = r.dao.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if notes, err = listNotes(tx, uid); err != nil {
			return err
		}
		folders, err = listFolders(tx, uid)
		return err
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "load dataset")
	}
	return notes, folders, nil
}

// ReplaceAll deletes every record of uid and inserts the given ones in one transaction.
// ReplaceAll 整体替换：删除用户全部记录后写入新记录，任一步失败则整体回滚
func (r *datasetRepository) ReplaceAll(ctx context.Context, uid string, notes []domain.Note, folders []domain.Folder) error {
	noteModels, folderModels, err := toModels(uid, notes, folders)
	if err != nil {
		return err
	}

	err = r.dao.ExecuteWrite(ctx, uid, datasetTables, func(db *gorm.DB) error {
		return db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("user_id = ?", uid).Delete(&model.Note{}).Error; err != nil {
				return errors.Wrap(err, "delete notes")
			}
			if err := tx.Where("user_id = ?", uid).Delete(&model.Folder{}).Error; err != nil {
				return errors.Wrap(err, "delete folders")
			}
			if len(noteModels) > 0 {
				if err := tx.CreateInBatches(noteModels, batchSize).Error; err != nil {
					return errors.Wrap(err, "insert notes")
				}
			}
			if len(folderModels) > 0 {
				if err := tx.CreateInBatches(folderModels, batchSize).Error; err != nil {
					return errors.Wrap(err, "insert folders")
				}
			}
			return nil
		})
	})
	if err != nil {
		r.dao.Logger().Error("replace dataset failed, store unchanged",
			zap.String(logger.FieldUID, uid),
			zap.String(logger.FieldMethod, "datasetRepository.ReplaceAll"),
			zap.Error(err))
		return err
	}
	r.dao.Logger().Info("dataset replaced",
		zap.String(logger.FieldUID, uid),
		zap.Int("notes", len(noteModels)),
		zap.Int("folders", len(folderModels)))
	return nil
}

// Merge upserts every record; existing records of uid that are not in the input stay.
func (r *datasetRepository) Merge(ctx context.Context, uid string, notes []domain.Note, folders []domain.Folder) error {
	noteModels, folderModels, err := toModels(uid, notes, folders)
	if err != nil {
		return err
	}
	return r.dao.ExecuteWrite(ctx, uid, datasetTables, func(db *gorm.DB) error {
		return db.Transaction(func(tx *gorm.DB) error {
			upsert := tx.Clauses(clause.OnConflict{UpdateAll: true})
			if len(noteModels) > 0 {
				if err := upsert.CreateInBatches(noteModels, batchSize).Error; err != nil {
					return errors.Wrap(err, "merge notes")
				}
			}
			if len(folderModels) > 0 {
				if err := upsert.CreateInBatches(folderModels, batchSize).Error; err != nil {
					return errors.Wrap(err, "merge folders")
				}
			}
			return nil
		})
	})
}

// toModels converts and de-duplicates by id, the last occurrence winning.
func toModels(uid string, notes []domain.Note, folders []domain.Folder) ([]model.Note, []model.Folder, error) {
	noteModels := make([]model.Note, 0, len(notes))
	noteIdx := make(map[string]int, len(notes))
	for i := range notes {
		m, err := noteToModel(uid, &notes[i])
		if err != nil {
			return nil, nil, errors.Wrapf(err, "note %s", notes[i].ID)
		}
		if j, ok := noteIdx[m.ID]; ok {
			noteModels[j] = m
			continue
		}
		noteIdx[m.ID] = len(noteModels)
		noteModels = append(noteModels, m)
	}

	folderModels := make([]model.Folder, 0, len(folders))
	folderIdx := make(map[string]int, len(folders))
	for i := range folders {
		m, err := folderToModel(uid, &folders[i])
		if err != nil {
			return nil, nil, errors.Wrapf(err, "folder %s", folders[i].ID)
		}
		if j, ok := folderIdx[m.ID]; ok {
			folderModels[j] = m
			continue
		}
		folderIdx[m.ID] = len(folderModels)
		folderModels = append(folderModels, m)
	}
	return noteModels, folderModels, nil
}
