package dao

import (
	"context"
	"time"

	"github.com/haierkeys/bento-note-sync/internal/domain"
	"github.com/haierkeys/bento-note-sync/internal/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// settingWriteKey serializes setting writes on their own queue, apart from user data.
const settingWriteKey = "#setting"

// settingRepository 实现 domain.SettingRepository 接口
type settingRepository struct {
	dao *Dao
}

func NewSettingRepository(dao *Dao) domain.SettingRepository {
	return &settingRepository{dao: dao}
}

func (r *settingRepository) Get(ctx context.Context, key string) (string, bool, error) {
	db, err := r.dao.DB(ctx, "Setting")
	if err != nil {
		return "", false, err
	}
	var m model.Setting
	err = db.Where("setting_key = ?", key).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return m.Value, true, nil
}

func (r *settingRepository) Set(ctx context.Context, key, value string) error {
	m := model.Setting{Key: key, Value: value, Mtime: time.Now().UnixMilli()}
	return r.dao.ExecuteWrite(ctx, settingWriteKey, []string{"Setting"}, func(db *gorm.DB) error {
		return db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "setting_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&m).Error
	})
}
