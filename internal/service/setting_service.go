package service

import (
	"context"
	"sync"
	"time"

	"github.com/haierkeys/bento-note-sync/internal/domain"
	"github.com/haierkeys/bento-note-sync/pkg/code"
	"github.com/haierkeys/bento-note-sync/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const backupSettingKey = "backup"

// SettingObserver is called after a change has been persisted.
type SettingObserver func(old, new domain.BackupSettings)

// SettingService owns the backup configuration. It is the only writer; readers
// always get the persisted state.
// SettingService 备份配置的唯一写入方，每次读取都从存储获取最新值
type SettingService interface {
	Get(ctx context.Context) (domain.BackupSettings, error)
	// Update replaces the user-editable fields; LastBackupTime is kept.
	Update(ctx context.Context, s domain.BackupSettings) (domain.BackupSettings, error)
	// RecordBackup persists a successful backup time immediately.
	RecordBackup(ctx context.Context, t time.Time) error
	Subscribe(fn SettingObserver) (unsubscribe func())
}

type settingService struct {
	repo     domain.SettingRepository
	validate *validator.Validate
	logger   *zap.Logger

	writeMu sync.Mutex

	obsMu     sync.Mutex
	observers map[int]SettingObserver
	nextID    int
}

func NewSettingService(repo domain.SettingRepository, logger *zap.Logger) SettingService {
	return &settingService{
		repo:      repo,
		validate:  validator.New(),
		logger:    logger,
		observers: map[int]SettingObserver{},
	}
}

func (s *settingService) Get(ctx context.Context) (domain.BackupSettings, error) {
	settings := domain.DefaultBackupSettings()
	raw, ok, err := s.repo.Get(ctx, backupSettingKey)
	if err != nil {
		return settings, errors.Wrap(err, "read backup settings")
	}
	if !ok {
		return settings, nil
	}
	if err := sonic.UnmarshalString(raw, &settings); err != nil {
		s.logger.Warn("backup settings unreadable, using defaults", zap.Error(err))
		return domain.DefaultBackupSettings(), nil
	}
	if settings.Interval == "" {
		settings.Interval = domain.IntervalOff
	}
	if settings.Location == "" {
		settings.Location = domain.LocationWebDAV
	}
	return settings, nil
}

func (s *settingService) Update(ctx context.Context, in domain.BackupSettings) (domain.BackupSettings, error) {
	s.writeMu.Lock()
	old, err := s.Get(ctx)
	if err != nil {
		s.writeMu.Unlock()
		return old, err
	}
	in.LastBackupTime = old.LastBackupTime
	if err := s.validate.Struct(in); err != nil {
		s.writeMu.Unlock()
		return old, code.ErrorSettingInvalid.WithDetails(err.Error())
	}
	if err := s.save(ctx, in); err != nil {
		s.writeMu.Unlock()
		return old, err
	}
	s.writeMu.Unlock()

	s.logger.Info("backup settings updated",
		zap.String(logger.FieldInterval, string(in.Interval)),
		zap.String(logger.FieldDestination, string(in.Location)),
		zap.Bool("remoteConfigured", in.Remote.Configured()))
	s.notify(old, in)
	return in, nil
}

func (s *settingService) RecordBackup(ctx context.Context, t time.Time) error {
	s.writeMu.Lock()
	old, err := s.Get(ctx)
	if err != nil {
		s.writeMu.Unlock()
		return err
	}
	updated := old
	updated.LastBackupTime = t.UnixMilli()
	if err := s.save(ctx, updated); err != nil {
		s.writeMu.Unlock()
		return err
	}
	s.writeMu.Unlock()

	s.notify(old, updated)
	return nil
}

func (s *settingService) save(ctx context.Context, settings domain.BackupSettings) error {
	raw, err := sonic.MarshalString(settings)
	if err != nil {
		return errors.Wrap(err, "encode backup settings")
	}
	if err := s.repo.Set(ctx, backupSettingKey, raw); err != nil {
		s.logger.Error("persist backup settings failed", zap.Error(err))
		return code.ErrorSettingSave.WithDetails(err.Error())
	}
	return nil
}

func (s *settingService) Subscribe(fn SettingObserver) func() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		delete(s.observers, id)
	}
}

func (s *settingService) notify(old, new domain.BackupSettings) {
	s.obsMu.Lock()
	observers := make([]SettingObserver, 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range observers {
		fn(old, new)
	}
}
