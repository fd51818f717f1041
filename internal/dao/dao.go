// Package dao 实现数据访问层
package dao

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/haierkeys/bento-note-sync/internal/model"
	"github.com/haierkeys/bento-note-sync/pkg/writequeue"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// Type sqlite | mysql | postgres
	Type        string `yaml:"type" default:"sqlite"`
	Path        string `yaml:"path" default:"storage/database/bento.db"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Name        string `yaml:"name"`
	UserName    string `yaml:"username"`
	Password    string `yaml:"password"`
	TablePrefix string `yaml:"table-prefix" default:"bento_"`
	Charset     string `yaml:"charset" default:"utf8mb4"`
	SSLMode     string `yaml:"ssl-mode" default:"disable"`
	// MaxIdleConns 空闲连接池中连接的最大数量
	MaxIdleConns int `yaml:"max-idle-conns" default:"4"`
	// MaxOpenConns 打开数据库连接的最大数量
	MaxOpenConns int  `yaml:"max-open-conns" default:"16"`
	Debug        bool `yaml:"debug"`
}

// Dao wraps the gorm handle and the per-user write queue.
type Dao struct {
	db     *gorm.DB
	wq     *writequeue.Manager
	logger *zap.Logger

	migrateOnce sync.Map // map[string]*sync.Once
}

func New(db *gorm.DB, wq *writequeue.Manager, logger *zap.Logger) *Dao {
	if logger == nil {
		logger = zap.NewNop()
	}
	if wq == nil {
		wq = writequeue.New(writequeue.DefaultConfig(), logger)
	}
	return &Dao{db: db, wq: wq, logger: logger}
}

func (d *Dao) Logger() *zap.Logger {
	return d.logger
}

// DB returns a session bound to ctx, running the table's migration once per process.
// DB 返回绑定 ctx 的会话，首次访问时自动迁移表结构
func (d *Dao) DB(ctx context.Context, table string) (*gorm.DB, error) {
	v, _ := d.migrateOnce.LoadOrStore(table, &migration{})
	m := v.(*migration)
	m.once.Do(func() {
		m.err = model.AutoMigrate(d.db, table)
		if m.err != nil {
			d.logger.Error("auto migrate failed", zap.String("table", table), zap.Error(m.err))
		}
	})
	if m.err != nil {
		return nil, errors.Wrapf(m.err, "migrate %s", table)
	}
	return d.db.WithContext(ctx), nil
}

type migration struct {
	once sync.Once
	err  error
}

// ExecuteWrite runs fn through the write queue of uid so writes of one user never overlap.
// ExecuteWrite 通过写队列串行执行同一用户的写操作
func (d *Dao) ExecuteWrite(ctx context.Context, uid string, tables []string, fn func(db *gorm.DB) error) error {
	for _, t := range tables {
		if _, err := d.DB(ctx, t); err != nil {
			return err
		}
	}
	return d.wq.Execute(ctx, uid, func() error {
		return fn(d.db.WithContext(ctx))
	})
}

// NewDBEngine opens the configured database.
func NewDBEngine(c DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(c)
	if err != nil {
		return nil, err
	}

	level := logger.Silent
	if c.Debug {
		level = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(level),
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   c.TablePrefix,
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	// 获取通用数据库对象 sql.DB ，然后使用其提供的功能
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if c.Type == "sqlite" || c.Type == "" {
		// sqlite 只允许一个写连接
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(c.MaxIdleConns)
		sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(10 * time.Minute)

	return db, nil
}

func dialectorFor(c DatabaseConfig) (gorm.Dialector, error) {
	switch c.Type {
	case "sqlite", "":
		if dir := filepath.Dir(c.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrap(err, "create database dir")
			}
		}
		return sqlite.Open(c.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"), nil
	case "mysql":
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=true&loc=Local",
			c.UserName, c.Password, c.Host, portOr(c.Port, 3306), c.Name, c.Charset)), nil
	case "postgres":
		return postgres.Open(fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, portOr(c.Port, 5432), c.UserName, c.Password, c.Name, c.SSLMode)), nil
	default:
		return nil, fmt.Errorf("unsupported database type %q", c.Type)
	}
}

func portOr(p, def int) int {
	if p == 0 {
		return def
	}
	return p
}
