// Package domain 定义领域模型和接口
package domain

import "context"

// NoteRepository 笔记仓储接口
type NoteRepository interface {
	// ListByUser 获取用户全部笔记，按创建时间倒序
	ListByUser(ctx context.Context, uid string) ([]Note, error)

	// Get 根据 ID 获取笔记
	Get(ctx context.Context, uid, id string) (*Note, error)

	// Save 创建或更新笔记
	Save(ctx context.Context, uid string, note *Note) error

	// Delete 删除笔记
	Delete(ctx context.Context, uid, id string) error
}

// FolderRepository 文件夹仓储接口
type FolderRepository interface {
	// ListByUser 获取用户全部文件夹，按 order 升序
	ListByUser(ctx context.Context, uid string) ([]Folder, error)

	Get(ctx context.Context, uid, id string) (*Folder, error)

	Save(ctx context.Context, uid string, folder *Folder) error

	Delete(ctx context.Context, uid, id string) error
}

// DatasetRepository works on all of a user's records at once.
// DatasetRepository 以用户为单位整体读写数据
type DatasetRepository interface {
	// Load 读取用户全部笔记与文件夹
	Load(ctx context.Context, uid string) ([]Note, []Folder, error)

	// ReplaceAll deletes every note and folder of uid and inserts the given ones
	// in a single transaction. On error nothing changes.
	// ReplaceAll 在一个事务内删除用户全部数据并写入新数据
	ReplaceAll(ctx context.Context, uid string, notes []Note, folders []Folder) error

	// Merge upserts the given records without deleting anything.
	// Merge 合并导入，不删除已有数据
	Merge(ctx context.Context, uid string, notes []Note, folders []Folder) error
}

// SettingRepository 设置仓储接口，值为 JSON 文本
type SettingRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}
