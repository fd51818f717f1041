// Package model 数据库模型
package model

import (
	"gorm.io/gorm"
)

// Note 笔记表，(user_id, id) 联合主键
type Note struct {
	UserID       string `gorm:"column:user_id;primaryKey;size:128;index:idx_note_user" json:"userId" form:"userId"`
	ID           string `gorm:"column:id;primaryKey;size:128" json:"id" form:"id"`
	Title        string `gorm:"column:title;type:text" json:"title" form:"title"`
	Content      string `gorm:"column:content;type:text" json:"content" form:"content"`
	TagsJSON     string `gorm:"column:tags;type:text" json:"tags" form:"tags"`
	FolderID     string `gorm:"column:folder_id;size:128;index:idx_note_folder" json:"folderId" form:"folderId"`
	IsCompleted  bool   `gorm:"column:is_completed;not null" json:"isCompleted" form:"isCompleted"`
	IsImportant  bool   `gorm:"column:is_important;not null" json:"isImportant" form:"isImportant"`
	IsPinned     bool   `gorm:"column:is_pinned;not null" json:"isPinned" form:"isPinned"`
	Color        string `gorm:"column:color;size:32" json:"color" form:"color"`
	Ctime        int64  `gorm:"column:created_at;not null" json:"createdAt" form:"createdAt"`
	Mtime        int64  `gorm:"column:updated_at;not null" json:"updatedAt" form:"updatedAt"`
	IsLocked     bool   `gorm:"column:is_locked;not null" json:"isLocked" form:"isLocked"`
	Password     string `gorm:"column:password;size:255" json:"password" form:"password"`
	IsMarkdown   bool   `gorm:"column:is_markdown;not null" json:"isMarkdown" form:"isMarkdown"`
	EditorType   string `gorm:"column:editor_type;size:16" json:"editorType" form:"editorType"`
	ReminderTime int64  `gorm:"column:reminder_time;not null" json:"reminderTime" form:"reminderTime"`
}

func (*Note) TableName() string {
	return "note"
}

// Folder 文件夹表
type Folder struct {
	UserID   string `gorm:"column:user_id;primaryKey;size:128;index:idx_folder_user" json:"userId" form:"userId"`
	ID       string `gorm:"column:id;primaryKey;size:128" json:"id" form:"id"`
	Name     string `gorm:"column:name;size:255" json:"name" form:"name"`
	Icon     string `gorm:"column:icon;size:64" json:"icon" form:"icon"`
	IsSystem bool   `gorm:"column:is_system;not null" json:"isSystem" form:"isSystem"`
	Order    int    `gorm:"column:sort_order;not null" json:"order" form:"order"`
}

func (*Folder) TableName() string {
	return "folder"
}

// Setting 安装级别的键值配置
type Setting struct {
	Key   string `gorm:"column:setting_key;primaryKey;size:128" json:"key" form:"key"`
	Value string `gorm:"column:value;type:text" json:"value" form:"value"`
	Mtime int64  `gorm:"column:updated_at;not null" json:"updatedAt" form:"updatedAt"`
}

func (*Setting) TableName() string {
	return "setting"
}

// AutoMigrate 按名称迁移表结构，空 key 迁移全部
func AutoMigrate(db *gorm.DB, key string) error {
	switch key {
	case "Note":
		return db.AutoMigrate(&Note{})
	case "Folder":
		return db.AutoMigrate(&Folder{})
	case "Setting":
		return db.AutoMigrate(&Setting{})
	case "":
		return db.AutoMigrate(&Note{}, &Folder{}, &Setting{})
	}
	return nil
}
