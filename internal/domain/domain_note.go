package domain

import "github.com/haierkeys/bento-note-sync/pkg/code"

// EditorType 编辑器类型
type EditorType string

const (
	EditorPlain    EditorType = "plain"
	EditorMarkdown EditorType = "markdown"
	EditorRich     EditorType = "rich"
)

// Note 笔记领域模型，json 字段即备份文件中的字段
type Note struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	Tags         []string   `json:"tags"`
	FolderID     string     `json:"folderId"`
	IsCompleted  bool       `json:"isCompleted"`
	IsImportant  bool       `json:"isImportant"`
	IsPinned     bool       `json:"isPinned,omitempty"`
	Color        string     `json:"color"`
	CreatedAt    int64      `json:"createdAt"`
	UpdatedAt    int64      `json:"updatedAt"`
	IsLocked     bool       `json:"isLocked,omitempty"`
	Password     string     `json:"password,omitempty"`
	IsMarkdown   bool       `json:"isMarkdown,omitempty"`
	EditorType   EditorType `json:"editorType,omitempty"`
	ReminderTime int64      `json:"reminderTime,omitempty"`
}

// Unlock checks secret against a locked note. Unlocked notes always open.
// Unlock 校验笔记密码，错误时返回 code.ErrorUnlockFailure
func (n *Note) Unlock(secret string) error {
	if !n.IsLocked {
		return nil
	}
	if secret != n.Password {
		return code.ErrorUnlockFailure
	}
	return nil
}
