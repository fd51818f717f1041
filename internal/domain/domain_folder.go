package domain

// Folder 文件夹领域模型
type Folder struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Icon     string `json:"icon"`
	IsSystem bool   `json:"isSystem,omitempty"`
	Order    int    `json:"order"`
}

// FolderAllID is the system folder that lists every note.
const FolderAllID = "all"

// DefaultFolders is the set seeded for a user that has no data yet.
// DefaultFolders 新用户的默认文件夹
func DefaultFolders() []Folder {
	return []Folder{
		{ID: FolderAllID, Name: "全部便签", Icon: "Layers", IsSystem: true, Order: 0},
		{ID: "personal", Name: "个人生活", Icon: "User", Order: 1},
		{ID: "work", Name: "工作任务", Icon: "Briefcase", Order: 2},
		{ID: "study", Name: "学习笔记", Icon: "BookOpen", Order: 3},
		{ID: "ideas", Name: "灵感创意", Icon: "Lightbulb", Order: 4},
	}
}
