package dto

// WebDAVConfig 云端连接参数
type WebDAVConfig struct {
	URL      string `json:"url" form:"url" binding:"omitempty,url" example:"https://dav.example.com/notes/"`
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// ConnectionRequest 测试连接请求，地址必填
type ConnectionRequest struct {
	URL      string `json:"url" form:"url" binding:"required,url" example:"https://dav.example.com/notes/"`
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// SettingsRequest 保存备份设置请求
type SettingsRequest struct {
	Interval  string       `json:"interval" form:"interval" binding:"required,oneof=off 15m 1h 6h 12h 24h" example:"1h"`
	Location  string       `json:"location" form:"location" binding:"required,oneof=local webdav" example:"webdav"`
	WebDAV    WebDAVConfig `json:"webdav"`
	LocalPath string       `json:"localPath" form:"localPath"`
}

// SettingsDTO 备份设置，密码已脱敏
type SettingsDTO struct {
	Interval       string       `json:"interval"`
	Location       string       `json:"location"`
	WebDAV         WebDAVConfig `json:"webdav"`
	LocalPath      string       `json:"localPath"`
	LastBackupTime int64        `json:"lastBackupTime"`
	// NextCheck is the earliest time, in epoch ms, a scheduled backup can run; 0 when off.
	NextCheck int64  `json:"nextCheck"`
	State     string `json:"state"`
	// Pending names a browser download waiting to be fetched.
	Pending string `json:"pending,omitempty"`
}
