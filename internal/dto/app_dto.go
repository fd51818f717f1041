package dto

// VersionDTO 版本信息
type VersionDTO struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GitTag    string `json:"gitTag"`
	BuildTime string `json:"buildTime"`
}

// HealthDTO 健康检查响应
type HealthDTO struct {
	Status    string  `json:"status"`    // "healthy" 或 "unhealthy"
	Version   string  `json:"version"`   // 服务版本号
	Uptime    float64 `json:"uptime"`    // 运行时间（秒）
	Database  string  `json:"database"`  // "connected" 或 "error"
	Platform  string  `json:"platform"`  // desktop | browser
	Transport string  `json:"transport"` // direct | relay
}

// UnlockRequest 解锁笔记请求
type UnlockRequest struct {
	ID     string `json:"id" form:"id" binding:"required"`
	Secret string `json:"secret" form:"secret" binding:"required"`
}

// LibraryDTO 当前用户的笔记与文件夹
type LibraryDTO struct {
	Notes   interface{} `json:"notes"`
	Folders interface{} `json:"folders"`
}
