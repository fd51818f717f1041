// Package dto Defines data transfer objects (request parameters and response structs)
// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

// UploadRequest 手动上传请求
type UploadRequest struct {
	// Confirm answers the overwrite question when the remote backup is newer.
	Confirm bool `json:"confirm" form:"confirm" example:"false"`
}

// RestoreRequest 从云端恢复请求
type RestoreRequest struct {
	Confirm bool   `json:"confirm" form:"confirm" example:"true"`
	Source  string `json:"source" form:"source" binding:"omitempty,oneof=sync auto" example:"sync"`
}

// AutoBackup reports whether the rolling scheduled backup was chosen.
func (r RestoreRequest) AutoBackup() bool {
	return r.Source == "auto"
}

// ExportRequest 导出请求，Dir 为空时直接返回文件
type ExportRequest struct {
	Dir string `json:"dir" form:"dir"`
}

// ExportDTO 导出到目录的结果
type ExportDTO struct {
	Path string `json:"path"`
}

// DownloadDTO 待下载文件信息
type DownloadDTO struct {
	Name    string `json:"name"`
	Pending bool   `json:"pending"`
}
