package logger

// 统一的日志字段命名常量
// 用于确保整个项目中日志字段命名的一致性，便于日志查询和分析
const (
	// FieldUID 用户 ID 字段
	FieldUID = "uid"

	// FieldAction 操作类型字段 (upload / restore / scheduled / export / import / unlock)
	FieldAction = "action"

	// FieldMode 触发方式字段 (manual / scheduled)
	FieldMode = "mode"

	// FieldDestination 备份目标字段 (webdav / local)
	FieldDestination = "destination"

	// FieldPath 文件路径字段
	FieldPath = "path"

	// FieldFileKey 远端文件名字段
	FieldFileKey = "fileKey"

	// FieldURL 远端地址字段，不含凭据
	FieldURL = "url"

	// FieldMethod HTTP 方法字段
	FieldMethod = "method"

	// FieldStatus HTTP 状态码字段
	FieldStatus = "status"

	// FieldDuration 耗时字段
	FieldDuration = "duration"

	// FieldError 错误信息字段
	FieldError = "error"

	// FieldSize 数据大小字段
	FieldSize = "size"

	// FieldTask 定时任务名称字段
	FieldTask = "task"

	// FieldInterval 备份周期字段
	FieldInterval = "interval"
)
