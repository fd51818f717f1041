package code

var (
	Success = NewSuss(1, lang{en: "Success", zh_cn: "成功"})

	SuccessUploaded         = NewSuss(2, lang{en: "Backup uploaded to WebDAV", zh_cn: "备份已上传至云端"})
	SuccessRestored         = NewSuss(3, lang{en: "Data restored", zh_cn: "数据恢复成功"})
	SuccessAutoBackupRemote = NewSuss(4, lang{en: "Auto backup succeeded (WebDAV)", zh_cn: "自动备份成功 (WebDAV)"})
	SuccessAutoBackupLocal  = NewSuss(5, lang{en: "Auto backup saved", zh_cn: "自动备份已保存"})
	SuccessAutoBackupOffer  = NewSuss(6, lang{en: "Auto backup ready for download", zh_cn: "自动备份已下载"})
	SuccessExported         = NewSuss(7, lang{en: "Local backup exported", zh_cn: "本地备份已导出"})
	SuccessImported         = NewSuss(8, lang{en: "Data imported", zh_cn: "数据导入成功"})
	SuccessConnected        = NewSuss(9, lang{en: "WebDAV connection OK", zh_cn: "WebDAV 连接成功"})
	SuccessUploadCancelled  = NewSuss(10, lang{en: "Upload cancelled, remote backup kept", zh_cn: "已取消上传，保留云端备份"})
	SuccessRestoreCancelled = NewSuss(11, lang{en: "Restore cancelled", zh_cn: "已取消恢复"})
	SuccessSettingsSaved    = NewSuss(12, lang{en: "Backup settings saved", zh_cn: "备份设置已保存"})

	ErrorServerInternal = NewError(500, lang{en: "Internal server error", zh_cn: "服务器内部错误"})
	ErrorInvalidParams  = NewError(501, lang{en: "Invalid parameters", zh_cn: "参数错误"})
	ErrorNotFound       = NewError(502, lang{en: "Resource not found", zh_cn: "资源不存在"})
	ErrorTooManyRequest = NewError(503, lang{en: "Too many requests", zh_cn: "请求过多"})
	ErrorTokenRequired  = NewError(504, lang{en: "Relay token required", zh_cn: "缺少中继令牌"})
	ErrorTokenInvalid   = NewError(505, lang{en: "Relay token invalid or expired", zh_cn: "中继令牌无效或已过期"})
	ErrorUnhealthy      = NewError(506, lang{en: "Service unhealthy", zh_cn: "服务状态异常"})

	// snapshot
	ErrorMalformedSnapshot = NewError(1001, lang{en: "Invalid backup file: notes or folders missing", zh_cn: "无效的备份文件：缺少 notes 或 folders"})
	ErrorSnapshotEncode    = NewError(1002, lang{en: "Failed to build backup data", zh_cn: "备份数据生成失败"})

	// remote store
	ErrorRemoteNotConfigured = NewError(1101, lang{en: "Please configure WebDAV first", zh_cn: "请先配置 WebDAV"})
	ErrorRemoteUnavailable   = NewError(1102, lang{en: "WebDAV server unreachable", zh_cn: "WebDAV 无法连接"})
	ErrorRemoteFileNotFound  = NewError(1103, lang{en: "No backup file found on WebDAV", zh_cn: "云端未找到备份文件"})
	ErrorRemoteRejected      = NewError(1104, lang{en: "WebDAV server rejected the request", zh_cn: "WebDAV 服务器拒绝了请求"})
	ErrorRemoteUploadFailed  = NewError(1105, lang{en: "Upload to WebDAV failed", zh_cn: "上传至 WebDAV 失败"})

	// sync orchestration
	ErrorSyncInProgress  = NewError(1201, lang{en: "A sync is already in progress", zh_cn: "同步正在进行中"})
	ErrorLocalWrite      = NewError(1202, lang{en: "Auto backup write failed, check directory permissions", zh_cn: "自动备份写入失败，请检查目录权限"})
	ErrorRestoreFailed   = NewError(1203, lang{en: "Restore failed", zh_cn: "恢复失败"})
	ErrorImportFailed    = NewError(1204, lang{en: "Import failed", zh_cn: "导入失败"})
	ErrorExportFailed    = NewError(1205, lang{en: "Export failed", zh_cn: "导出失败"})
	ErrorNoDownloadOffer = NewError(1206, lang{en: "No backup waiting for download", zh_cn: "没有待下载的备份"})
	ErrorLocalPathUnset  = NewError(1207, lang{en: "Local backup directory is not set", zh_cn: "未设置本地备份目录"})
	ErrorShuttingDown    = NewError(1208, lang{en: "Service is shutting down", zh_cn: "服务正在关闭"})

	// settings
	ErrorSettingInvalid = NewError(1301, lang{en: "Invalid backup settings", zh_cn: "备份设置无效"})
	ErrorSettingSave    = NewError(1302, lang{en: "Failed to save backup settings", zh_cn: "备份设置保存失败"})

	// notes
	ErrorUnlockFailure = NewError(1401, lang{en: "Wrong password, please retry", zh_cn: "密码错误，请重新输入"})
)

// confirmation prompts; the console confirmer adds the question itself
var (
	PromptConflictTitle   = lang{en: "Version conflict", zh_cn: "版本冲突"}
	PromptConflictMessage = lang{en: "The remote backup looks newer than local data (remote: %s). Overwriting may lose remote changes.", zh_cn: "云端备份比本地数据更新（云端：%s），覆盖可能丢失云端的修改。"}
	PromptRestoreTitle    = lang{en: "Confirm restore", zh_cn: "确认恢复"}
	PromptRestoreMessage  = lang{en: "This downloads the remote backup and OVERWRITES all local data. This cannot be undone.", zh_cn: "将下载云端备份并覆盖本地全部数据，此操作不可撤销。"}
	PromptContinue        = lang{en: "Continue?", zh_cn: "是否继续？"}
)
