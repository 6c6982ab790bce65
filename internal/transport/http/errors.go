package httptransport

// 通用错误消息
const (
	// 请求相关
	MsgInvalidRequest = "请求参数格式错误"

	// 认证相关
	MsgInvalidCredentials = "邮箱或密码错误"
	MsgTokenInvalid       = "无效的访问令牌"

	// 归档相关
	MsgArchiveFailed    = "归档邮件失败"
	MsgArchiveNotFound  = "归档记录不存在"
	MsgArchiveListFail  = "获取归档列表失败"
	MsgArchiveDelFailed = "删除归档记录失败"

	// 通知相关
	MsgNotifyDisabled = "通知外发未配置"
	MsgNotifyFailed   = "发送通知失败"

	// 服务器错误
	MsgInternalError = "服务器内部错误，请稍后重试"
)
