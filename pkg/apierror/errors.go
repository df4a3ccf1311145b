package apierror

import "net/http"

// jrds 预定义错误
// 错误代码按照资源和故障类别划分，HTTP 状态码在这里统一定义，
// API 层根据 HTTPStatus 渲染响应
var (
	// ErrInstanceNotFound 实例不存在或已被删除
	ErrInstanceNotFound = &Error{
		Code:       "InstanceNotFound",
		Message:    "The requested instance does not exist.",
		HTTPStatus: http.StatusNotFound,
	}

	// ErrSnapshotNotFound 快照不存在或已被删除
	ErrSnapshotNotFound = &Error{
		Code:       "SnapshotNotFound",
		Message:    "The requested snapshot does not exist.",
		HTTPStatus: http.StatusNotFound,
	}

	// ErrFlavorNotFound 计算规格不存在
	ErrFlavorNotFound = &Error{
		Code:       "FlavorNotFound",
		Message:    "The requested flavor does not exist.",
		HTTPStatus: http.StatusNotFound,
	}

	// ErrGuestStatusNotFound 实例没有对应的 guest 状态记录
	ErrGuestStatusNotFound = &Error{
		Code:       "GuestStatusNotFound",
		Message:    "No guest status is recorded for the instance.",
		HTTPStatus: http.StatusNotFound,
	}

	// ErrInstanceNotReady 实例尚未完成引导，无法接收 guest 命令
	ErrInstanceNotReady = &Error{
		Code:       "InstanceNotReady",
		Message:    "The instance has not finished provisioning and cannot accept guest commands yet.",
		HTTPStatus: http.StatusConflict,
	}

	// ErrMalformedMessage 消息缺少必需字段或字段值非法
	ErrMalformedMessage = &Error{
		Code:       "MalformedMessage",
		Message:    "The message is missing a required field or carries an invalid value.",
		HTTPStatus: http.StatusBadRequest,
	}

	// ErrTransport 消息代理不可达或发布失败
	ErrTransport = &Error{
		Code:       "TransportError",
		Message:    "The message broker is unreachable or the publish failed.",
		HTTPStatus: http.StatusInternalServerError,
	}

	// ErrGuestUnreachable guest agent 在超时时间内没有应答
	// 与 ErrTransport 不同：消息已经投递成功，只是 guest 没有回复
	ErrGuestUnreachable = &Error{
		Code:       "GuestUnreachable",
		Message:    "The guest agent did not reply within the configured timeout.",
		HTTPStatus: http.StatusGatewayTimeout,
	}

	// ErrGuestCommandFailed guest agent 返回了显式的错误
	ErrGuestCommandFailed = &Error{
		Code:       "GuestCommandFailed",
		Message:    "The guest agent reported a failure while executing the command.",
		HTTPStatus: http.StatusBadGateway,
	}

	// ErrQuotaExceeded 请求的资源数量超过租户配额
	// 这是策略拒绝而不是系统故障，调用方可以减小请求后重试
	ErrQuotaExceeded = &Error{
		Code:       "QuotaExceeded",
		Message:    "The requested resource count exceeds the tenant quota.",
		HTTPStatus: http.StatusRequestEntityTooLarge,
	}

	// ErrComputeFailed 计算服务调用失败
	ErrComputeFailed = &Error{
		Code:       "ComputeFailed",
		Message:    "The compute provider request failed.",
		HTTPStatus: http.StatusBadGateway,
	}

	// ErrInternalError 内部错误
	ErrInternalError = &Error{
		Code:       "InternalError",
		Message:    "An internal error has occurred. Retry your request.",
		HTTPStatus: http.StatusInternalServerError,
	}

	// ErrInvalidParameter 请求参数非法
	ErrInvalidParameter = &Error{
		Code:       "InvalidParameter",
		Message:    "A request parameter is missing or invalid.",
		HTTPStatus: http.StatusBadRequest,
	}
)
