// Package apierror 提供 jrds 所有服务统一的错误类型
//
// 错误响应格式为 JSON：
//
//	{
//	    "errors": [
//	        {
//	            "code": "InstanceNotFound",
//	            "message": "The requested instance does not exist."
//	        }
//	    ],
//	    "requestID": "req-1234567890"
//	}
//
// 使用示例：
//
//	// 使用预定义的错误
//	return nil, apierror.ErrInstanceNotFound
//
//	// 包装预定义错误，附带原始错误
//	return nil, apierror.WrapError(apierror.ErrTransport, "publish create_user", err)
//
//	// 判断错误类别
//	if errors.Is(err, apierror.ErrQuotaExceeded) { ... }
//
// 预定义错误（错误代码 -> HTTP 状态码）：
//
//   - InstanceNotFound / SnapshotNotFound / FlavorNotFound / GuestStatusNotFound: 404
//   - MalformedMessage / InvalidParameter: 400
//   - InstanceNotReady: 409
//   - QuotaExceeded: 413
//   - GuestCommandFailed / ComputeFailed: 502
//   - GuestUnreachable: 504
//   - TransportError / InternalError: 500
package apierror
