package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// OK is the success errno.
var OK = &Errno{Code: 0, HTTP: http.StatusOK, GRPCCode: codes.OK, MessageEN: "success", MessageZH: "成功"}

var (
	ErrInvalidParam     = NewRequestErr(ServiceCommon, 1, "Invalid parameter", "参数无效")
	ErrBind             = NewRequestErr(ServiceCommon, 2, "Failed to bind request body", "请求体解析失败")
	ErrPageNotFound     = NewNotFoundErr(ServiceCommon, 1, "Page not found", "页面不存在")
	ErrMethodNotAllowed = Register(New(MakeCode(ServiceCommon, CategoryRequest, 3), http.StatusMethodNotAllowed, codes.Unimplemented, "Method not allowed", "方法不允许"))
	ErrInternal         = NewInternalErr(ServiceCommon, 1, "Internal server error", "服务器内部错误")
	ErrPanic            = NewInternalErr(ServiceCommon, 2, "Internal server panic", "服务器内部异常")
	ErrCacheUnavailable = NewCacheErr(ServiceInfraCache, 1, "Cache unavailable", "缓存不可用")
)
