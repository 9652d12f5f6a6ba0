package errors

import (
	"errors"
	"fmt"
)

// APIError 远端 REST 接口调用失败
// HTTP 非 2xx，或 Snipe-IT 返回 status != "success" 均归为此类
type APIError struct {
	Service    string // snipeit | jira
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s %s: %s", e.Service, e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("%s %s %s returned %d: %s", e.Service, e.Method, e.Path, e.StatusCode, e.Message)
}

// IsAPIError 判断 err 链中是否包含 APIError
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// StatusCode 提取 err 链中 APIError 的 HTTP 状态码，不存在时返回 0
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
