package response

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const textContentType = "text/plain; charset=utf-8"

// Text 以纯文本返回处理结果
// Webhook 调用方只读取正文，状态码固定为 200，失败信息写在正文中
func Text(c *gin.Context, body string) {
	c.Data(http.StatusOK, textContentType, []byte(body))
}

// TextError 以纯文本返回顶层错误
func TextError(c *gin.Context, err error) {
	Text(c, ErrorText(err))
}

// ErrorText 顶层错误的正文格式
func ErrorText(err error) string {
	return "Error: " + err.Error()
}

// Summary 渲染处理摘要正文
//
//	Processing Summary:
//
//	<header>
//
//	- [INFO] ...
func Summary(header string, lines []string) string {
	var b strings.Builder
	b.WriteString("Processing Summary:\n\n")
	if header != "" {
		b.WriteString(header)
		b.WriteString("\n\n")
	}
	for _, line := range lines {
		b.WriteString("- ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
