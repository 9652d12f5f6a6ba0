package snipeit

import (
	"encoding/json"
	"sort"
	"strings"
)

// IDName Snipe-IT 中常见的 {id, name} 嵌套对象（分类、公司、地点）
type IDName struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Accessory 配件记录
type Accessory struct {
	ID           int     `json:"id"`
	Name         string  `json:"name"`
	Qty          int     `json:"qty"`
	RemainingQty *int    `json:"remaining_qty"`
	Remaining    *int    `json:"remaining"` // 旧版本字段名
	Category     *IDName `json:"category"`
	Company      *IDName `json:"company"`
	Location     *IDName `json:"location"`
}

// Available 可借出数量，兼容新旧两种字段名
func (a Accessory) Available() int {
	switch {
	case a.RemainingQty != nil:
		return *a.RemainingQty
	case a.Remaining != nil:
		return *a.Remaining
	default:
		return a.Qty
	}
}

// User 用户记录
type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// DateField Snipe-IT 格式化日期对象
type DateField struct {
	Datetime  string `json:"datetime"`
	Formatted string `json:"formatted"`
}

// CheckedOut /accessories/{id}/checkedout 的一行：一次借出记录
type CheckedOut struct {
	AssignedPivotID int        `json:"assigned_pivot_id"`
	ID              int        `json:"id"` // 借用人 ID
	Username        string     `json:"username"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Note            string     `json:"note"`
	LastCheckout    *DateField `json:"last_checkout"`
}

// CreateAccessoryRequest 创建配件请求体
type CreateAccessoryRequest struct {
	Name       string `json:"name"`
	Qty        int    `json:"qty"`
	CategoryID int    `json:"category_id"`
	LocationID int    `json:"location_id"`
	CompanyID  int    `json:"company_id"`
}

type checkoutRequest struct {
	AssignedTo int    `json:"assigned_to"`
	Note       string `json:"note,omitempty"`
}

type quantityRequest struct {
	Qty int `json:"qty"`
}

type nameRequest struct {
	Name string `json:"name"`
}

// rows 列表接口通用分页结构
type rows[T any] struct {
	Total int `json:"total"`
	Rows  []T `json:"rows"`
}

// envelope 写操作（以及部分读操作的失败）返回的状态信封
type envelope struct {
	Status   string          `json:"status"`
	Messages json.RawMessage `json:"messages"`
	Error    string          `json:"error"`
	Payload  json.RawMessage `json:"payload"`
}

// message 提取信封中的可读错误信息；messages 可能是字符串或字段错误表
func (e envelope) message() string {
	if e.Error != "" {
		return e.Error
	}
	if len(e.Messages) == 0 || string(e.Messages) == "null" {
		return "unknown error"
	}

	var s string
	if err := json.Unmarshal(e.Messages, &s); err == nil {
		return s
	}

	var fields map[string][]string
	if err := json.Unmarshal(e.Messages, &fields); err == nil {
		parts := make([]string, 0, len(fields))
		for k, msgs := range fields {
			parts = append(parts, k+": "+strings.Join(msgs, " "))
		}
		sort.Strings(parts)
		return strings.Join(parts, "; ")
	}

	return string(e.Messages)
}
