package model

import (
	"context"
	"fmt"
	"strings"
)

// RequestType 工单请求类型（封闭枚举）
type RequestType int

const (
	RequestStock RequestType = iota + 1
	RequestNew
	RequestReturn
)

// 工单选择器中的标签
const (
	LabelStock        = "Stock Accessory"
	LabelNew          = "New Accessory"
	LabelReturn       = "Return Accessory"
	LabelLegacyReturn = "(DO NOT USE) Return Accessory"
)

var requestTypeLabels = map[string]RequestType{
	LabelStock:        RequestStock,
	LabelNew:          RequestNew,
	LabelReturn:       RequestReturn,
	LabelLegacyReturn: RequestReturn,
}

// ParseRequestType 解析选择器标签，未知标签返回 false
func ParseRequestType(label string) (RequestType, bool) {
	rt, ok := requestTypeLabels[strings.TrimSpace(label)]
	return rt, ok
}

func (t RequestType) String() string {
	switch t {
	case RequestStock:
		return LabelStock
	case RequestNew:
		return LabelNew
	case RequestReturn:
		return LabelReturn
	default:
		return fmt.Sprintf("RequestType(%d)", int(t))
	}
}

// RequestHandler 每种请求类型对应一个方法
// 新增类型时在此添加方法，所有实现方都必须补齐
type RequestHandler interface {
	HandleStock(ctx context.Context, name string) error
	HandleNew(ctx context.Context, name string) error
	HandleReturn(ctx context.Context, name string) error
}

// Dispatch 按类型分派到 handler
func (t RequestType) Dispatch(ctx context.Context, h RequestHandler, name string) error {
	switch t {
	case RequestStock:
		return h.HandleStock(ctx, name)
	case RequestNew:
		return h.HandleNew(ctx, name)
	case RequestReturn:
		return h.HandleReturn(ctx, name)
	}
	panic(fmt.Sprintf("unhandled %s", t))
}

// RequestPayload 解析后的工单 Webhook 数据
type RequestPayload struct {
	ReporterEmail    string
	IssueURL         string
	IssueKey         string
	LocationName     string
	CompanyName      string
	RequestTypeLabel string
	// AccessoryFields 分类字段键 → 逗号分隔的配件名称
	AccessoryFields map[string]string
}

// AccessoryNames 按字段顺序提取配件名称：逗号拆分、去空白、丢弃空项
func (p *RequestPayload) AccessoryNames(fieldKeys []string) []string {
	var names []string
	for _, key := range fieldKeys {
		raw, ok := p.AccessoryFields[key]
		if !ok {
			continue
		}
		for _, part := range strings.Split(raw, ",") {
			if name := strings.TrimSpace(part); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}
