package dto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"accessory-sync/config"
	"accessory-sync/internal/model"
)

// ErrEmptyPayload 请求体为空
var ErrEmptyPayload = errors.New("payload is empty")

var issueKeyPattern = regexp.MustCompile(`/browse/([A-Z][A-Z0-9_]*-\d+)`)

// WebhookPayload 工单 Webhook 请求体
// 自定义字段的值可能是字符串、{"value": ...} 选项对象或二者组成的数组，统一拍平为逗号分隔字符串
type WebhookPayload struct {
	ReporterEmail string
	IssueURL      string
	IssueKey      string
	Fields        map[string]string
}

// UnmarshalJSON 解析顶层对象，逐个字段拍平
func (p *WebhookPayload) UnmarshalJSON(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return ErrEmptyPayload
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return ErrEmptyPayload
	}

	p.Fields = make(map[string]string, len(raw))
	for key, value := range raw {
		flat, err := flattenValue(value)
		if err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
		p.Fields[key] = flat
	}

	p.ReporterEmail = strings.TrimSpace(p.Fields["reporterEmail"])
	p.IssueURL = strings.TrimSpace(p.Fields["issueUrl"])
	p.IssueKey = strings.TrimSpace(p.Fields["issueKey"])
	return nil
}

// Validate 校验必填字段
func (p *WebhookPayload) Validate() error {
	if p.ReporterEmail == "" {
		return errors.New("reporterEmail is required")
	}
	return nil
}

// ToRequestPayload 按字段映射转换为领域请求
func (p *WebhookPayload) ToRequestPayload(fields *config.FieldsConfig) *model.RequestPayload {
	req := &model.RequestPayload{
		ReporterEmail:    p.ReporterEmail,
		IssueURL:         p.IssueURL,
		IssueKey:         p.IssueKey,
		LocationName:     strings.TrimSpace(p.Fields[fields.Location]),
		CompanyName:      strings.TrimSpace(p.Fields[fields.Company]),
		RequestTypeLabel: strings.TrimSpace(p.Fields[fields.RequestType]),
		AccessoryFields:  make(map[string]string, len(fields.Categories)),
	}
	for _, f := range fields.Categories {
		if v, ok := p.Fields[f.Key()]; ok {
			req.AccessoryFields[f.Key()] = v
		}
	}
	if req.IssueKey == "" {
		req.IssueKey = IssueKeyFromURL(req.IssueURL)
	}
	return req
}

// IssueKeyFromURL 从 .../browse/KEY-123 形式的链接中提取工单号
func IssueKeyFromURL(issueURL string) string {
	if m := issueKeyPattern.FindStringSubmatch(issueURL); m != nil {
		return m[1]
	}
	return ""
}

// flattenValue 将 JSON 值拍平为字符串；null 视为空串
func flattenValue(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil

	case '{':
		var obj struct {
			Value *json.RawMessage `json:"value"`
			Name  *string          `json:"name"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return "", err
		}
		switch {
		case obj.Value != nil:
			return flattenValue(*obj.Value)
		case obj.Name != nil:
			return *obj.Name, nil
		default:
			return "", nil
		}

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return "", err
		}
		parts := make([]string, 0, len(items))
		for _, item := range items {
			s, err := flattenValue(item)
			if err != nil {
				return "", err
			}
			if s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", "), nil

	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return "", err
		}
		return strconv.FormatBool(b), nil

	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return "", err
		}
		return n.String(), nil
	}
}

// CheckedOutRequest 查询借出记录请求
type CheckedOutRequest struct {
	ReporterEmail string `json:"reporterEmail" binding:"required,email"`
}
