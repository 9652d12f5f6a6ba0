package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"accessory-sync/config"
	apperrors "accessory-sync/pkg/errors"
)

const serviceName = "jira"

// FieldContext 自定义字段上下文
type FieldContext struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Option 自定义字段的可选项
type Option struct {
	ID       string `json:"id,omitempty"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled"`
}

// page Jira 分页响应
type page[T any] struct {
	StartAt    int  `json:"startAt"`
	MaxResults int  `json:"maxResults"`
	Total      int  `json:"total"`
	IsLast     bool `json:"isLast"`
	Values     []T  `json:"values"`
}

type optionsRequest struct {
	Options []Option `json:"options"`
}

// Client Jira REST API v3 客户端
type Client struct {
	URL        string
	Email      string
	APIToken   string
	HTTPClient *http.Client
}

// NewClient 创建 Jira 客户端
func NewClient(cfg *config.JiraConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		URL:        strings.TrimSuffix(cfg.BaseURL, "/"),
		Email:      cfg.Email,
		APIToken:   cfg.APIToken,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// ── 自定义字段 ──

// GetFieldContexts 获取自定义字段的全部上下文
func (c *Client) GetFieldContexts(ctx context.Context, fieldKey string) ([]FieldContext, error) {
	path := fmt.Sprintf("/rest/api/3/field/%s/context", url.PathEscape(fieldKey))
	contexts, err := listAll[FieldContext](ctx, c, path)
	if err != nil {
		return nil, fmt.Errorf("get field contexts %s: %w", fieldKey, err)
	}
	return contexts, nil
}

// ListOptions 获取上下文下的全部选项
func (c *Client) ListOptions(ctx context.Context, fieldKey, contextID string) ([]Option, error) {
	options, err := listAll[Option](ctx, c, optionsPath(fieldKey, contextID))
	if err != nil {
		return nil, fmt.Errorf("list options %s/%s: %w", fieldKey, contextID, err)
	}
	return options, nil
}

// AddOptions 批量新增选项
func (c *Client) AddOptions(ctx context.Context, fieldKey, contextID string, values []string) ([]Option, error) {
	req := optionsRequest{Options: make([]Option, 0, len(values))}
	for _, v := range values {
		req.Options = append(req.Options, Option{Value: v})
	}

	var created struct {
		Options []Option `json:"options"`
	}
	if err := c.sendJSON(ctx, http.MethodPost, optionsPath(fieldKey, contextID), req, &created); err != nil {
		return nil, fmt.Errorf("add options %s/%s: %w", fieldKey, contextID, err)
	}
	return created.Options, nil
}

// UpdateOptions 批量更新已有选项（按 ID 覆盖 value/disabled）
func (c *Client) UpdateOptions(ctx context.Context, fieldKey, contextID string, options []Option) error {
	if err := c.sendJSON(ctx, http.MethodPut, optionsPath(fieldKey, contextID), optionsRequest{Options: options}, nil); err != nil {
		return fmt.Errorf("update options %s/%s: %w", fieldKey, contextID, err)
	}
	return nil
}

// DeleteOption 删除单个选项
func (c *Client) DeleteOption(ctx context.Context, fieldKey, contextID, optionID string) error {
	path := optionsPath(fieldKey, contextID) + "/" + url.PathEscape(optionID)
	if _, err := c.doRequest(ctx, http.MethodDelete, path, nil); err != nil {
		return fmt.Errorf("delete option %s: %w", optionID, err)
	}
	return nil
}

// ── 评论 ──

// AddComment 以纯文本为工单添加评论（转换为 ADF）
func (c *Client) AddComment(ctx context.Context, issueKey, text string) error {
	path := fmt.Sprintf("/rest/api/3/issue/%s/comment", url.PathEscape(issueKey))
	body := map[string]interface{}{"body": PlainTextToADF(text)}
	if err := c.sendJSON(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("add comment to %s: %w", issueKey, err)
	}
	return nil
}

// PlainTextToADF 将纯文本按行转换为 Atlassian Document Format
func PlainTextToADF(text string) json.RawMessage {
	paragraphs := strings.Split(text, "\n")
	content := make([]interface{}, 0, len(paragraphs))
	for _, para := range paragraphs {
		inline := []interface{}{}
		if para != "" {
			inline = append(inline, map[string]interface{}{"type": "text", "text": para})
		}
		content = append(content, map[string]interface{}{
			"type":    "paragraph",
			"content": inline,
		})
	}

	data, _ := json.Marshal(map[string]interface{}{
		"type":    "doc",
		"version": 1,
		"content": content,
	})
	return data
}

// ── 内部实现 ──

func optionsPath(fieldKey, contextID string) string {
	return fmt.Sprintf("/rest/api/3/field/%s/context/%s/option", url.PathEscape(fieldKey), url.PathEscape(contextID))
}

// listAll 按 startAt 翻页读取 values
func listAll[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var all []T
	startAt := 0

	for {
		apiURL := path + "?startAt=" + strconv.Itoa(startAt)
		body, err := c.doRequest(ctx, http.MethodGet, apiURL, nil)
		if err != nil {
			return nil, err
		}

		var p page[T]
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("parse response: %w", err)
		}

		all = append(all, p.Values...)
		startAt += len(p.Values)

		if p.IsLast || len(p.Values) == 0 || (p.Total > 0 && startAt >= p.Total) {
			break
		}
	}

	return all, nil
}

func (c *Client) sendJSON(ctx context.Context, method, path string, reqBody, out interface{}) error {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	body, err := c.doRequest(ctx, method, path, data)
	if err != nil {
		return err
	}

	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

// doRequest 执行带认证的 HTTP 请求并返回响应体
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("jira URL not configured")
	}
	if c.APIToken == "" {
		return nil, fmt.Errorf("jira API token not configured")
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.setAuth(req)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apperrors.APIError{
			Service:    serviceName,
			Method:     method,
			Path:       strings.SplitN(path, "?", 2)[0],
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(respBody)),
		}
	}

	return respBody, nil
}

// setAuth 配置了邮箱时使用 Basic（Jira Cloud），否则使用 Bearer（Data Center PAT）
func (c *Client) setAuth(req *http.Request) {
	if c.Email != "" {
		auth := base64.StdEncoding.EncodeToString([]byte(c.Email + ":" + c.APIToken))
		req.Header.Set("Authorization", "Basic "+auth)
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.APIToken)
}
