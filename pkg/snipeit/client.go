package snipeit

import (
	"bytes"
	"context"
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

const serviceName = "snipeit"

// userSearchLimit 用户搜索只取第一页
const userSearchLimit = 50

// Client Snipe-IT REST API 客户端
type Client struct {
	BaseURL    string // 形如 https://example.snipe-it.io/api/v1
	Token      string
	PageSize   int
	HTTPClient *http.Client
}

// NewClient 创建 Snipe-IT 客户端
func NewClient(cfg *config.SnipeITConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 500
	}
	return &Client{
		BaseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		Token:      cfg.Token,
		PageSize:   pageSize,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// ── 配件 ──

// SearchAccessories 按名称模糊搜索配件（服务端子串匹配，调用方自行精确过滤）
func (c *Client) SearchAccessories(ctx context.Context, search string) ([]Accessory, error) {
	return listAll[Accessory](ctx, c, "/accessories", url.Values{"search": {search}})
}

// ListAccessories 列出全部配件
func (c *Client) ListAccessories(ctx context.Context) ([]Accessory, error) {
	return listAll[Accessory](ctx, c, "/accessories", nil)
}

// CreateAccessory 创建配件
func (c *Client) CreateAccessory(ctx context.Context, req CreateAccessoryRequest) (*Accessory, error) {
	var created Accessory
	if err := c.mutate(ctx, http.MethodPost, "/accessories", req, &created); err != nil {
		return nil, fmt.Errorf("create accessory %q: %w", req.Name, err)
	}
	return &created, nil
}

// UpdateAccessoryQuantity 修改配件总数量
func (c *Client) UpdateAccessoryQuantity(ctx context.Context, id, qty int) (*Accessory, error) {
	var updated Accessory
	path := "/accessories/" + strconv.Itoa(id)
	if err := c.mutate(ctx, http.MethodPatch, path, quantityRequest{Qty: qty}, &updated); err != nil {
		return nil, fmt.Errorf("update accessory %d quantity: %w", id, err)
	}
	return &updated, nil
}

// CheckoutAccessory 将一件配件借出给用户，note 记录来源工单
func (c *Client) CheckoutAccessory(ctx context.Context, id, userID int, note string) error {
	path := "/accessories/" + strconv.Itoa(id) + "/checkout"
	if err := c.mutate(ctx, http.MethodPost, path, checkoutRequest{AssignedTo: userID, Note: note}, nil); err != nil {
		return fmt.Errorf("checkout accessory %d: %w", id, err)
	}
	return nil
}

// CheckinAccessory 按借出记录 ID（assigned_pivot_id）归还配件
func (c *Client) CheckinAccessory(ctx context.Context, assignedPivotID int) error {
	path := "/accessories/" + strconv.Itoa(assignedPivotID) + "/checkin"
	if err := c.mutate(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("checkin accessory pivot %d: %w", assignedPivotID, err)
	}
	return nil
}

// ListCheckedOut 列出某配件当前的借出记录
func (c *Client) ListCheckedOut(ctx context.Context, accessoryID int) ([]CheckedOut, error) {
	return listAll[CheckedOut](ctx, c, "/accessories/"+strconv.Itoa(accessoryID)+"/checkedout", nil)
}

// ── 用户 ──

// SearchUsers 搜索用户
func (c *Client) SearchUsers(ctx context.Context, query string) ([]User, error) {
	var page rows[User]
	params := url.Values{"search": {query}, "limit": {strconv.Itoa(userSearchLimit)}}
	if err := c.get(ctx, "/users", params, &page); err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return page.Rows, nil
}

// ListUserAccessories 列出借给某用户的配件
func (c *Client) ListUserAccessories(ctx context.Context, userID int) ([]Accessory, error) {
	return listAll[Accessory](ctx, c, "/users/"+strconv.Itoa(userID)+"/accessories", nil)
}

// ── 地点 / 公司 ──

// ListLocations 列出全部地点
func (c *Client) ListLocations(ctx context.Context) ([]IDName, error) {
	return listAll[IDName](ctx, c, "/locations", url.Values{"sort": {"created_at"}})
}

// ListCompanies 列出全部公司
func (c *Client) ListCompanies(ctx context.Context) ([]IDName, error) {
	return listAll[IDName](ctx, c, "/companies", nil)
}

// CreateLocation 创建地点
func (c *Client) CreateLocation(ctx context.Context, name string) (*IDName, error) {
	var created IDName
	if err := c.mutate(ctx, http.MethodPost, "/locations", nameRequest{Name: name}, &created); err != nil {
		return nil, fmt.Errorf("create location %q: %w", name, err)
	}
	return &created, nil
}

// CreateCompany 创建公司
func (c *Client) CreateCompany(ctx context.Context, name string) (*IDName, error) {
	var created IDName
	if err := c.mutate(ctx, http.MethodPost, "/companies", nameRequest{Name: name}, &created); err != nil {
		return nil, fmt.Errorf("create company %q: %w", name, err)
	}
	return &created, nil
}

// ── 内部实现 ──

// listAll 按 limit/offset 翻页读取列表接口的全部行
func listAll[T any](ctx context.Context, c *Client, path string, params url.Values) ([]T, error) {
	var all []T
	offset := 0

	for {
		q := url.Values{}
		for k, v := range params {
			q[k] = v
		}
		q.Set("limit", strconv.Itoa(c.PageSize))
		q.Set("offset", strconv.Itoa(offset))

		var page rows[T]
		if err := c.get(ctx, path, q, &page); err != nil {
			return nil, fmt.Errorf("list %s: %w", path, err)
		}

		all = append(all, page.Rows...)
		offset += len(page.Rows)

		if len(page.Rows) == 0 || offset >= page.Total {
			break
		}
	}

	return all, nil
}

// get 执行读请求；Snipe-IT 的部分失败以 200 + status=error 返回
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	body, err := c.doRequest(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return err
	}

	var probe envelope
	if err := json.Unmarshal(body, &probe); err == nil && probe.Status == "error" {
		return &apperrors.APIError{Service: serviceName, Method: http.MethodGet, Path: path, StatusCode: http.StatusOK, Message: probe.message()}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// mutate 执行写请求，要求信封 status=success；payload 解码到 out（可为 nil）
func (c *Client) mutate(ctx context.Context, method, path string, reqBody, out interface{}) error {
	var data []byte
	if reqBody != nil {
		var err error
		data, err = json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	body, err := c.doRequest(ctx, method, path, nil, data)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	if env.Status != "success" {
		return &apperrors.APIError{Service: serviceName, Method: method, Path: path, StatusCode: http.StatusOK, Message: env.message()}
	}

	if out != nil && len(env.Payload) > 0 && string(env.Payload) != "null" {
		if err := json.Unmarshal(env.Payload, out); err != nil {
			return fmt.Errorf("parse payload: %w", err)
		}
	}
	return nil
}

// doRequest 执行带认证的 HTTP 请求并返回响应体；非 2xx 返回 APIError
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, body []byte) ([]byte, error) {
	if c.BaseURL == "" {
		return nil, fmt.Errorf("snipe-it URL not configured")
	}
	if c.Token == "" {
		return nil, fmt.Errorf("snipe-it API token not configured")
	}

	apiURL := c.BaseURL + path
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.Token)
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

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(respBody))
		var env envelope
		if err := json.Unmarshal(respBody, &env); err == nil && (env.Error != "" || len(env.Messages) > 0) {
			msg = env.message()
		}
		return nil, &apperrors.APIError{Service: serviceName, Method: method, Path: path, StatusCode: resp.StatusCode, Message: msg}
	}

	return respBody, nil
}
