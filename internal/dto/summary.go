package dto

import (
	"fmt"

	"accessory-sync/pkg/response"
)

// ── 配件处理 ──

// RunSummary 单次配件处理运行的结果
type RunSummary struct {
	IssueKey  string   `json:"issue_key,omitempty"`
	Requested int      `json:"requested"`
	Succeeded int      `json:"succeeded"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Warnings  int      `json:"warnings"`
	Errors    int      `json:"errors"`
	Lines     []string `json:"lines"`
}

// Header 计数行
func (s *RunSummary) Header() string {
	return fmt.Sprintf("Requested: %d | Succeeded: %d | Skipped: %d | Failed: %d (warnings: %d, errors: %d)",
		s.Requested, s.Succeeded, s.Skipped, s.Failed, s.Warnings, s.Errors)
}

// Text 渲染纯文本摘要
func (s *RunSummary) Text() string {
	return response.Summary(s.Header(), s.Lines)
}

// ── 字段同步 ──

// FieldSyncResult 单个自定义字段的同步结果
type FieldSyncResult struct {
	FieldID   string `json:"field_id"`
	Category  string `json:"category"`
	Added     int    `json:"added"`
	Removed   int    `json:"removed"`
	Reenabled int    `json:"reenabled"`
	Error     string `json:"error,omitempty"`
}

// Line 渲染为摘要行
func (r FieldSyncResult) Line() string {
	if r.Error != "" {
		return fmt.Sprintf("[ERROR] %s (%s): %s", r.FieldID, r.Category, r.Error)
	}
	line := fmt.Sprintf("[INFO] %s (%s): Added %d new options and removed %d obsolete options.",
		r.FieldID, r.Category, r.Added, r.Removed)
	if r.Reenabled > 0 {
		line += fmt.Sprintf(" Re-enabled %d options.", r.Reenabled)
	}
	return line
}

// FieldSyncText 渲染多字段同步摘要
func FieldSyncText(results []FieldSyncResult) string {
	failed := 0
	lines := make([]string, 0, len(results))
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
		lines = append(lines, r.Line())
	}
	header := fmt.Sprintf("Fields: %d | Synchronized: %d | Failed: %d", len(results), len(results)-failed, failed)
	return response.Summary(header, lines)
}

// ── 借出查询 ──

// CheckedOutItem 一条借出记录
type CheckedOutItem struct {
	AssignedPivotID int    `json:"assigned_pivot_id"`
	AccessoryID     int    `json:"accessory_id"`
	Name            string `json:"name"`
	LastCheckout    string `json:"last_checkout,omitempty"`
}

// CheckedOutResponse 用户当前借出的配件
type CheckedOutResponse struct {
	Action      string           `json:"action"`
	Count       int              `json:"count"`
	Accessories []CheckedOutItem `json:"accessories"`
}
