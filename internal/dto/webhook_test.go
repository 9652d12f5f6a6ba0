package dto

import (
	"encoding/json"
	"strings"
	"testing"

	"accessory-sync/config"
)

func testFields() *config.FieldsConfig {
	return &config.FieldsConfig{
		Location:    "customfield_11213",
		Company:     "customfield_11337",
		RequestType: "customfield_11745",
		Categories: []config.CategoryField{
			{ID: "11720", Category: "Headphones"},
			{ID: "11726", Category: "Mouse"},
		},
	}
}

func TestWebhookPayload_FlattensFieldShapes(t *testing.T) {
	body := `{
		"reporterEmail": " a@x.com ",
		"issueUrl": "https://acme.atlassian.net/browse/IT-42",
		"customfield_11213": {"value": "HQ", "id": "1"},
		"customfield_11337": "Acme",
		"customfield_11745": {"value": "Stock Accessory"},
		"customfield_11720": [{"value": "Headset"}, {"value": "Earbuds"}],
		"customfield_11726": ["Mouse", "", null],
		"customfield_99999": 12,
		"customfield_00000": null
	}`

	var p WebhookPayload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("校验应通过: %v", err)
	}

	if p.ReporterEmail != "a@x.com" {
		t.Errorf("期望 ReporterEmail=a@x.com，实际=%q", p.ReporterEmail)
	}
	if p.Fields["customfield_11720"] != "Headset, Earbuds" {
		t.Errorf("数组选项拍平错误: %q", p.Fields["customfield_11720"])
	}
	if p.Fields["customfield_11726"] != "Mouse" {
		t.Errorf("空项应丢弃: %q", p.Fields["customfield_11726"])
	}
	if p.Fields["customfield_99999"] != "12" {
		t.Errorf("数字应转为字符串: %q", p.Fields["customfield_99999"])
	}
	if p.Fields["customfield_00000"] != "" {
		t.Errorf("null 应为空串: %q", p.Fields["customfield_00000"])
	}

	req := p.ToRequestPayload(testFields())
	if req.LocationName != "HQ" || req.CompanyName != "Acme" {
		t.Errorf("地点/公司映射错误: %q / %q", req.LocationName, req.CompanyName)
	}
	if req.RequestTypeLabel != "Stock Accessory" {
		t.Errorf("请求类型映射错误: %q", req.RequestTypeLabel)
	}
	if req.IssueKey != "IT-42" {
		t.Errorf("期望从链接解析 IssueKey=IT-42，实际=%q", req.IssueKey)
	}
	if _, ok := req.AccessoryFields["customfield_99999"]; ok {
		t.Error("未配置的字段不应进入 AccessoryFields")
	}

	names := req.AccessoryNames([]string{"customfield_11720", "customfield_11726"})
	if strings.Join(names, "|") != "Headset|Earbuds|Mouse" {
		t.Errorf("配件名称解析错误: %v", names)
	}
}

func TestWebhookPayload_ExplicitIssueKeyWins(t *testing.T) {
	var p WebhookPayload
	if err := json.Unmarshal([]byte(`{"reporterEmail":"a@x.com","issueKey":"OPS-1","issueUrl":"https://x/browse/IT-2"}`), &p); err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if got := p.ToRequestPayload(testFields()).IssueKey; got != "OPS-1" {
		t.Errorf("期望 OPS-1，实际=%q", got)
	}
}

func TestWebhookPayload_MissingReporter(t *testing.T) {
	var p WebhookPayload
	if err := json.Unmarshal([]byte(`{"issueUrl":"x"}`), &p); err != nil {
		t.Fatalf("解析应成功: %v", err)
	}
	if err := p.Validate(); err == nil {
		t.Error("缺少 reporterEmail 应校验失败")
	}
}

func TestWebhookPayload_InvalidJSON(t *testing.T) {
	var p WebhookPayload
	if err := json.Unmarshal([]byte(`[1,2]`), &p); err == nil {
		t.Error("顶层数组应解析失败")
	}
}

func TestIssueKeyFromURL(t *testing.T) {
	cases := map[string]string{
		"https://acme.atlassian.net/browse/IT-7":         "IT-7",
		"https://acme.atlassian.net/browse/OPS_2-15?x=1": "OPS_2-15",
		"https://acme.atlassian.net/issues/?jql=":        "",
		"": "",
	}
	for in, want := range cases {
		if got := IssueKeyFromURL(in); got != want {
			t.Errorf("IssueKeyFromURL(%q)=%q，期望=%q", in, got, want)
		}
	}
}

func TestRunSummary_Text(t *testing.T) {
	s := &RunSummary{Requested: 2, Succeeded: 1, Failed: 1, Errors: 1, Lines: []string{"[INFO] ok", "[ERROR] bad"}}

	text := s.Text()
	if !strings.HasPrefix(text, "Processing Summary:\n\nRequested: 2 | Succeeded: 1 | Skipped: 0 | Failed: 1") {
		t.Errorf("摘要头错误: %q", text)
	}
	if !strings.Contains(text, "- [INFO] ok\n- [ERROR] bad\n") {
		t.Errorf("摘要行错误: %q", text)
	}
}

func TestFieldSyncText(t *testing.T) {
	text := FieldSyncText([]FieldSyncResult{
		{FieldID: "customfield_1", Category: "Mouse", Added: 1, Removed: 2},
		{FieldID: "customfield_2", Category: "Keyboard", Error: "boom"},
	})

	if !strings.Contains(text, "Fields: 2 | Synchronized: 1 | Failed: 1") {
		t.Errorf("计数行错误: %q", text)
	}
	if !strings.Contains(text, "- [INFO] customfield_1 (Mouse): Added 1 new options and removed 2 obsolete options.") {
		t.Errorf("成功行错误: %q", text)
	}
	if !strings.Contains(text, "- [ERROR] customfield_2 (Keyboard): boom") {
		t.Errorf("失败行错误: %q", text)
	}
}
