package service

import (
	"html"
	"strings"

	"accessory-sync/internal/model"
)

// ── 名称匹配策略 ──
//
// 主查找用 exactMatch（大小写敏感），环保版本转换的明细查找用 normalizedMatch（去空白、忽略大小写）。
// 两者行为不同，不要合并。资产系统返回的名称可能带 HTML 实体，比较前先解码。

// exactMatch 名称完全相同且位于同一地点
func exactMatch(candidates []model.Accessory, name string, locationID int) *model.Accessory {
	for i := range candidates {
		c := &candidates[i]
		if c.LocationID == locationID && html.UnescapeString(c.Name) == name {
			return c
		}
	}
	return nil
}

// normalizedMatch 去除首尾空白、忽略大小写后相同且位于同一地点
func normalizedMatch(candidates []model.Accessory, name string, locationID int) *model.Accessory {
	want := strings.TrimSpace(name)
	for i := range candidates {
		c := &candidates[i]
		if c.LocationID == locationID && strings.EqualFold(strings.TrimSpace(html.UnescapeString(c.Name)), want) {
			return c
		}
	}
	return nil
}
