package service

import (
	"context"
	"fmt"
	"html"

	"go.uber.org/zap"

	"accessory-sync/internal/model"
	"accessory-sync/internal/repository"
)

// runContext 单次配件处理运行的状态，Process 每次调用新建，结束即丢弃
type runContext struct {
	inventory repository.InventoryRepository
	req       *model.RequestPayload
	user      *model.User
	log       *zap.Logger // 同时写入运行日志与用户摘要

	locationID int
	companyID  int // 0 表示公司未能解析

	locations   model.NameIndex
	companies   model.NameIndex
	categories  *CategoryIndex
	accessories *UserAccessoryCache
}

// findExact 主查找：按名称搜索后在同一地点精确匹配
func (rc *runContext) findExact(ctx context.Context, name string) (*model.Accessory, error) {
	candidates, err := rc.inventory.SearchAccessories(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("search accessory %q: %w", name, err)
	}
	return exactMatch(candidates, name, rc.locationID), nil
}

// findNormalized 明细查找：去空白、忽略大小写
func (rc *runContext) findNormalized(ctx context.Context, name string, locationID int) (*model.Accessory, error) {
	candidates, err := rc.inventory.SearchAccessories(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("search accessory %q: %w", name, err)
	}
	return normalizedMatch(candidates, name, locationID), nil
}

// ── CategoryIndex ──

// CategoryIndex 配件名称 → 分类 ID 的二级索引
// 首次查询时由全量配件列表构建，同名取第一条
type CategoryIndex struct {
	load   func(ctx context.Context) ([]model.Accessory, error)
	byName map[string]int
}

// NewCategoryIndex 创建延迟加载的分类索引
func NewCategoryIndex(load func(ctx context.Context) ([]model.Accessory, error)) *CategoryIndex {
	return &CategoryIndex{load: load}
}

// Lookup 查询名称对应的分类 ID
func (ci *CategoryIndex) Lookup(ctx context.Context, name string) (int, bool, error) {
	if ci.byName == nil {
		all, err := ci.load(ctx)
		if err != nil {
			return 0, false, fmt.Errorf("build category index: %w", err)
		}
		ci.byName = make(map[string]int, len(all))
		for _, a := range all {
			if a.CategoryID == 0 {
				continue
			}
			key := html.UnescapeString(a.Name)
			if _, ok := ci.byName[key]; !ok {
				ci.byName[key] = a.CategoryID
			}
		}
	}

	id, ok := ci.byName[name]
	return id, ok, nil
}

// ── UserAccessoryCache ──

// UserAccessoryCache 用户已借配件列表的单次运行缓存
type UserAccessoryCache struct {
	inventory repository.InventoryRepository
	userID    int
	items     []model.Accessory
	loaded    bool
}

// NewUserAccessoryCache 创建用户配件缓存
func NewUserAccessoryCache(inventory repository.InventoryRepository, userID int) *UserAccessoryCache {
	return &UserAccessoryCache{inventory: inventory, userID: userID}
}

// Get 返回缓存的列表，未加载时请求远端
func (c *UserAccessoryCache) Get(ctx context.Context) ([]model.Accessory, error) {
	if c.loaded {
		return c.items, nil
	}
	items, err := c.inventory.ListUserAccessories(ctx, c.userID)
	if err != nil {
		return nil, err
	}
	c.items, c.loaded = items, true
	return items, nil
}

// Invalidate 丢弃缓存，下次 Get 重新读取
func (c *UserAccessoryCache) Invalidate() {
	c.items, c.loaded = nil, false
}
