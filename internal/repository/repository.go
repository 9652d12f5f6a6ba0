package repository

import (
	"accessory-sync/pkg/jira"
	"accessory-sync/pkg/snipeit"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	Inventory InventoryRepository
	Tracker   TrackerRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(inventory *snipeit.Client, tracker *jira.Client) *Repository {
	return &Repository{
		Inventory: NewInventoryRepo(inventory),
		Tracker:   NewTrackerRepo(tracker),
	}
}
