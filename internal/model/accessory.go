package model

import "strings"

// SustainableSuffix 环保版本配件名称后缀
const SustainableSuffix = " (Sustainable)"

const sustainableMarker = "(Sustainable)"

// Accessory 配件：某一地点的一条库存记录，(Name, LocationID) 唯一
type Accessory struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	CategoryID        int    `json:"category_id"`
	CategoryName      string `json:"category_name,omitempty"`
	CompanyID         int    `json:"company_id"`
	CompanyName       string `json:"company_name,omitempty"`
	LocationID        int    `json:"location_id"`
	LocationName      string `json:"location_name,omitempty"`
	Quantity          int    `json:"quantity"`
	RemainingQuantity int    `json:"remaining_quantity"` // Quantity 减去已借出数量
}

// IsSustainable 名称是否已标记为环保版本
func (a *Accessory) IsSustainable() bool {
	return IsSustainableName(a.Name)
}

// SustainableName 对应环保版本的名称
func (a *Accessory) SustainableName() string {
	return SustainableNameOf(a.Name)
}

// IsSustainableName 判断名称是否为环保版本
func IsSustainableName(name string) bool {
	return strings.Contains(name, sustainableMarker)
}

// SustainableNameOf 由原名称派生环保版本名称
func SustainableNameOf(name string) string {
	return name + SustainableSuffix
}

// User 资产系统用户
type User struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// NamedEntity 地点、公司等简单命名实体
type NamedEntity struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// NameIndex 名称 → ID 映射，单次运行内有效
type NameIndex map[string]int

// NewNameIndex 由实体列表构建索引；重名时保留首个
func NewNameIndex(entities []NamedEntity) NameIndex {
	idx := make(NameIndex, len(entities))
	for _, e := range entities {
		if _, ok := idx[e.Name]; !ok {
			idx[e.Name] = e.ID
		}
	}
	return idx
}

// Lookup 按名称查询 ID
func (idx NameIndex) Lookup(name string) (int, bool) {
	id, ok := idx[name]
	return id, ok
}

// Put 记录新建实体的 ID
func (idx NameIndex) Put(name string, id int) {
	idx[name] = id
}

// CheckoutAssignment 一次借出记录，归还时按 AssignedPivotID 引用
type CheckoutAssignment struct {
	AssignedPivotID int    `json:"assigned_pivot_id"`
	AccessoryID     int    `json:"accessory_id"`
	UserID          int    `json:"user_id"`
	Username        string `json:"username"`
	Name            string `json:"name"`
	Note            string `json:"note,omitempty"`
	LastCheckout    string `json:"last_checkout,omitempty"`
}

// FieldContext 工单自定义字段上下文
type FieldContext struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CustomFieldOption 工单自定义字段的一个可选值
type CustomFieldOption struct {
	ID       string `json:"id"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled"`
}
