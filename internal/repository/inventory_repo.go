package repository

import (
	"context"

	"accessory-sync/internal/model"
	"accessory-sync/pkg/snipeit"
)

// InventoryRepository 资产系统（Snipe-IT）数据访问接口
type InventoryRepository interface {
	SearchAccessories(ctx context.Context, name string) ([]model.Accessory, error)
	ListAccessories(ctx context.Context) ([]model.Accessory, error)
	CreateAccessory(ctx context.Context, acc *model.Accessory) (*model.Accessory, error)
	UpdateQuantity(ctx context.Context, accessoryID, quantity int) error
	Checkout(ctx context.Context, accessoryID, userID int, note string) error
	Checkin(ctx context.Context, assignedPivotID int) error
	ListCheckedOut(ctx context.Context, accessoryID int) ([]model.CheckoutAssignment, error)

	SearchUsers(ctx context.Context, query string) ([]model.User, error)
	ListUserAccessories(ctx context.Context, userID int) ([]model.Accessory, error)

	ListLocations(ctx context.Context) ([]model.NamedEntity, error)
	ListCompanies(ctx context.Context) ([]model.NamedEntity, error)
	CreateLocation(ctx context.Context, name string) (*model.NamedEntity, error)
	CreateCompany(ctx context.Context, name string) (*model.NamedEntity, error)
}

type inventoryRepo struct {
	client *snipeit.Client
}

// NewInventoryRepo 创建 InventoryRepository 实例
func NewInventoryRepo(client *snipeit.Client) InventoryRepository {
	return &inventoryRepo{client: client}
}

// ── 配件 ──

func (r *inventoryRepo) SearchAccessories(ctx context.Context, name string) ([]model.Accessory, error) {
	rows, err := r.client.SearchAccessories(ctx, name)
	if err != nil {
		return nil, err
	}
	return toAccessories(rows), nil
}

func (r *inventoryRepo) ListAccessories(ctx context.Context) ([]model.Accessory, error) {
	rows, err := r.client.ListAccessories(ctx)
	if err != nil {
		return nil, err
	}
	return toAccessories(rows), nil
}

func (r *inventoryRepo) CreateAccessory(ctx context.Context, acc *model.Accessory) (*model.Accessory, error) {
	created, err := r.client.CreateAccessory(ctx, snipeit.CreateAccessoryRequest{
		Name:       acc.Name,
		Qty:        acc.Quantity,
		CategoryID: acc.CategoryID,
		LocationID: acc.LocationID,
		CompanyID:  acc.CompanyID,
	})
	if err != nil {
		return nil, err
	}

	// 创建接口的 payload 不一定带嵌套对象，以请求值兜底
	out := toAccessory(*created)
	if out.Name == "" {
		out.Name = acc.Name
	}
	if out.Quantity == 0 {
		out.Quantity = acc.Quantity
		out.RemainingQuantity = acc.Quantity
	}
	if out.CategoryID == 0 {
		out.CategoryID = acc.CategoryID
	}
	if out.LocationID == 0 {
		out.LocationID = acc.LocationID
	}
	if out.CompanyID == 0 {
		out.CompanyID = acc.CompanyID
	}
	return &out, nil
}

func (r *inventoryRepo) UpdateQuantity(ctx context.Context, accessoryID, quantity int) error {
	_, err := r.client.UpdateAccessoryQuantity(ctx, accessoryID, quantity)
	return err
}

func (r *inventoryRepo) Checkout(ctx context.Context, accessoryID, userID int, note string) error {
	return r.client.CheckoutAccessory(ctx, accessoryID, userID, note)
}

func (r *inventoryRepo) Checkin(ctx context.Context, assignedPivotID int) error {
	return r.client.CheckinAccessory(ctx, assignedPivotID)
}

func (r *inventoryRepo) ListCheckedOut(ctx context.Context, accessoryID int) ([]model.CheckoutAssignment, error) {
	rows, err := r.client.ListCheckedOut(ctx, accessoryID)
	if err != nil {
		return nil, err
	}

	result := make([]model.CheckoutAssignment, 0, len(rows))
	for _, row := range rows {
		a := model.CheckoutAssignment{
			AssignedPivotID: row.AssignedPivotID,
			AccessoryID:     accessoryID,
			UserID:          row.ID,
			Username:        row.Username,
			Name:            row.Name,
			Note:            row.Note,
		}
		if row.LastCheckout != nil {
			a.LastCheckout = row.LastCheckout.Datetime
		}
		result = append(result, a)
	}
	return result, nil
}

// ── 用户 ──

func (r *inventoryRepo) SearchUsers(ctx context.Context, query string) ([]model.User, error) {
	rows, err := r.client.SearchUsers(ctx, query)
	if err != nil {
		return nil, err
	}

	users := make([]model.User, 0, len(rows))
	for _, u := range rows {
		users = append(users, model.User{ID: u.ID, Name: u.Name, Username: u.Username, Email: u.Email})
	}
	return users, nil
}

func (r *inventoryRepo) ListUserAccessories(ctx context.Context, userID int) ([]model.Accessory, error) {
	rows, err := r.client.ListUserAccessories(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toAccessories(rows), nil
}

// ── 地点 / 公司 ──

func (r *inventoryRepo) ListLocations(ctx context.Context) ([]model.NamedEntity, error) {
	rows, err := r.client.ListLocations(ctx)
	if err != nil {
		return nil, err
	}
	return toNamedEntities(rows), nil
}

func (r *inventoryRepo) ListCompanies(ctx context.Context) ([]model.NamedEntity, error) {
	rows, err := r.client.ListCompanies(ctx)
	if err != nil {
		return nil, err
	}
	return toNamedEntities(rows), nil
}

func (r *inventoryRepo) CreateLocation(ctx context.Context, name string) (*model.NamedEntity, error) {
	created, err := r.client.CreateLocation(ctx, name)
	if err != nil {
		return nil, err
	}
	return &model.NamedEntity{ID: created.ID, Name: name}, nil
}

func (r *inventoryRepo) CreateCompany(ctx context.Context, name string) (*model.NamedEntity, error) {
	created, err := r.client.CreateCompany(ctx, name)
	if err != nil {
		return nil, err
	}
	return &model.NamedEntity{ID: created.ID, Name: name}, nil
}

// ── 映射 ──

func toAccessory(a snipeit.Accessory) model.Accessory {
	out := model.Accessory{
		ID:                a.ID,
		Name:              a.Name,
		Quantity:          a.Qty,
		RemainingQuantity: a.Available(),
	}
	if a.Category != nil {
		out.CategoryID, out.CategoryName = a.Category.ID, a.Category.Name
	}
	if a.Company != nil {
		out.CompanyID, out.CompanyName = a.Company.ID, a.Company.Name
	}
	if a.Location != nil {
		out.LocationID, out.LocationName = a.Location.ID, a.Location.Name
	}
	return out
}

func toAccessories(rows []snipeit.Accessory) []model.Accessory {
	result := make([]model.Accessory, 0, len(rows))
	for _, a := range rows {
		result = append(result, toAccessory(a))
	}
	return result
}

func toNamedEntities(rows []snipeit.IDName) []model.NamedEntity {
	result := make([]model.NamedEntity, 0, len(rows))
	for _, e := range rows {
		result = append(result, model.NamedEntity{ID: e.ID, Name: e.Name})
	}
	return result
}
