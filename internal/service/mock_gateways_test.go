package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"accessory-sync/internal/model"
)

var errMockFailure = errors.New("mock failure")

// ── Mock InventoryRepository ──
//
// 模拟资产系统：remaining = quantity - 借出数，任何修改后检查 0 <= remaining <= quantity

type mockInventory struct {
	mu sync.Mutex

	accessories map[int]*model.Accessory
	assignments map[int]*model.CheckoutAssignment // assignedPivotID → 记录
	users       []model.User
	locations   []model.NamedEntity
	companies   []model.NamedEntity

	nextID     int
	calls      []string
	failOn     map[string]error
	violations []string
}

func newMockInventory() *mockInventory {
	return &mockInventory{
		accessories: make(map[int]*model.Accessory),
		assignments: make(map[int]*model.CheckoutAssignment),
		nextID:      1000,
		failOn:      make(map[string]error),
	}
}

// addAccessory 预置配件；checkedOutTo 中的每个用户 ID 生成一条借出记录
func (m *mockInventory) addAccessory(a model.Accessory, checkedOutTo ...int) *model.Accessory {
	acc := a
	acc.RemainingQuantity = acc.Quantity - len(checkedOutTo)
	m.accessories[acc.ID] = &acc
	for _, uid := range checkedOutTo {
		m.nextID++
		m.assignments[m.nextID] = &model.CheckoutAssignment{
			AssignedPivotID: m.nextID,
			AccessoryID:     acc.ID,
			UserID:          uid,
			Username:        m.usernameOf(uid),
		}
	}
	return &acc
}

func (m *mockInventory) usernameOf(userID int) string {
	for _, u := range m.users {
		if u.ID == userID {
			return u.Username
		}
	}
	return fmt.Sprintf("user-%d", userID)
}

func (m *mockInventory) record(call string) {
	m.calls = append(m.calls, call)
}

func (m *mockInventory) fail(op string) error {
	return m.failOn[op]
}

func (m *mockInventory) checkInvariant() {
	for _, a := range m.accessories {
		if a.RemainingQuantity < 0 || a.RemainingQuantity > a.Quantity {
			m.violations = append(m.violations,
				fmt.Sprintf("accessory %d %q: remaining=%d quantity=%d", a.ID, a.Name, a.RemainingQuantity, a.Quantity))
		}
	}
}

func (m *mockInventory) sortedAccessories() []model.Accessory {
	ids := make([]int, 0, len(m.accessories))
	for id := range m.accessories {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	result := make([]model.Accessory, 0, len(ids))
	for _, id := range ids {
		result = append(result, *m.accessories[id])
	}
	return result
}

// callsWithPrefix 返回以 prefix 开头的调用记录
func (m *mockInventory) callsWithPrefix(prefix string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, c := range m.calls {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// mutations 返回所有修改类调用
func (m *mockInventory) mutations() []string {
	var out []string
	for _, p := range []string{"create:", "update:", "checkout:", "checkin:", "createLocation:", "createCompany:"} {
		out = append(out, m.callsWithPrefix(p)...)
	}
	return out
}

func (m *mockInventory) SearchAccessories(_ context.Context, name string) ([]model.Accessory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("search:" + name)
	if err := m.fail("search"); err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(name))
	var result []model.Accessory
	for _, a := range m.sortedAccessories() {
		if strings.Contains(strings.ToLower(a.Name), needle) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *mockInventory) ListAccessories(_ context.Context) ([]model.Accessory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("list")
	if err := m.fail("list"); err != nil {
		return nil, err
	}
	return m.sortedAccessories(), nil
}

func (m *mockInventory) CreateAccessory(_ context.Context, acc *model.Accessory) (*model.Accessory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(fmt.Sprintf("create:%s:%d:%d:%d:%d", acc.Name, acc.Quantity, acc.CategoryID, acc.LocationID, acc.CompanyID))
	if err := m.fail("create"); err != nil {
		return nil, err
	}

	m.nextID++
	created := *acc
	created.ID = m.nextID
	created.RemainingQuantity = created.Quantity
	m.accessories[created.ID] = &created
	m.checkInvariant()

	out := created
	return &out, nil
}

func (m *mockInventory) UpdateQuantity(_ context.Context, accessoryID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(fmt.Sprintf("update:%d:%d", accessoryID, quantity))
	if err := m.fail("update"); err != nil {
		return err
	}

	a, ok := m.accessories[accessoryID]
	if !ok {
		return fmt.Errorf("accessory %d not found", accessoryID)
	}
	checkedOut := a.Quantity - a.RemainingQuantity
	if quantity < checkedOut {
		return fmt.Errorf("quantity %d below checked out %d", quantity, checkedOut)
	}
	a.Quantity = quantity
	a.RemainingQuantity = quantity - checkedOut
	m.checkInvariant()
	return nil
}

func (m *mockInventory) Checkout(_ context.Context, accessoryID, userID int, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(fmt.Sprintf("checkout:%d:%d:%s", accessoryID, userID, note))
	if err := m.fail("checkout"); err != nil {
		return err
	}

	a, ok := m.accessories[accessoryID]
	if !ok {
		return fmt.Errorf("accessory %d not found", accessoryID)
	}
	if a.RemainingQuantity <= 0 {
		return fmt.Errorf("accessory %d has no remaining stock", accessoryID)
	}
	a.RemainingQuantity--

	m.nextID++
	m.assignments[m.nextID] = &model.CheckoutAssignment{
		AssignedPivotID: m.nextID,
		AccessoryID:     accessoryID,
		UserID:          userID,
		Username:        m.usernameOf(userID),
		Note:            note,
	}
	m.checkInvariant()
	return nil
}

func (m *mockInventory) Checkin(_ context.Context, assignedPivotID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(fmt.Sprintf("checkin:%d", assignedPivotID))
	if err := m.fail("checkin"); err != nil {
		return err
	}

	as, ok := m.assignments[assignedPivotID]
	if !ok {
		return fmt.Errorf("assignment %d not found", assignedPivotID)
	}
	delete(m.assignments, assignedPivotID)
	m.accessories[as.AccessoryID].RemainingQuantity++
	m.checkInvariant()
	return nil
}

func (m *mockInventory) ListCheckedOut(_ context.Context, accessoryID int) ([]model.CheckoutAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(fmt.Sprintf("checkedout:%d", accessoryID))
	if err := m.fail("checkedout"); err != nil {
		return nil, err
	}

	pivots := make([]int, 0)
	for pivot, as := range m.assignments {
		if as.AccessoryID == accessoryID {
			pivots = append(pivots, pivot)
		}
	}
	sort.Ints(pivots)

	result := make([]model.CheckoutAssignment, 0, len(pivots))
	for _, p := range pivots {
		result = append(result, *m.assignments[p])
	}
	return result, nil
}

func (m *mockInventory) SearchUsers(_ context.Context, query string) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("users:" + query)
	if err := m.fail("users"); err != nil {
		return nil, err
	}

	var result []model.User
	for _, u := range m.users {
		if strings.Contains(u.Email, query) || strings.Contains(u.Username, query) || strings.Contains(query, u.Username) {
			result = append(result, u)
		}
	}
	return result, nil
}

func (m *mockInventory) ListUserAccessories(_ context.Context, userID int) ([]model.Accessory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(fmt.Sprintf("userAccessories:%d", userID))
	if err := m.fail("userAccessories"); err != nil {
		return nil, err
	}

	var result []model.Accessory
	for _, a := range m.sortedAccessories() {
		for _, as := range m.assignments {
			if as.AccessoryID == a.ID && as.UserID == userID {
				result = append(result, a)
				break
			}
		}
	}
	return result, nil
}

func (m *mockInventory) ListLocations(_ context.Context) ([]model.NamedEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("locations")
	if err := m.fail("locations"); err != nil {
		return nil, err
	}
	return append([]model.NamedEntity(nil), m.locations...), nil
}

func (m *mockInventory) ListCompanies(_ context.Context) ([]model.NamedEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("companies")
	if err := m.fail("companies"); err != nil {
		return nil, err
	}
	return append([]model.NamedEntity(nil), m.companies...), nil
}

func (m *mockInventory) CreateLocation(_ context.Context, name string) (*model.NamedEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("createLocation:" + name)
	if err := m.fail("createLocation"); err != nil {
		return nil, err
	}
	m.nextID++
	e := model.NamedEntity{ID: m.nextID, Name: name}
	m.locations = append(m.locations, e)
	return &e, nil
}

func (m *mockInventory) CreateCompany(_ context.Context, name string) (*model.NamedEntity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("createCompany:" + name)
	if err := m.fail("createCompany"); err != nil {
		return nil, err
	}
	m.nextID++
	e := model.NamedEntity{ID: m.nextID, Name: name}
	m.companies = append(m.companies, e)
	return &e, nil
}

// ── Mock TrackerRepository ──

type mockTracker struct {
	mu sync.Mutex

	contexts map[string][]model.FieldContext
	options  map[string][]model.CustomFieldOption

	added    map[string][][]string
	deleted  map[string][]string
	updated  map[string][][]model.CustomFieldOption
	comments map[string][]string

	// failOn 键为 "op" 或 "op:fieldKey"
	failOn map[string]error
}

func newMockTracker() *mockTracker {
	return &mockTracker{
		contexts: make(map[string][]model.FieldContext),
		options:  make(map[string][]model.CustomFieldOption),
		added:    make(map[string][][]string),
		deleted:  make(map[string][]string),
		updated:  make(map[string][][]model.CustomFieldOption),
		comments: make(map[string][]string),
		failOn:   make(map[string]error),
	}
}

func (m *mockTracker) fail(op, key string) error {
	if err := m.failOn[op+":"+key]; err != nil {
		return err
	}
	return m.failOn[op]
}

func (m *mockTracker) GetFieldContexts(_ context.Context, fieldKey string) ([]model.FieldContext, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("contexts", fieldKey); err != nil {
		return nil, err
	}
	return m.contexts[fieldKey], nil
}

func (m *mockTracker) ListOptions(_ context.Context, fieldKey, _ string) ([]model.CustomFieldOption, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("options", fieldKey); err != nil {
		return nil, err
	}
	return append([]model.CustomFieldOption(nil), m.options[fieldKey]...), nil
}

func (m *mockTracker) AddOptions(_ context.Context, fieldKey, _ string, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("add", fieldKey); err != nil {
		return err
	}
	m.added[fieldKey] = append(m.added[fieldKey], append([]string(nil), values...))
	return nil
}

func (m *mockTracker) UpdateOptions(_ context.Context, fieldKey, _ string, options []model.CustomFieldOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("update", fieldKey); err != nil {
		return err
	}
	m.updated[fieldKey] = append(m.updated[fieldKey], append([]model.CustomFieldOption(nil), options...))
	return nil
}

func (m *mockTracker) DeleteOption(_ context.Context, fieldKey, _, optionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("delete", fieldKey); err != nil {
		return err
	}
	m.deleted[fieldKey] = append(m.deleted[fieldKey], optionID)
	return nil
}

func (m *mockTracker) AddComment(_ context.Context, issueKey, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("comment", issueKey); err != nil {
		return err
	}
	m.comments[issueKey] = append(m.comments[issueKey], text)
	return nil
}
