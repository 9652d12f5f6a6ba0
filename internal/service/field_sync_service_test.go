package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"accessory-sync/internal/model"
	"accessory-sync/internal/repository"
)

// ── 测试辅助 ──

func setupTestFieldSyncService() (FieldSyncService, *mockInventory, *mockTracker) {
	inv := seedInventory()
	tr := newMockTracker()
	repo := &repository.Repository{Inventory: inv, Tracker: tr}
	return NewFieldSyncService(testConfig(), repo, zap.NewNop()), inv, tr
}

func withContext(tr *mockTracker, fieldKey string, options ...model.CustomFieldOption) {
	tr.contexts[fieldKey] = []model.FieldContext{{ID: "10001", Name: "Default"}}
	tr.options[fieldKey] = options
}

// ── SyncField ──

func TestFieldSyncService_SyncField_TwoWayDiff(t *testing.T) {
	svc, inv, tr := setupTestFieldSyncService()
	inv.addAccessory(model.Accessory{ID: 1, Name: "A", CategoryName: "Mouse", Quantity: 1})
	inv.addAccessory(model.Accessory{ID: 2, Name: "B", CategoryName: "Mouse", Quantity: 1})
	inv.addAccessory(model.Accessory{ID: 3, Name: "Z", CategoryName: "Keyboard", Quantity: 1})
	withContext(tr, fieldMouse,
		model.CustomFieldOption{ID: "2", Value: "B"},
		model.CustomFieldOption{ID: "3", Value: "C"},
	)

	result := svc.SyncField(context.Background(), "11726", "Mouse")
	if result.Error != "" {
		t.Fatalf("SyncField 应成功: %s", result.Error)
	}
	if result.FieldID != fieldMouse {
		t.Errorf("期望 FieldID=%s，实际=%s", fieldMouse, result.FieldID)
	}
	if result.Added != 1 || result.Removed != 1 {
		t.Errorf("期望 Added=1 Removed=1，实际 %d/%d", result.Added, result.Removed)
	}

	if got := tr.added[fieldMouse]; !reflect.DeepEqual(got, [][]string{{"A"}}) {
		t.Errorf("期望一次批量新增 [A]，实际: %v", got)
	}
	if got := tr.deleted[fieldMouse]; !reflect.DeepEqual(got, []string{"3"}) {
		t.Errorf("期望删除选项 3，实际: %v", got)
	}
	if len(tr.updated[fieldMouse]) != 0 {
		t.Errorf("B 未停用，不应更新，实际: %v", tr.updated[fieldMouse])
	}
}

func TestFieldSyncService_SyncField_DecodesAndDedupes(t *testing.T) {
	svc, inv, tr := setupTestFieldSyncService()
	inv.addAccessory(model.Accessory{ID: 1, Name: "Tom &amp; Jerry", CategoryName: "Mouse", LocationID: 1, Quantity: 1})
	inv.addAccessory(model.Accessory{ID: 2, Name: "Tom &amp; Jerry", CategoryName: "Mouse", LocationID: 2, Quantity: 1})
	inv.addAccessory(model.Accessory{ID: 3, Name: "Pad", CategoryName: "Mouse", Quantity: 1})
	withContext(tr, fieldMouse)

	result := svc.SyncField(context.Background(), "11726", "Mouse")
	if result.Error != "" {
		t.Fatalf("SyncField 应成功: %s", result.Error)
	}
	want := [][]string{{"Pad", "Tom & Jerry"}}
	if got := tr.added[fieldMouse]; !reflect.DeepEqual(got, want) {
		t.Errorf("期望 %v，实际: %v", want, got)
	}
}

func TestFieldSyncService_SyncField_NoChanges(t *testing.T) {
	svc, inv, tr := setupTestFieldSyncService()
	inv.addAccessory(model.Accessory{ID: 1, Name: "A", CategoryName: "Mouse", Quantity: 1})
	withContext(tr, fieldMouse, model.CustomFieldOption{ID: "1", Value: "A"})

	result := svc.SyncField(context.Background(), "11726", "Mouse")
	if result.Error != "" || result.Added != 0 || result.Removed != 0 {
		t.Errorf("已一致时不应有变化，实际 %+v", result)
	}
	if len(tr.added) != 0 || len(tr.deleted) != 0 || len(tr.updated) != 0 {
		t.Error("已一致时不应调用写接口")
	}
}

func TestFieldSyncService_SyncField_ReenablesDisabled(t *testing.T) {
	svc, inv, tr := setupTestFieldSyncService()
	inv.addAccessory(model.Accessory{ID: 1, Name: "A", CategoryName: "Mouse", Quantity: 1})
	withContext(tr, fieldMouse, model.CustomFieldOption{ID: "1", Value: "A", Disabled: true})

	result := svc.SyncField(context.Background(), "11726", "Mouse")
	if result.Reenabled != 1 {
		t.Errorf("期望 Reenabled=1，实际=%d", result.Reenabled)
	}
	updates := tr.updated[fieldMouse]
	if len(updates) != 1 || len(updates[0]) != 1 || updates[0][0].Disabled {
		t.Errorf("期望一次批量启用，实际: %v", updates)
	}
}

func TestFieldSyncService_SyncField_NoContext(t *testing.T) {
	svc, _, tr := setupTestFieldSyncService()

	result := svc.SyncField(context.Background(), "11726", "Mouse")
	if result.Error == "" {
		t.Fatal("字段无上下文时应失败")
	}
	if len(tr.added) != 0 || len(tr.deleted) != 0 {
		t.Error("失败时不应修改选项")
	}
}

func TestFieldSyncService_SyncField_FetchFailure(t *testing.T) {
	svc, inv, tr := setupTestFieldSyncService()
	inv.failOn["list"] = errMockFailure
	withContext(tr, fieldMouse, model.CustomFieldOption{ID: "1", Value: "A"})

	result := svc.SyncField(context.Background(), "11726", "Mouse")
	if result.Error == "" {
		t.Fatal("读取配件失败时应返回错误")
	}
	if len(tr.deleted) != 0 {
		t.Error("读取失败时不应删除任何选项")
	}
}

// ── SyncAll ──

func TestFieldSyncService_SyncAll_IndependentAndOrdered(t *testing.T) {
	svc, inv, tr := setupTestFieldSyncService()
	inv.addAccessory(model.Accessory{ID: 1, Name: "Headset", CategoryName: "Headphones", Quantity: 1})
	inv.addAccessory(model.Accessory{ID: 2, Name: "Mouse", CategoryName: "Mouse", Quantity: 1})
	withContext(tr, fieldHeads)
	withContext(tr, fieldMouse)
	tr.failOn["add:"+fieldHeads] = errMockFailure

	results := svc.SyncAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("期望 2 条结果，实际=%d", len(results))
	}
	if results[0].FieldID != fieldHeads || results[1].FieldID != fieldMouse {
		t.Errorf("结果应按配置顺序，实际: %s, %s", results[0].FieldID, results[1].FieldID)
	}
	if results[0].Error == "" {
		t.Error("Headphones 字段应失败")
	}
	if results[1].Error != "" || results[1].Added != 1 {
		t.Errorf("Mouse 字段不受影响，实际 %+v", results[1])
	}
}

// ── diffOptions ──

func TestDiffOptions(t *testing.T) {
	current := []model.CustomFieldOption{
		{ID: "1", Value: "keep"},
		{ID: "2", Value: "gone"},
		{ID: "3", Value: "sleepy", Disabled: true},
		{ID: "4", Value: "dead", Disabled: true},
	}
	fetched := map[string]struct{}{"keep": {}, "sleepy": {}, "zeta": {}, "alpha": {}}

	newOptions, obsolete, disabled := diffOptions(current, fetched)

	if !reflect.DeepEqual(newOptions, []string{"alpha", "zeta"}) {
		t.Errorf("新增选项应排序，实际: %v", newOptions)
	}
	if len(obsolete) != 2 || obsolete[0].ID != "2" || obsolete[1].ID != "4" {
		t.Errorf("期望删除 2、4，实际: %v", obsolete)
	}
	if len(disabled) != 1 || disabled[0].ID != "3" || disabled[0].Disabled {
		t.Errorf("期望启用 3，实际: %v", disabled)
	}
	if !current[2].Disabled {
		t.Error("不应修改输入切片")
	}
}

func TestErrNoFieldContextWrapped(t *testing.T) {
	svc, _, _ := setupTestFieldSyncService()
	s := svc.(*fieldSyncService)

	result := s.SyncField(context.Background(), "11720", "Headphones")
	if result.Error != ErrNoFieldContext.Error()+": "+fieldHeads {
		t.Errorf("错误信息不符，实际: %s", result.Error)
	}
	if !errors.Is(s.syncField(context.Background(), &result), ErrNoFieldContext) {
		t.Error("应包装 ErrNoFieldContext")
	}
}
