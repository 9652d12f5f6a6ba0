package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"accessory-sync/config"
	"accessory-sync/internal/dto"
	"accessory-sync/internal/model"
	"accessory-sync/internal/repository"
)

// ── 字段同步业务错误 ──

var (
	ErrNoFieldContext = errors.New("custom field has no context")
)

// FieldSyncService 自定义字段选项同步业务接口
//
// 每个字段的选项集合收敛为该分类下当前配件名称（HTML 实体解码、去重）：
//   - 缺少的选项一次批量新增
//   - 多余的选项逐个删除
//   - 仍需要但被停用的选项一次批量重新启用
type FieldSyncService interface {
	SyncField(ctx context.Context, fieldID, category string) dto.FieldSyncResult
	// SyncAll 并发同步所有已配置字段，结果按配置顺序返回
	SyncAll(ctx context.Context) []dto.FieldSyncResult
}

type fieldSyncService struct {
	repo   *repository.Repository
	fields []config.CategoryField
	logger *zap.Logger
}

// NewFieldSyncService 创建 FieldSyncService 实例
func NewFieldSyncService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) FieldSyncService {
	return &fieldSyncService{repo: repo, fields: cfg.Fields.Categories, logger: logger}
}

// ────────────────────── SyncAll ──────────────────────

func (s *fieldSyncService) SyncAll(ctx context.Context) []dto.FieldSyncResult {
	results := make([]dto.FieldSyncResult, len(s.fields))

	var g errgroup.Group
	for i, f := range s.fields {
		g.Go(func() error {
			results[i] = s.SyncField(ctx, f.ID, f.Category)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	s.logger.Info("自定义字段同步完成", zap.Int("fields", len(results)), zap.Int("failed", failed))

	return results
}

// ────────────────────── SyncField ──────────────────────

func (s *fieldSyncService) SyncField(ctx context.Context, fieldID, category string) dto.FieldSyncResult {
	result := dto.FieldSyncResult{FieldID: config.FieldKey(fieldID), Category: category}

	if err := s.syncField(ctx, &result); err != nil {
		s.logger.Error("自定义字段同步失败",
			zap.String("field", result.FieldID),
			zap.String("category", category),
			zap.Error(err),
		)
		result.Error = err.Error()
	}
	return result
}

func (s *fieldSyncService) syncField(ctx context.Context, result *dto.FieldSyncResult) error {
	fetched, err := s.fetchNames(ctx, result.Category)
	if err != nil {
		return err
	}

	contexts, err := s.repo.Tracker.GetFieldContexts(ctx, result.FieldID)
	if err != nil {
		return fmt.Errorf("fetch field context: %w", err)
	}
	if len(contexts) == 0 {
		return fmt.Errorf("%w: %s", ErrNoFieldContext, result.FieldID)
	}
	contextID := contexts[0].ID

	current, err := s.repo.Tracker.ListOptions(ctx, result.FieldID, contextID)
	if err != nil {
		return fmt.Errorf("fetch field options: %w", err)
	}

	newOptions, obsolete, disabled := diffOptions(current, fetched)

	if len(newOptions) > 0 {
		if err := s.repo.Tracker.AddOptions(ctx, result.FieldID, contextID, newOptions); err != nil {
			return fmt.Errorf("add options: %w", err)
		}
		result.Added = len(newOptions)
	}

	for _, opt := range obsolete {
		if err := s.repo.Tracker.DeleteOption(ctx, result.FieldID, contextID, opt.ID); err != nil {
			return fmt.Errorf("delete option %q: %w", opt.Value, err)
		}
		result.Removed++
	}

	if len(disabled) > 0 {
		if err := s.repo.Tracker.UpdateOptions(ctx, result.FieldID, contextID, disabled); err != nil {
			return fmt.Errorf("re-enable options: %w", err)
		}
		result.Reenabled = len(disabled)
	}

	s.logger.Info("自定义字段已同步",
		zap.String("field", result.FieldID),
		zap.String("category", result.Category),
		zap.Int("added", result.Added),
		zap.Int("removed", result.Removed),
		zap.Int("reenabled", result.Reenabled),
	)
	return nil
}

// fetchNames 该分类下所有配件名称（解码、去重）
func (s *fieldSyncService) fetchNames(ctx context.Context, category string) (map[string]struct{}, error) {
	all, err := s.repo.Inventory.ListAccessories(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch accessories: %w", err)
	}

	names := make(map[string]struct{})
	for _, a := range all {
		if html.UnescapeString(a.CategoryName) != category {
			continue
		}
		names[html.UnescapeString(a.Name)] = struct{}{}
	}
	return names, nil
}

// diffOptions 双向差集
// newOptions 按字典序排列；disabled 为仍需保留但已停用的选项（已置为启用）
func diffOptions(current []model.CustomFieldOption, fetched map[string]struct{}) (newOptions []string, obsolete, disabled []model.CustomFieldOption) {
	existing := make(map[string]struct{}, len(current))
	for _, opt := range current {
		existing[opt.Value] = struct{}{}

		if _, wanted := fetched[opt.Value]; !wanted {
			obsolete = append(obsolete, opt)
		} else if opt.Disabled {
			opt.Disabled = false
			disabled = append(disabled, opt)
		}
	}

	for name := range fetched {
		if _, ok := existing[name]; !ok {
			newOptions = append(newOptions, name)
		}
	}
	sort.Strings(newOptions)
	return newOptions, obsolete, disabled
}
