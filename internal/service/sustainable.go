package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"accessory-sync/internal/model"
)

// legResult 转换中一条腿的结果
type legResult struct {
	action string
	err    error
}

// conversionResult 环保版本转换结果
// 原配件查找失败时 lookupErr 非空且两条腿均未执行；否则两条腿各自独立执行并各自报告
type conversionResult struct {
	lookupErr error
	variant   legResult
	original  legResult
}

// report 将转换结果写入运行日志；失败不影响归还本身
func (r conversionResult) report(log *zap.Logger, name string) {
	if r.lookupErr != nil {
		log.Error("Sustainable conversion skipped", zap.String("accessory", name), zap.Error(r.lookupErr))
		return
	}
	for _, leg := range []legResult{r.variant, r.original} {
		if leg.err != nil {
			log.Error("Sustainable conversion step failed", zap.String("accessory", name), zap.Error(leg.err))
		} else {
			log.Info(leg.action, zap.String("accessory", name))
		}
	}
}

// convertToSustainable 归还后将一件原配件转为环保版本：
//
//	腿 A：环保版本存在则数量 +1，否则以数量 1 创建（分类取自原名称，地点/公司取自原配件）
//	腿 B：原配件数量 -1
func (rc *runContext) convertToSustainable(ctx context.Context, name string) conversionResult {
	original, err := rc.findNormalized(ctx, name, rc.locationID)
	if err != nil {
		return conversionResult{lookupErr: err}
	}
	if original == nil {
		return conversionResult{lookupErr: fmt.Errorf("%w: %s in %s", ErrAccessoryNotFound, name, rc.req.LocationName)}
	}

	return conversionResult{
		variant:  rc.bumpSustainableVariant(ctx, original, model.SustainableNameOf(name)),
		original: rc.decrementOriginal(ctx, original),
	}
}

func (rc *runContext) bumpSustainableVariant(ctx context.Context, original *model.Accessory, variantName string) legResult {
	variant, err := rc.findNormalized(ctx, variantName, original.LocationID)
	if err != nil {
		return legResult{err: err}
	}

	if variant != nil {
		if err := rc.inventory.UpdateQuantity(ctx, variant.ID, variant.Quantity+1); err != nil {
			return legResult{err: fmt.Errorf("increase stock of %s: %w", variantName, err)}
		}
		return legResult{action: fmt.Sprintf("Sustainable stock increased to %d", variant.Quantity+1)}
	}

	categoryID, ok, err := rc.categories.Lookup(ctx, original.Name)
	if err != nil {
		return legResult{err: err}
	}
	if !ok {
		categoryID = original.CategoryID
	}
	if categoryID == 0 {
		return legResult{err: fmt.Errorf("%w: %s", ErrCategoryResolutionFailed, variantName)}
	}

	companyID := original.CompanyID
	if companyID == 0 {
		companyID = rc.companyID
	}
	if companyID == 0 {
		return legResult{err: fmt.Errorf("%w: cannot create %s", ErrMissingCompany, variantName)}
	}

	created, err := rc.inventory.CreateAccessory(ctx, &model.Accessory{
		Name:       variantName,
		Quantity:   1,
		CategoryID: categoryID,
		LocationID: original.LocationID,
		CompanyID:  companyID,
	})
	if err != nil {
		return legResult{err: fmt.Errorf("create %s: %w", variantName, err)}
	}
	return legResult{action: fmt.Sprintf("Sustainable accessory created with id %d", created.ID)}
}

func (rc *runContext) decrementOriginal(ctx context.Context, original *model.Accessory) legResult {
	if original.Quantity <= 0 || original.RemainingQuantity < 1 {
		return legResult{err: fmt.Errorf("%w: %s has quantity %d, remaining %d",
			ErrConversionRefused, original.Name, original.Quantity, original.RemainingQuantity)}
	}

	if err := rc.inventory.UpdateQuantity(ctx, original.ID, original.Quantity-1); err != nil {
		return legResult{err: fmt.Errorf("reduce stock of %s: %w", original.Name, err)}
	}
	return legResult{action: fmt.Sprintf("Original stock reduced to %d", original.Quantity-1)}
}
