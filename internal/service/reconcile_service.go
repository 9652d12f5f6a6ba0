package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"accessory-sync/config"
	"accessory-sync/internal/dto"
	"accessory-sync/internal/model"
	"accessory-sync/internal/repository"
	applogger "accessory-sync/pkg/logger"
)

// ── 配件处理业务错误 ──

var (
	ErrInvalidPayload           = errors.New("invalid payload")
	ErrUserNotFound             = errors.New("user not found in Snipe-IT")
	ErrAccessoryNotFound        = errors.New("accessory not found")
	ErrNoStock                  = errors.New("no stock available")
	ErrCategoryResolutionFailed = errors.New("category could not be resolved")
	ErrMissingCompany           = errors.New("company is not resolved")
	ErrInvalidAccessoryType     = errors.New("invalid accessory type")
	ErrNoCheckedOutAssignment   = errors.New("no checked-out assignment for user")
	ErrConversionRefused        = errors.New("sustainable conversion refused")
)

// ReconcileService 配件处理业务接口
type ReconcileService interface {
	// Process 按工单请求处理配件，返回运行摘要；仅在无法继续时返回错误
	Process(ctx context.Context, req *model.RequestPayload) (*dto.RunSummary, error)
}

type reconcileService struct {
	repo        *repository.Repository
	fieldKeys   []string
	postComment bool
	logger      *zap.Logger
}

// NewReconcileService 创建 ReconcileService 实例
func NewReconcileService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) ReconcileService {
	keys := make([]string, 0, len(cfg.Fields.Categories))
	for _, f := range cfg.Fields.Categories {
		keys = append(keys, f.Key())
	}
	return &reconcileService{
		repo:        repo,
		fieldKeys:   keys,
		postComment: cfg.Jira.PostSummaryComment,
		logger:      logger,
	}
}

// ════════════════════════════════════════════════════════════
// Process
// ════════════════════════════════════════════════════════════

func (s *reconcileService) Process(ctx context.Context, req *model.RequestPayload) (*dto.RunSummary, error) {
	if req == nil || strings.TrimSpace(req.ReporterEmail) == "" {
		return nil, fmt.Errorf("%w: reporterEmail is required", ErrInvalidPayload)
	}
	if strings.TrimSpace(req.LocationName) == "" {
		return nil, fmt.Errorf("%w: location is required", ErrInvalidPayload)
	}

	buf := applogger.NewRunBuffer()
	runLog := buf.Tee(s.logger)

	// 1. 解析提交人
	user, err := resolveUser(ctx, s.repo.Inventory, req.ReporterEmail)
	if err != nil {
		s.logger.Warn("解析提交人失败", zap.String("email", req.ReporterEmail), zap.Error(err))
		return nil, err
	}

	// 2. 地点 / 公司（请求类型无效时只查不建）
	requestType, valid := model.ParseRequestType(req.RequestTypeLabel)
	rc, err := s.newRunContext(ctx, req, user, runLog, valid)
	if err != nil {
		s.logger.Error("初始化运行上下文失败", zap.String("email", req.ReporterEmail), zap.Error(err))
		return nil, err
	}

	// 3. 配件名称
	names := req.AccessoryNames(s.fieldKeys)
	summary := &dto.RunSummary{IssueKey: req.IssueKey, Requested: len(names)}

	runLog.Info("Accessories assigned in Snipe-IT BEFORE automation", zap.String("user", req.ReporterEmail))
	rc.logUserAccessories(ctx)

	// 4. 逐个处理，单项失败不影响后续
	for _, name := range names {
		var itemErr error
		if !valid {
			itemErr = fmt.Errorf("%w: %q", ErrInvalidAccessoryType, req.RequestTypeLabel)
		} else {
			itemErr = requestType.Dispatch(ctx, rc, name)
		}
		s.record(rc, summary, name, itemErr)
	}

	// 5. 失效缓存后重新读取
	rc.accessories.Invalidate()
	runLog.Info("Accessories assigned in Snipe-IT AFTER automation", zap.String("user", req.ReporterEmail))
	rc.logUserAccessories(ctx)
	runLog.Info("Completed processing all accessories")

	summary.Lines = buf.Lines()
	summary.Warnings = buf.Count(zapcore.WarnLevel)
	summary.Errors = buf.Count(zapcore.ErrorLevel)

	// 6. 回写工单评论（尽力而为）
	if s.postComment && req.IssueKey != "" {
		if err := s.repo.Tracker.AddComment(ctx, req.IssueKey, summary.Text()); err != nil {
			s.logger.Warn("回写工单评论失败", zap.String("issue", req.IssueKey), zap.Error(err))
		}
	}

	return summary, nil
}

// record 记录单项结果
func (s *reconcileService) record(rc *runContext, summary *dto.RunSummary, name string, err error) {
	switch {
	case err == nil:
		summary.Succeeded++
	case errors.Is(err, ErrNoStock):
		summary.Skipped++
		rc.log.Warn("No stock available, moving on to the next accessory",
			zap.String("accessory", name), zap.String("location", rc.req.LocationName))
	default:
		summary.Failed++
		rc.log.Error("Failed to process accessory", zap.String("accessory", name), zap.Error(err))
	}
}

// resolveUser 按邮箱或用户名精确匹配（忽略大小写）
func resolveUser(ctx context.Context, inventory repository.InventoryRepository, email string) (*model.User, error) {
	users, err := inventory.SearchUsers(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	for i := range users {
		u := &users[i]
		if strings.EqualFold(u.Email, email) || strings.EqualFold(u.Username, email) {
			return u, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUserNotFound, email)
}

// newRunContext 构建地点/公司索引，create 为 true 时缺失项会被创建
// 地点创建失败无法继续；公司创建失败只记录错误，需要公司的新建配件会单项失败
func (s *reconcileService) newRunContext(ctx context.Context, req *model.RequestPayload, user *model.User, runLog *zap.Logger, create bool) (*runContext, error) {
	inventory := s.repo.Inventory

	locations, err := inventory.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	companies, err := inventory.ListCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}

	rc := &runContext{
		inventory:   inventory,
		req:         req,
		user:        user,
		log:         runLog,
		locations:   model.NewNameIndex(locations),
		companies:   model.NewNameIndex(companies),
		categories:  NewCategoryIndex(inventory.ListAccessories),
		accessories: NewUserAccessoryCache(inventory, user.ID),
	}

	if !create {
		rc.locationID, _ = rc.locations.Lookup(req.LocationName)
		rc.companyID, _ = rc.companies.Lookup(req.CompanyName)
		return rc, nil
	}

	rc.locationID, err = rc.resolveEntity(ctx, "Location", rc.locations, req.LocationName, inventory.CreateLocation)
	if err != nil {
		return nil, err
	}

	if req.CompanyName != "" {
		rc.companyID, err = rc.resolveEntity(ctx, "Company", rc.companies, req.CompanyName, inventory.CreateCompany)
		if err != nil {
			runLog.Error("Failed to create company", zap.String("company", req.CompanyName), zap.Error(err))
			rc.companyID = 0
		}
	}

	return rc, nil
}

// resolveEntity 命中索引直接返回，否则创建并写回索引
func (rc *runContext) resolveEntity(
	ctx context.Context,
	kind string,
	idx model.NameIndex,
	name string,
	create func(context.Context, string) (*model.NamedEntity, error),
) (int, error) {
	if id, ok := idx.Lookup(name); ok {
		return id, nil
	}

	rc.log.Warn(kind+" not found, creating in Snipe-IT", zap.String("name", name))
	created, err := create(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("create %s %q: %w", strings.ToLower(kind), name, err)
	}
	idx.Put(name, created.ID)
	return created.ID, nil
}

// logUserAccessories 输出用户当前借出的配件
func (rc *runContext) logUserAccessories(ctx context.Context) {
	items, err := rc.accessories.Get(ctx)
	if err != nil {
		rc.log.Error("Failed to fetch user accessories", zap.Int("user_id", rc.user.ID), zap.Error(err))
		return
	}
	if len(items) == 0 {
		rc.log.Warn("No accessories found for user", zap.Int("user_id", rc.user.ID))
		return
	}
	for _, a := range items {
		rc.log.Info("Assigned accessory", zap.Int("id", a.ID), zap.String("name", a.Name))
	}
}

// ════════════════════════════════════════════════════════════
// 按请求类型处理（model.RequestHandler）
// ════════════════════════════════════════════════════════════

// HandleStock 库存配件：必须已存在且有余量
func (rc *runContext) HandleStock(ctx context.Context, name string) error {
	acc, err := rc.findExact(ctx, name)
	if err != nil {
		return err
	}
	if acc == nil {
		return fmt.Errorf("%w: %s in %s", ErrAccessoryNotFound, name, rc.req.LocationName)
	}
	if acc.RemainingQuantity <= 0 {
		return fmt.Errorf("%w: %s in %s", ErrNoStock, name, rc.req.LocationName)
	}

	if err := rc.inventory.Checkout(ctx, acc.ID, rc.user.ID, rc.req.IssueURL); err != nil {
		return fmt.Errorf("checkout %s: %w", name, err)
	}

	rc.log.Info("Checked out accessory",
		zap.String("accessory", name),
		zap.String("user", rc.user.Name),
		zap.String("location", rc.req.LocationName),
		zap.Int("remaining", acc.RemainingQuantity-1),
	)
	return nil
}

// HandleNew 新配件：已存在则加库存后借出，否则按名称推断分类后创建再借出
func (rc *runContext) HandleNew(ctx context.Context, name string) error {
	acc, err := rc.findExact(ctx, name)
	if err != nil {
		return err
	}

	if acc != nil {
		if err := rc.inventory.UpdateQuantity(ctx, acc.ID, acc.Quantity+1); err != nil {
			return fmt.Errorf("increase stock of %s: %w", name, err)
		}
		if err := rc.inventory.Checkout(ctx, acc.ID, rc.user.ID, rc.req.IssueURL); err != nil {
			return fmt.Errorf("checkout %s: %w", name, err)
		}
		rc.log.Info("Accessory stock increased and checked out",
			zap.String("accessory", name),
			zap.String("user", rc.user.Name),
			zap.Int("quantity", acc.Quantity+1),
		)
		return nil
	}

	categoryID, ok, err := rc.categories.Lookup(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrCategoryResolutionFailed, name)
	}
	if rc.companyID == 0 {
		return fmt.Errorf("%w: cannot create %s", ErrMissingCompany, name)
	}

	created, err := rc.inventory.CreateAccessory(ctx, &model.Accessory{
		Name:       name,
		Quantity:   1,
		CategoryID: categoryID,
		LocationID: rc.locationID,
		CompanyID:  rc.companyID,
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if created.ID == 0 {
		return fmt.Errorf("create %s: no id returned", name)
	}
	rc.log.Info("Accessory created", zap.String("accessory", name), zap.Int("id", created.ID))

	if err := rc.inventory.Checkout(ctx, created.ID, rc.user.ID, rc.req.IssueURL); err != nil {
		return fmt.Errorf("checkout %s: %w", name, err)
	}
	rc.log.Info("Checked out accessory", zap.String("accessory", name), zap.String("user", rc.user.Name))
	return nil
}

// HandleReturn 归还：按借出记录归还，非环保版本再做环保转换
func (rc *runContext) HandleReturn(ctx context.Context, name string) error {
	acc, err := rc.findExact(ctx, name)
	if err != nil {
		return err
	}
	if acc == nil {
		return fmt.Errorf("%w: %s in %s", ErrAccessoryNotFound, name, rc.req.LocationName)
	}

	assignments, err := rc.inventory.ListCheckedOut(ctx, acc.ID)
	if err != nil {
		return fmt.Errorf("list checked out %s: %w", name, err)
	}

	var assignment *model.CheckoutAssignment
	for i := range assignments {
		a := &assignments[i]
		if strings.EqualFold(a.Username, rc.user.Username) || strings.EqualFold(a.Username, rc.req.ReporterEmail) {
			assignment = a
			break
		}
	}
	if assignment == nil {
		return fmt.Errorf("%w: %s to %s", ErrNoCheckedOutAssignment, name, rc.req.ReporterEmail)
	}

	if err := rc.inventory.Checkin(ctx, assignment.AssignedPivotID); err != nil {
		return fmt.Errorf("checkin %s: %w", name, err)
	}
	rc.log.Info("Accessory checked in", zap.String("accessory", name), zap.Int("pivot_id", assignment.AssignedPivotID))

	if model.IsSustainableName(name) {
		rc.log.Info("Checked in sustainable accessory without conversion", zap.String("accessory", name))
		return nil
	}

	rc.convertToSustainable(ctx, name).report(rc.log, name)
	return nil
}
