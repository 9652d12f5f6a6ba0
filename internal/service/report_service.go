package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"accessory-sync/config"
	"accessory-sync/internal/dto"
	"accessory-sync/internal/model"
	"accessory-sync/internal/repository"
)

// ── 报表模块业务错误 ──

var (
	ErrExportNoCategories = errors.New("no categories to export")
	ErrExportGenerateFail = errors.New("failed to generate workbook")
)

// ReportService 借出查询与目录导出接口
//
// 设计说明：
//   - CheckedOut 列出用户当前借出的配件及借出记录 ID，供归还工单核对
//   - ExportCatalog 按分类分 Sheet 导出配件目录，即字段同步将要发布的内容
type ReportService interface {
	CheckedOut(ctx context.Context, reporterEmail string) (*dto.CheckedOutResponse, error)
	ExportCatalog(ctx context.Context, categories []string) (*bytes.Buffer, string, error)
}

type reportService struct {
	repo       *repository.Repository
	categories []string
	logger     *zap.Logger
	now        func() time.Time
}

// NewReportService 创建 ReportService 实例
func NewReportService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) ReportService {
	categories := make([]string, 0, len(cfg.Fields.Categories))
	for _, f := range cfg.Fields.Categories {
		categories = append(categories, f.Category)
	}
	return &reportService{repo: repo, categories: categories, logger: logger, now: time.Now}
}

// ────────────────────── CheckedOut ──────────────────────

func (s *reportService) CheckedOut(ctx context.Context, reporterEmail string) (*dto.CheckedOutResponse, error) {
	user, err := resolveUser(ctx, s.repo.Inventory, reporterEmail)
	if err != nil {
		return nil, err
	}

	accessories, err := s.repo.Inventory.ListUserAccessories(ctx, user.ID)
	if err != nil {
		s.logger.Error("查询用户配件失败", zap.Int("user_id", user.ID), zap.Error(err))
		return nil, err
	}

	items := make([]dto.CheckedOutItem, 0, len(accessories))
	seen := make(map[int]bool, len(accessories))
	for _, acc := range accessories {
		if seen[acc.ID] {
			continue
		}
		seen[acc.ID] = true

		assignments, err := s.repo.Inventory.ListCheckedOut(ctx, acc.ID)
		if err != nil {
			s.logger.Error("查询借出记录失败", zap.Int("accessory_id", acc.ID), zap.Error(err))
			return nil, err
		}
		for _, a := range assignments {
			if a.UserID != user.ID {
				continue
			}
			items = append(items, dto.CheckedOutItem{
				AssignedPivotID: a.AssignedPivotID,
				AccessoryID:     acc.ID,
				Name:            html.UnescapeString(acc.Name),
				LastCheckout:    a.LastCheckout,
			})
		}
	}

	resp := &dto.CheckedOutResponse{Count: len(items), Accessories: items}
	if len(items) == 0 {
		resp.Action = "No Checked Out Accessories Found"
		s.logger.Warn("用户无借出配件", zap.Int("user_id", user.ID))
	} else {
		resp.Action = "Checked Out Accessories Fetched"
	}
	return resp, nil
}

// ═══════════════════════════════════════════════════════════
// ExportCatalog 导出配件目录为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 每个分类一个 Sheet，按地点、名称排序
//   - 列：名称 / 地点 / 公司 / 总数 / 可借
//
// categories 为空时使用已配置的全部分类

func (s *reportService) ExportCatalog(ctx context.Context, categories []string) (*bytes.Buffer, string, error) {
	if len(categories) == 0 {
		categories = s.categories
	}
	if len(categories) == 0 {
		return nil, "", ErrExportNoCategories
	}

	all, err := s.repo.Inventory.ListAccessories(ctx)
	if err != nil {
		s.logger.Error("查询配件失败", zap.Error(err))
		return nil, "", err
	}

	byCategory := make(map[string][]model.Accessory)
	for _, a := range all {
		cat := html.UnescapeString(a.CategoryName)
		byCategory[cat] = append(byCategory[cat], a)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	headers := []string{"Name", "Location", "Company", "Quantity", "Remaining"}
	usedSheets := make(map[string]bool, len(categories))

	for _, category := range categories {
		sheet := sheetName(category, usedSheets)
		if _, err := f.NewSheet(sheet); err != nil {
			s.logger.Error("创建 Sheet 失败", zap.String("sheet", sheet), zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}

		for i, h := range headers {
			f.SetCellValue(sheet, cell(colName(i), 1), h)
		}
		f.SetCellStyle(sheet, "A1", cell(colName(len(headers)-1), 1), headerStyle)
		f.SetColWidth(sheet, "A", "A", 36)
		f.SetColWidth(sheet, "B", "C", 22)
		f.SetColWidth(sheet, "D", "E", 10)

		rows := byCategory[category]
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].LocationName != rows[j].LocationName {
				return rows[i].LocationName < rows[j].LocationName
			}
			return rows[i].Name < rows[j].Name
		})

		for i, a := range rows {
			row := i + 2
			f.SetCellValue(sheet, cell("A", row), html.UnescapeString(a.Name))
			f.SetCellValue(sheet, cell("B", row), a.LocationName)
			f.SetCellValue(sheet, cell("C", row), a.CompanyName)
			f.SetCellValue(sheet, cell("D", row), a.Quantity)
			f.SetCellValue(sheet, cell("E", row), a.RemainingQuantity)
		}
	}

	// 删除默认 Sheet1（分类恰好叫 Sheet1 时保留）
	if !usedSheets["Sheet1"] {
		f.DeleteSheet("Sheet1")
	}
	f.SetActiveSheet(0)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("accessory-catalog_%s.xlsx", s.now().Format("20060102"))
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

// sheetName Sheet 名最长 31 字符且不能含 : \ / ? * [ ]，重名时追加序号
func sheetName(category string, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, category)
	if name == "" {
		name = "Uncategorized"
	}
	if len([]rune(name)) > 31 {
		name = string([]rune(name)[:31])
	}

	base := name
	for i := 2; used[name]; i++ {
		suffix := fmt.Sprintf(" (%d)", i)
		r := []rune(base)
		if len(r)+len(suffix) > 31 {
			r = r[:31-len(suffix)]
		}
		name = string(r) + suffix
	}
	used[name] = true
	return name
}
