package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"uni-timetable/backend/internal/engine"
	"uni-timetable/backend/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportProgrammeNotFound = errors.New("培养方案不存在")
	ErrExportNoAttributions    = errors.New("该培养方案暂无排课记录")
	ErrExportGenerateFail      = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 课表以 6×3 周网格导出为 Excel (.xlsx)：每个班组一个 Sheet，
// 列为周一至周六，行为 S1-S3。以 bytes.Buffer 返回，由 Handler 设置下载响应头。
type ExportService interface {
	// ExportTimetable group 为 0 时导出全部班组
	ExportTimetable(ctx context.Context, programmeID string, group int) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	eng    Scheduler
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, eng Scheduler, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, eng: eng, logger: logger}
}

var dayLabels = map[engine.Day]string{
	engine.Monday:    "周一",
	engine.Tuesday:   "周二",
	engine.Wednesday: "周三",
	engine.Thursday:  "周四",
	engine.Friday:    "周五",
	engine.Saturday:  "周六",
}

// ═══════════════════════════════════════════════════════════
// ExportTimetable 导出培养方案课表
// ═══════════════════════════════════════════════════════════
//
// 单元格：课程名 / 教室名 / 教师名，空格子填 "-"。
// 返回值：buf（Excel 内容）, filename（建议文件名）, error

func (s *exportService) ExportTimetable(ctx context.Context, programmeID string, group int) (*bytes.Buffer, string, error) {
	// 1. 查询培养方案
	programme, err := s.repo.Reference.Programme(ctx, programmeID)
	if err != nil {
		if errors.Is(err, repository.ErrProgrammeNotFound) {
			return nil, "", ErrExportProgrammeNotFound
		}
		s.logger.Error("查询培养方案失败", zap.String("programme_id", programmeID), zap.Error(err))
		return nil, "", err
	}

	// 2. 排课记录
	filter := engine.AttributionFilter{ProgrammeID: programmeID}
	if group > 0 {
		filter.Group = &group
	}
	attrs := s.eng.ListAttributions(filter)
	if len(attrs) == 0 {
		return nil, "", ErrExportNoAttributions
	}

	// 3. 课程名称
	courses, err := s.repo.Reference.ListCourseInstances(ctx, programmeID, group)
	if err != nil {
		s.logger.Error("查询课程实例失败", zap.Error(err))
		return nil, "", err
	}
	courseNames := make(map[string]string, len(courses))
	for _, c := range courses {
		courseNames[c.ID] = c.Name
	}

	// 4. 按班组分组：group → slot → 单元格文本
	names := newNameCache(s.repo.Reference)
	cells := make(map[int]map[engine.Slot]string)
	var groups []int
	for _, a := range attrs {
		p := a.Placement
		if _, ok := cells[p.Group]; !ok {
			cells[p.Group] = make(map[engine.Slot]string)
			groups = append(groups, p.Group)
		}
		course := courseNames[p.CourseID]
		if course == "" {
			course = p.CourseID
		}
		cells[p.Group][p.Slot] = fmt.Sprintf("%s\n%s\n%s",
			course, names.room(ctx, p.RoomID), names.professor(ctx, p.ProfessorID))
	}
	sort.Ints(groups)

	// 5. 生成 Excel
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	cellStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})

	for i, g := range groups {
		sheet := fmt.Sprintf("第%d组", g)
		idx, err := f.NewSheet(sheet)
		if err != nil {
			s.logger.Error("创建 Sheet 失败", zap.String("sheet", sheet), zap.Error(err))
			return nil, "", ErrExportGenerateFail
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}
		s.writeGrid(f, sheet, fmt.Sprintf("%s 第%d组", programme.Name, g), cells[g], headerStyle, cellStyle)
	}
	// 删除默认 Sheet1
	f.DeleteSheet("Sheet1")

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("课表_%s.xlsx", programme.Name)
	if group > 0 {
		filename = fmt.Sprintf("课表_%s_第%d组.xlsx", programme.Name, group)
	}
	return buf, filename, nil
}

// writeGrid 表头: | 时段 | 周一 | ... | 周六 |
func (s *exportService) writeGrid(f *excelize.File, sheet, title string, cells map[engine.Slot]string, headerStyle, cellStyle int) {
	lastCol := colName(engine.DaysPerWeek)

	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", lastCol, 24)

	f.SetCellValue(sheet, "A1", title)
	f.MergeCell(sheet, "A1", cell(lastCol, 1))
	f.SetCellStyle(sheet, "A1", "A1", headerStyle)

	f.SetCellValue(sheet, cell("A", 2), "时段")
	for d := engine.Monday; d <= engine.Saturday; d++ {
		f.SetCellValue(sheet, cell(colName(int(d)), 2), dayLabels[d])
	}
	f.SetCellStyle(sheet, "A2", cell(lastCol, 2), headerStyle)

	for p := engine.S1; p <= engine.S3; p++ {
		row := 2 + int(p)
		f.SetCellValue(sheet, cell("A", row), p.String())
		f.SetRowHeight(sheet, row, 48)
		for d := engine.Monday; d <= engine.Saturday; d++ {
			text, ok := cells[engine.Slot{Day: d, Period: p}]
			if !ok {
				text = "-"
			}
			f.SetCellValue(sheet, cell(colName(int(d)), row), text)
		}
	}
	f.SetCellStyle(sheet, "B3", cell(lastCol, 2+engine.PeriodsPerDay), cellStyle)
}

// ── 辅助函数 ──

// nameCache 导出时按 ID 查询教室/教师名称，查询失败时回退为 ID
type nameCache struct {
	refs       repository.ReferenceRepository
	rooms      map[string]string
	professors map[string]string
}

func newNameCache(refs repository.ReferenceRepository) *nameCache {
	return &nameCache{refs: refs, rooms: map[string]string{}, professors: map[string]string{}}
}

func (n *nameCache) room(ctx context.Context, id string) string {
	if name, ok := n.rooms[id]; ok {
		return name
	}
	name := id
	if r, err := n.refs.Room(ctx, id); err == nil && r.Name != "" {
		name = r.Name
	}
	n.rooms[id] = name
	return name
}

func (n *nameCache) professor(ctx context.Context, id string) string {
	if name, ok := n.professors[id]; ok {
		return name
	}
	name := id
	if p, err := n.refs.Professor(ctx, id); err == nil && p.Name != "" {
		name = p.Name
	}
	n.professors[id] = name
	return name
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
