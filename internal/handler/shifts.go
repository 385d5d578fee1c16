package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/yuanban/yuanban/internal/config"
	"github.com/yuanban/yuanban/internal/repository"
	"github.com/yuanban/yuanban/pkg/errors"
	"github.com/yuanban/yuanban/pkg/merge"
	"github.com/yuanban/yuanban/pkg/model"
	"github.com/yuanban/yuanban/pkg/schedule"
)

// ShiftHandler 单班次变更处理器
// 登记缺勤、指派未覆盖班次和改班都是基于当前库内数据的点修改。
type ShiftHandler struct {
	store *repository.Store
	cfg   *config.Config
}

// NewShiftHandler 创建单班次变更处理器
func NewShiftHandler(store *repository.Store, cfg *config.Config) *ShiftHandler {
	return &ShiftHandler{store: store, cfg: cfg}
}

// mergePolicy 将配置项转为合并策略
func (h *ShiftHandler) mergePolicy() merge.Policy {
	if h.cfg.Scheduler.MergePolicy == "reject" {
		return merge.PolicyReject
	}
	return merge.PolicyWarnAndAllow
}

// loadBoard 按日期区间加载排班板
func loadBoard(r *http.Request, store *repository.Store, startDate, endDate string) (*schedule.Board, *errors.AppError) {
	ctx := r.Context()

	staff, err := store.Staff.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "加载人员失败")
	}
	teamMap, err := store.Teams.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "加载班组失败")
	}
	catalog, err := store.Definitions.LoadCatalog(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "加载班次目录失败")
	}
	assignments, err := store.Schedules.ListRange(ctx, startDate, endDate)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "加载排班记录失败")
	}

	teams := make([]*model.Team, 0, len(teamMap))
	for _, t := range teamMap {
		teams = append(teams, t)
	}

	board := schedule.NewBoard(staff, teams, catalog)
	if err := board.SetAssignments(assignments); err != nil {
		return nil, toAppError(err, "装载排班记录失败")
	}
	return board, nil
}

// AbsenceRequest 缺勤登记请求
type AbsenceRequest struct {
	StaffID   string `json:"staff_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"` // 缺勤类别的班次代码
}

// AbsenceResponse 缺勤登记响应
type AbsenceResponse struct {
	Success   bool                         `json:"success"`
	AbsenceID string                       `json:"absence_id"`
	Uncovered []*model.ScheduledAssignment `json:"uncovered"` // 由缺勤产生的未覆盖班次
}

// RegisterAbsence 登记缺勤
// 缺勤者原有的工作班次转为未覆盖占位并记录原持有人。
func (h *ShiftHandler) RegisterAbsence(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req AbsenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		respondError(w, errors.InvalidInput("staff_id", "无效的人员ID格式"))
		return
	}
	if _, err := model.ParseDate(req.StartDate); err != nil {
		respondError(w, errors.InvalidInput("start_date", "日期格式应为YYYY-MM-DD"))
		return
	}
	if _, err := model.ParseDate(req.EndDate); err != nil {
		respondError(w, errors.InvalidInput("end_date", "日期格式应为YYYY-MM-DD"))
		return
	}
	if req.EndDate < req.StartDate {
		respondError(w, errors.New(errors.CodeInvalidDateRange, "结束日期早于开始日期"))
		return
	}

	rec := &model.AbsenceRecord{
		StaffID:   staffID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Reason:    req.Reason,
	}

	board, appErr := loadBoard(r, h.store, req.StartDate, req.EndDate)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	uncovered, err := board.ApplyAbsence(rec)
	if err != nil {
		respondError(w, toAppError(err, "应用缺勤失败"))
		return
	}

	if err := h.store.Absences.Create(r.Context(), rec); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "登记缺勤失败"))
		return
	}
	if appErr := h.persistRange(r, board, req.StartDate, req.EndDate); appErr != nil {
		respondError(w, appErr)
		return
	}

	respondJSON(w, http.StatusOK, &AbsenceResponse{
		Success:   true,
		AbsenceID: rec.ID.String(),
		Uncovered: uncovered,
	})
}

// AssignRequest 未覆盖班次指派请求
type AssignRequest struct {
	SlotID  string `json:"slot_id"`
	StaffID string `json:"staff_id"`
	Date    string `json:"date"`
}

// AssignResponse 指派响应
type AssignResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"shift_code"`
	Warning string `json:"warning,omitempty"`
}

// AssignUncovered 将未覆盖班次指派给人员
// 人员当日已有工作班次时按合并规则处理。
func (h *ShiftHandler) AssignUncovered(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req AssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		respondError(w, errors.InvalidInput("staff_id", "无效的人员ID格式"))
		return
	}
	if _, err := model.ParseDate(req.Date); err != nil {
		respondError(w, errors.InvalidInput("date", "日期格式应为YYYY-MM-DD"))
		return
	}

	board, appErr := loadBoard(r, h.store, req.Date, req.Date)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	merger := merge.NewMerger(h.mergePolicy(), nil)
	result, err := board.AssignUncovered(req.SlotID, staffID, merger)
	if err != nil {
		respondError(w, toAppError(err, "指派失败"))
		return
	}
	if appErr := h.persistRange(r, board, req.Date, req.Date); appErr != nil {
		respondError(w, appErr)
		return
	}

	resp := &AssignResponse{Success: true}
	if result != nil {
		resp.Code = result.Code.String()
		resp.Warning = result.Warning
	} else if asg := board.Get(staffID, req.Date); asg != nil {
		resp.Code = asg.Code.String()
	}
	respondJSON(w, http.StatusOK, resp)
}

// UpdateRequest 改班请求
// ShiftCode 为空表示清除该日班次。
type UpdateRequest struct {
	StaffID   string `json:"staff_id"`
	Date      string `json:"date"`
	ShiftCode string `json:"shift_code"`
}

// UpdateResponse 改班响应
type UpdateResponse struct {
	Success    bool                         `json:"success"`
	Assignment *model.ScheduledAssignment   `json:"assignment,omitempty"`
	Uncovered  []*model.ScheduledAssignment `json:"uncovered,omitempty"`
}

// UpdateShift 修改单人单日的班次
func (h *ShiftHandler) UpdateShift(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	staffID, err := uuid.Parse(req.StaffID)
	if err != nil {
		respondError(w, errors.InvalidInput("staff_id", "无效的人员ID格式"))
		return
	}
	if _, err := model.ParseDate(req.Date); err != nil {
		respondError(w, errors.InvalidInput("date", "日期格式应为YYYY-MM-DD"))
		return
	}

	board, appErr := loadBoard(r, h.store, req.Date, req.Date)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	asg, err := board.UpdateShift(staffID, req.Date, req.ShiftCode)
	if err != nil {
		respondError(w, toAppError(err, "改班失败"))
		return
	}
	if appErr := h.persistRange(r, board, req.Date, req.Date); appErr != nil {
		respondError(w, appErr)
		return
	}

	respondJSON(w, http.StatusOK, &UpdateResponse{
		Success:    true,
		Assignment: asg,
		Uncovered:  board.UncoveredOn(req.Date),
	})
}

// persistRange 将排班板在日期区间内的状态写回数据库
// 先清掉区间内旧记录再写回，保证删除的记录也会消失。
func (h *ShiftHandler) persistRange(r *http.Request, board *schedule.Board, startDate, endDate string) *errors.AppError {
	ctx := r.Context()

	old, err := h.store.Schedules.ListRange(ctx, startDate, endDate)
	if err != nil {
		return errors.Wrap(err, errors.CodeDatabaseError, "读取旧排班失败")
	}

	current := make(map[string]*model.ScheduledAssignment)
	for _, asg := range board.All() {
		if asg.Date >= startDate && asg.Date <= endDate {
			current[asg.ID] = asg
		}
	}

	for _, asg := range old {
		if _, ok := current[asg.ID]; !ok {
			if err := h.store.Schedules.DeleteByID(ctx, asg.ID); err != nil {
				return errors.Wrap(err, errors.CodeDatabaseError, "删除旧排班记录失败")
			}
		}
	}
	for _, asg := range current {
		if err := h.store.Schedules.Upsert(ctx, asg); err != nil {
			return errors.Wrap(err, errors.CodeDatabaseError, "写入排班记录失败")
		}
	}
	return nil
}
