// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/yuanban/yuanban/internal/config"
	"github.com/yuanban/yuanban/internal/metrics"
	"github.com/yuanban/yuanban/internal/repository"
	"github.com/yuanban/yuanban/pkg/errors"
	"github.com/yuanban/yuanban/pkg/model"
	"github.com/yuanban/yuanban/pkg/scheduler"
	"github.com/yuanban/yuanban/pkg/validator"
)

// ScheduleHandler 排班处理器
type ScheduleHandler struct {
	store *repository.Store
	cfg   *config.Config
}

// NewScheduleHandler 创建排班处理器
func NewScheduleHandler(store *repository.Store, cfg *config.Config) *ScheduleHandler {
	return &ScheduleHandler{store: store, cfg: cfg}
}

// GenerateRequest 排班生成请求
// Confirm 为 false 时仅预览，不落库。
type GenerateRequest struct {
	Year         int                     `json:"year"`
	Month        int                     `json:"month"`
	Requirements *model.RequirementTable `json:"requirements"`
	Seed         *int64                  `json:"seed,omitempty"`
	Confirm      bool                    `json:"confirm"`
}

// GenerateResponse 排班生成响应
type GenerateResponse struct {
	Success     bool                         `json:"success"`
	Committed   bool                         `json:"committed"`
	Message     string                       `json:"message,omitempty"`
	Month       string                       `json:"month"`
	Assignments []*model.ScheduledAssignment `json:"assignments"`
	Log         []scheduler.LogEntry         `json:"log"`
	Statistics  *scheduler.Statistics        `json:"statistics"`
	Duration    string                       `json:"duration"`
}

// Generate 生成整月排班
// 确认后以完整替换方式覆盖目标月的全部记录。
func (h *ScheduleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	month, appErr := parseMonth(req.Year, req.Month)
	if appErr != nil {
		respondError(w, appErr)
		return
	}
	if req.Requirements == nil || len(req.Requirements.Weekly) == 0 {
		respondError(w, errors.InvalidInput("requirements", "需求表不能为空"))
		return
	}

	snap, err := h.store.LoadSnapshot(r.Context(), month)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "加载排班数据失败"))
		return
	}

	seed := h.cfg.Scheduler.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}
	var rng *rand.Rand
	if seed != 0 {
		rng = rand.New(rand.NewSource(seed))
	}

	gen := scheduler.NewGenerator(rng)
	result, err := gen.Generate(r.Context(), &scheduler.Input{
		Month:    month,
		Staff:    snap.Staff,
		Teams:    snap.Teams,
		Catalog:  snap.Catalog,
		Table:    req.Requirements,
		Existing: snap.Existing,
	})
	if err != nil {
		metrics.RecordScheduleGeneration(month.String(), false, 0)
		respondError(w, toAppError(err, "排班生成失败"))
		return
	}

	metrics.RecordScheduleGeneration(month.String(), result.Success, result.Duration)
	metrics.SetUncoveredSlots(month.String(), result.Statistics.UncoveredSlots)

	resp := &GenerateResponse{
		Success:     result.Success,
		Committed:   false,
		Message:     result.Message,
		Month:       month.String(),
		Assignments: result.Assignments,
		Log:         result.Log,
		Statistics:  result.Statistics,
		Duration:    result.Duration.String(),
	}

	if !req.Confirm {
		if resp.Message == "" {
			resp.Message = errors.ErrConfirmationRequired.Message
		}
		respondJSON(w, http.StatusOK, resp)
		return
	}

	if err := h.store.CommitAssignments(r.Context(), month, result.Assignments); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "写入排班结果失败"))
		return
	}
	resp.Committed = true
	respondJSON(w, http.StatusOK, resp)
}

// ValidateRequest 排班校验请求
type ValidateRequest struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// ValidateResponse 排班校验响应
type ValidateResponse struct {
	Valid  bool              `json:"valid"`
	Month  string            `json:"month"`
	Issues []validator.Issue `json:"issues"`
}

// Validate 校验目标月排班的完整性
func (h *ScheduleHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	month, appErr := parseMonth(req.Year, req.Month)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	snap, err := h.store.LoadSnapshot(r.Context(), month)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "加载排班数据失败"))
		return
	}

	var monthAssignments []*model.ScheduledAssignment
	for _, asg := range snap.Existing {
		if month.Contains(asg.Date) {
			monthAssignments = append(monthAssignments, asg)
		}
	}

	v := validator.NewScheduleValidator(snap.Catalog, snap.Teams)
	issues := v.Validate(monthAssignments, snap.Staff)

	respondJSON(w, http.StatusOK, &ValidateResponse{
		Valid:  len(issues) == 0,
		Month:  month.String(),
		Issues: issues,
	})
}

// parseMonth 解析并校验年月
func parseMonth(year, month int) (model.Month, *errors.AppError) {
	if year < 2000 || year > 2100 {
		return model.Month{}, errors.InvalidInput("year", "年份超出范围")
	}
	if month < 1 || month > 12 {
		return model.Month{}, errors.InvalidInput("month", "月份必须在1到12之间")
	}
	return model.Month{Year: year, Month: time.Month(month)}, nil
}

// toAppError 将任意错误规整为AppError
func toAppError(err error, fallback string) *errors.AppError {
	if appErr, ok := err.(*errors.AppError); ok {
		return appErr
	}
	return errors.Wrap(err, errors.CodeInternal, fallback)
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, err *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    err.Code,
		"message": err.Message,
		"details": err.Details,
	})
}
