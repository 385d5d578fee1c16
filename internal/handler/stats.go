package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/yuanban/yuanban/internal/config"
	"github.com/yuanban/yuanban/internal/metrics"
	"github.com/yuanban/yuanban/internal/repository"
	"github.com/yuanban/yuanban/pkg/errors"
	"github.com/yuanban/yuanban/pkg/model"
	"github.com/yuanban/yuanban/pkg/stats"
)

// StatsHandler 统计分析处理器
type StatsHandler struct {
	store *repository.Store
	cfg   *config.Config
}

// NewStatsHandler 创建统计分析处理器
func NewStatsHandler(store *repository.Store, cfg *config.Config) *StatsHandler {
	return &StatsHandler{store: store, cfg: cfg}
}

// CoverageRequest 覆盖率统计请求
type CoverageRequest struct {
	Year         int                     `json:"year"`
	Month        int                     `json:"month"`
	Requirements *model.RequirementTable `json:"requirements"`
}

// Coverage 对照需求表统计目标月覆盖率
func (h *StatsHandler) Coverage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req CoverageRequest
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

	board, appErr := loadBoard(r, h.store, month.FirstDay(), month.DateOf(month.Days()))
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	analyzer := stats.NewCoverageAnalyzer(req.Requirements)
	m, err := analyzer.Analyze(board, month)
	if err != nil {
		respondError(w, toAppError(err, "覆盖率统计失败"))
		return
	}

	metrics.SetCoverageRate(month.String(), m.OverallCoverage)
	respondJSON(w, http.StatusOK, m)
}

// Workload 统计目标月各人员的工作量分布
func (h *StatsHandler) Workload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}

	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	monthNum, _ := strconv.Atoi(r.URL.Query().Get("month"))
	month, appErr := parseMonth(year, monthNum)
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	board, appErr := loadBoard(r, h.store, month.FirstDay(), month.DateOf(month.Days()))
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	m := stats.NewWorkloadAnalyzer().Analyze(board)
	metrics.SetFairnessGini("workload", m.WorkloadGini)
	metrics.SetFairnessGini("night", m.NightGini)
	respondJSON(w, http.StatusOK, m)
}
