package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/yuanban/yuanban/internal/config"
	"github.com/yuanban/yuanban/internal/metrics"
	"github.com/yuanban/yuanban/internal/repository"
	"github.com/yuanban/yuanban/pkg/errors"
	"github.com/yuanban/yuanban/pkg/model"
	"github.com/yuanban/yuanban/pkg/replacement"
)

// ReplacementHandler 顶班推荐处理器
type ReplacementHandler struct {
	store *repository.Store
	cfg   *config.Config
}

// NewReplacementHandler 创建顶班推荐处理器
func NewReplacementHandler(store *repository.Store, cfg *config.Config) *ReplacementHandler {
	return &ReplacementHandler{store: store, cfg: cfg}
}

// FindRequest 顶班推荐请求
type FindRequest struct {
	Date          string   `json:"date"`
	ShiftCode     string   `json:"shift_code"`
	AbsentStaffID string   `json:"absent_staff_id"`
	Exclude       []string `json:"exclude,omitempty"`
}

// CandidateOutput 人选输出
type CandidateOutput struct {
	StaffID    string  `json:"staff_id"`
	StaffName  string  `json:"staff_name"`
	Contract   string  `json:"contract"`
	Score      float64 `json:"score"`
	Reason     string  `json:"reason"`
	Extendable bool    `json:"extendable"`
	Rank       int     `json:"rank"`
}

// FindResponse 顶班推荐响应
type FindResponse struct {
	Success    bool              `json:"success"`
	Candidates []CandidateOutput `json:"candidates"`
}

// Find 为缺口班次推荐顶班人选
// 人选列表可能为空，空列表不是错误。
func (h *ReplacementHandler) Find(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持POST方法"))
		return
	}

	var req FindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败"))
		return
	}
	if _, err := model.ParseDate(req.Date); err != nil {
		respondError(w, errors.InvalidInput("date", "日期格式应为YYYY-MM-DD"))
		return
	}
	absentID, err := uuid.Parse(req.AbsentStaffID)
	if err != nil {
		respondError(w, errors.InvalidInput("absent_staff_id", "无效的人员ID格式"))
		return
	}
	exclude := make([]uuid.UUID, 0, len(req.Exclude))
	for _, raw := range req.Exclude {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, errors.InvalidInput("exclude", "无效的人员ID格式: "+raw))
			return
		}
		exclude = append(exclude, id)
	}

	t, _ := model.ParseDate(req.Date)
	month := model.Month{Year: t.Year(), Month: t.Month()}
	// 地点经验加分需要看整月记录
	board, appErr := loadBoard(r, h.store, month.FirstDay(), month.DateOf(month.Days()))
	if appErr != nil {
		respondError(w, appErr)
		return
	}

	finder := replacement.NewFinder(replacement.Weights{
		ContractH24:   h.cfg.Replacement.ContractH24,
		ContractH12:   h.cfg.Replacement.ContractH12,
		ContractH6:    h.cfg.Replacement.ContractH6,
		Extendable:    h.cfg.Replacement.Extendable,
		RoleMatch:     h.cfg.Replacement.RoleMatch,
		KnownLocation: h.cfg.Replacement.KnownLocation,
	})

	candidates, err := finder.Find(board, req.Date, req.ShiftCode, absentID, &replacement.Options{
		MaxCandidates: h.cfg.Replacement.MaxCandidates,
		Exclude:       exclude,
	})
	if err != nil {
		respondError(w, toAppError(err, "顶班推荐失败"))
		return
	}

	metrics.RecordReplacementQuery(len(candidates) > 0)

	out := make([]CandidateOutput, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, CandidateOutput{
			StaffID:    c.Staff.ID.String(),
			StaffName:  c.Staff.Name,
			Contract:   string(c.Staff.Contract),
			Score:      c.Score,
			Reason:     c.Reason,
			Extendable: c.Extendable,
			Rank:       c.Rank,
		})
	}
	respondJSON(w, http.StatusOK, &FindResponse{Success: true, Candidates: out})
}
