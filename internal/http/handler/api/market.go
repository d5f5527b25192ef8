package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bornholm/taskmarket/internal/core/model"
	"github.com/bornholm/taskmarket/internal/core/port"
	httpCtx "github.com/bornholm/taskmarket/internal/http/context"
	"github.com/pkg/errors"
)

type MarketResponse struct {
	Owner         model.UserID `json:"owner"`
	FeePercentage int64        `json:"feePercentage"`
	TotalTasks    int64        `json:"totalTasks"`
	HeldBalance   model.Amount `json:"heldBalance"`
}

func (h *Handler) handleGetMarket(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	total, err := h.registry.GetTotalTasks(ctx)
	if err != nil {
		handleError(w, r, errors.WithStack(err))
		return
	}

	held, err := h.registry.HeldBalance(ctx)
	if err != nil {
		handleError(w, r, errors.WithStack(err))
		return
	}

	writeJSON(w, r, http.StatusOK, MarketResponse{
		Owner:         h.registry.Owner(),
		FeePercentage: h.registry.FeePercentage(),
		TotalTasks:    total,
		HeldBalance:   held,
	})
}

type UpdateFeeRequest struct {
	Percentage int64 `json:"percentage"`
}

type UpdateFeeResponse struct {
	FeePercentage int64 `json:"feePercentage"`
}

func (h *Handler) handleUpdateFee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := httpCtx.User(ctx)

	var req UpdateFeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.registry.UpdatePlatformFee(ctx, user.ID(), req.Percentage); err != nil {
		handleError(w, r, errors.WithStack(err))
		return
	}

	writeJSON(w, r, http.StatusOK, UpdateFeeResponse{FeePercentage: h.registry.FeePercentage()})
}

type EmergencyWithdrawResponse struct {
	Amount model.Amount `json:"amount"`
}

func (h *Handler) handleEmergencyWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := httpCtx.User(ctx)

	amount, err := h.registry.EmergencyWithdraw(ctx, user.ID())
	if err != nil {
		handleError(w, r, errors.WithStack(err))
		return
	}

	writeJSON(w, r, http.StatusOK, EmergencyWithdrawResponse{Amount: amount})
}

type LedgerEntry struct {
	ID        model.LedgerEntryID   `json:"id"`
	Type      model.LedgerEntryType `json:"type"`
	TaskID    model.TaskID          `json:"taskId,omitempty"`
	Account   model.UserID          `json:"account"`
	Amount    model.Amount          `json:"amount"`
	CreatedAt time.Time             `json:"createdAt"`
}

type QueryLedgerResponse struct {
	Entries []LedgerEntry `json:"entries"`
	Page    int           `json:"page"`
	Limit   int           `json:"limit"`
}

func (h *Handler) handleQueryLedger(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	page := getQueryPage(query, 0)
	limit := getQueryLimit(query, 50)

	opts := port.QueryLedgerOptions{
		Page:  &page,
		Limit: &limit,
	}

	if rawTaskID := query.Get("taskId"); rawTaskID != "" {
		taskID, err := parseTaskID(rawTaskID)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		opts.TaskID = &taskID
	}

	entries, err := h.registry.QueryLedger(ctx, opts)
	if err != nil {
		handleError(w, r, errors.WithStack(err))
		return
	}

	res := QueryLedgerResponse{
		Entries: make([]LedgerEntry, 0, len(entries)),
		Page:    page,
		Limit:   limit,
	}

	for _, e := range entries {
		res.Entries = append(res.Entries, LedgerEntry{
			ID:        e.ID,
			Type:      e.Type,
			TaskID:    e.TaskID,
			Account:   e.Account,
			Amount:    e.Amount,
			CreatedAt: e.CreatedAt,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
