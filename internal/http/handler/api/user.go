package api

import (
	"net/http"

	"github.com/bornholm/taskmarket/internal/core/model"
	"github.com/pkg/errors"
)

type UserTasksResponse struct {
	UserID         model.UserID   `json:"userId"`
	TaskIDs        []model.TaskID `json:"taskIds"`
	CompletedTasks int64          `json:"completedTasks"`
}

func (h *Handler) handleGetUserTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := model.UserID(r.PathValue("userID"))

	ids, err := h.registry.GetUserTasks(ctx, userID)
	if err != nil {
		handleError(w, r, errors.WithStack(err))
		return
	}

	completed, err := h.registry.CompletedTasksCount(ctx, userID)
	if err != nil {
		handleError(w, r, errors.WithStack(err))
		return
	}

	writeJSON(w, r, http.StatusOK, UserTasksResponse{
		UserID:         userID,
		TaskIDs:        ids,
		CompletedTasks: completed,
	})
}
