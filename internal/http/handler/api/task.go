package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/bornholm/taskmarket/internal/core/model"
	"github.com/bornholm/taskmarket/internal/core/port"
	httpCtx "github.com/bornholm/taskmarket/internal/http/context"
	"github.com/pkg/errors"
)

type Task struct {
	ID                  model.TaskID `json:"id"`
	Title               string       `json:"title"`
	Description         string       `json:"description,omitempty"`
	Reward              model.Amount `json:"reward"`
	Client              model.UserID `json:"client"`
	Freelancer          model.UserID `json:"freelancer,omitempty"`
	Status              model.Status `json:"status"`
	Deadline            time.Time    `json:"deadline"`
	FreelancerSubmitted bool         `json:"freelancerSubmitted"`
	ClientApproved      bool         `json:"clientApproved"`
	CreatedAt           time.Time    `json:"createdAt"`
	UpdatedAt           time.Time    `json:"updatedAt"`
}

func fromTask(t *model.Task) Task {
	return Task{
		ID:                  t.ID(),
		Title:               t.Title(),
		Description:         t.Description(),
		Reward:              t.Reward(),
		Client:              t.Client(),
		Freelancer:          t.Freelancer(),
		Status:              t.Status(),
		Deadline:            t.Deadline(),
		FreelancerSubmitted: t.FreelancerSubmitted(),
		ClientApproved:      t.ClientApproved(),
		CreatedAt:           t.CreatedAt(),
		UpdatedAt:           t.UpdatedAt(),
	}
}

type CreateTaskRequest struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Reward      model.Amount `json:"reward"`
	Deadline    time.Time    `json:"deadline"`
}

type TaskResponse struct {
	Task Task `json:"task"`
}

func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := httpCtx.User(ctx)

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	task, err := h.registry.CreateTask(ctx, user.ID(), req.Title, req.Description, req.Reward, req.Deadline)
	if err != nil {
		handleError(w, r, errors.WithStack(err))
		return
	}

	writeJSON(w, r, http.StatusCreated, TaskResponse{Task: fromTask(task)})
}

type ListTasksResponse struct {
	Tasks []Task `json:"tasks"`
	Total int64  `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	page := getQueryPage(query, 0)
	limit := getQueryLimit(query, 10)

	opts := port.QueryTasksOptions{
		Page:  &page,
		Limit: &limit,
	}

	if rawStatus := query.Get("status"); rawStatus != "" {
		status := model.Status(rawStatus)
		opts.Status = &status
	}

	if rawClient := query.Get("client"); rawClient != "" {
		client := model.UserID(rawClient)
		opts.Client = &client
	}

	tasks, total, err := h.registry.QueryTasks(ctx, opts)
	if err != nil {
		handleError(w, r, errors.WithStack(err))
		return
	}

	res := ListTasksResponse{
		Tasks: make([]Task, 0, len(tasks)),
		Total: total,
		Page:  page,
		Limit: limit,
	}

	for _, t := range tasks {
		res.Tasks = append(res.Tasks, fromTask(t))
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	taskID, err := getTaskID(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	task, err := h.registry.GetTask(ctx, taskID)
	if err != nil {
		handleError(w, r, errors.WithStack(err))
		return
	}

	writeJSON(w, r, http.StatusOK, TaskResponse{Task: fromTask(task)})
}

func (h *Handler) handleAcceptTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := httpCtx.User(ctx)

	taskID, err := getTaskID(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	task, err := h.registry.AcceptTask(ctx, user.ID(), taskID)
	if err != nil {
		handleError(w, r, errors.WithStack(err))
		return
	}

	writeJSON(w, r, http.StatusOK, TaskResponse{Task: fromTask(task)})
}

func (h *Handler) handleConfirmTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := httpCtx.User(ctx)

	taskID, err := getTaskID(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	task, err := h.registry.CompleteTask(ctx, user.ID(), taskID)
	if err != nil {
		handleError(w, r, errors.WithStack(err))
		return
	}

	writeJSON(w, r, http.StatusOK, TaskResponse{Task: fromTask(task)})
}

func (h *Handler) handleCancelTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := httpCtx.User(ctx)

	taskID, err := getTaskID(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	task, err := h.registry.CancelTask(ctx, user.ID(), taskID)
	if err != nil {
		handleError(w, r, errors.WithStack(err))
		return
	}

	writeJSON(w, r, http.StatusOK, TaskResponse{Task: fromTask(task)})
}

func getTaskID(r *http.Request) (model.TaskID, error) {
	return parseTaskID(r.PathValue("taskID"))
}

func parseTaskID(raw string) (model.TaskID, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return model.TaskID(id), nil
}
