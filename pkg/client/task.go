package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bornholm/taskmarket/internal/core/model"
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

type taskResponse struct {
	Task Task `json:"task"`
}

type CreateTaskRequest struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Reward      model.Amount `json:"reward"`
	Deadline    time.Time    `json:"deadline"`
}

func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var res taskResponse

	if err := c.jsonRequest(ctx, http.MethodPost, "/tasks", nil, bytes.NewReader(body), &res); err != nil {
		return nil, errors.WithStack(err)
	}

	return &res.Task, nil
}

func (c *Client) GetTask(ctx context.Context, id model.TaskID) (*Task, error) {
	var res taskResponse

	if err := c.jsonRequest(ctx, http.MethodGet, fmt.Sprintf("/tasks/%d", id), nil, nil, &res); err != nil {
		return nil, errors.WithStack(err)
	}

	return &res.Task, nil
}

type QueryTasksOptions struct {
	Page   *int
	Limit  *int
	Status *model.Status
	Client *model.UserID
}

type QueryTasksOptionFunc func(opts *QueryTasksOptions)

func WithQueryTasksPage(page int) QueryTasksOptionFunc {
	return func(opts *QueryTasksOptions) {
		opts.Page = &page
	}
}

func WithQueryTasksLimit(limit int) QueryTasksOptionFunc {
	return func(opts *QueryTasksOptions) {
		opts.Limit = &limit
	}
}

func WithQueryTasksStatus(status model.Status) QueryTasksOptionFunc {
	return func(opts *QueryTasksOptions) {
		opts.Status = &status
	}
}

func WithQueryTasksClient(client model.UserID) QueryTasksOptionFunc {
	return func(opts *QueryTasksOptions) {
		opts.Client = &client
	}
}

type listTasksResponse struct {
	Tasks []Task `json:"tasks"`
	Total int64  `json:"total"`
}

func (c *Client) QueryTasks(ctx context.Context, funcs ...QueryTasksOptionFunc) ([]Task, int64, error) {
	opts := &QueryTasksOptions{}
	for _, fn := range funcs {
		fn(opts)
	}

	query := url.Values{}

	if opts.Page != nil {
		query.Set("page", strconv.Itoa(*opts.Page))
	}

	if opts.Limit != nil {
		query.Set("limit", strconv.Itoa(*opts.Limit))
	}

	if opts.Status != nil {
		query.Set("status", string(*opts.Status))
	}

	if opts.Client != nil {
		query.Set("client", string(*opts.Client))
	}

	path := "/tasks"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var res listTasksResponse

	if err := c.jsonRequest(ctx, http.MethodGet, path, nil, nil, &res); err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return res.Tasks, res.Total, nil
}

func (c *Client) AcceptTask(ctx context.Context, id model.TaskID) (*Task, error) {
	return c.taskAction(ctx, id, "accept")
}

// ConfirmTask records the caller's side of the dual confirmation protocol.
func (c *Client) ConfirmTask(ctx context.Context, id model.TaskID) (*Task, error) {
	return c.taskAction(ctx, id, "confirm")
}

func (c *Client) CancelTask(ctx context.Context, id model.TaskID) (*Task, error) {
	return c.taskAction(ctx, id, "cancel")
}

func (c *Client) taskAction(ctx context.Context, id model.TaskID, action string) (*Task, error) {
	var res taskResponse

	if err := c.jsonRequest(ctx, http.MethodPost, fmt.Sprintf("/tasks/%d/%s", id, action), nil, nil, &res); err != nil {
		return nil, errors.WithStack(err)
	}

	return &res.Task, nil
}

type UserTasks struct {
	UserID         model.UserID   `json:"userId"`
	TaskIDs        []model.TaskID `json:"taskIds"`
	CompletedTasks int64          `json:"completedTasks"`
}

func (c *Client) GetUserTasks(ctx context.Context, user model.UserID) (*UserTasks, error) {
	var res UserTasks

	if err := c.jsonRequest(ctx, http.MethodGet, fmt.Sprintf("/users/%s/tasks", url.PathEscape(string(user))), nil, nil, &res); err != nil {
		return nil, errors.WithStack(err)
	}

	return &res, nil
}
