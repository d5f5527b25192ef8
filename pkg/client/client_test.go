package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bornholm/taskmarket/internal/adapter/memory"
	"github.com/bornholm/taskmarket/internal/core/model"
	"github.com/bornholm/taskmarket/internal/core/port"
	"github.com/bornholm/taskmarket/internal/core/service"
	server "github.com/bornholm/taskmarket/internal/http"
	"github.com/bornholm/taskmarket/internal/http/handler/api"
	"github.com/bornholm/taskmarket/internal/http/middleware/authz"
	"github.com/bornholm/taskmarket/pkg/client"
	"github.com/pkg/errors"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := memory.NewTaskStore()
	treasury := memory.NewTreasury()
	notifier := memory.NewNotifier(32)

	registry, err := service.NewRegistry(store, treasury, notifier, "owner", service.WithRegistryFeePercentage(5))
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	srv := server.NewServer(
		server.WithMount("/api/v1/", api.NewHandler(registry, notifier)),
		server.WithAllowAnonymous(false),
		server.WithUser("alice", "alice-secret", authz.RoleUser),
		server.WithUser("bob", "bob-secret", authz.RoleUser),
		server.WithUser("owner", "owner-secret", authz.RoleUser, authz.RoleOwner),
	)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return ts
}

func newTestClient(t *testing.T, ts *httptest.Server, username string) *client.Client {
	t.Helper()

	baseURL, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	return client.New(
		client.WithBaseURL(baseURL),
		client.WithCredentials(username, username+"-secret"),
		client.WithHTTPClient(ts.Client()),
	)
}

func TestClientTaskLifecycle(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	alice := newTestClient(t, ts, "alice")
	bob := newTestClient(t, ts, "bob")
	owner := newTestClient(t, ts, "owner")

	created, err := alice.CreateTask(ctx, client.CreateTaskRequest{
		Title:       "translate landing page",
		Description: "fr -> en",
		Reward:      100,
		Deadline:    time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := model.TaskID(1), created.ID; e != g {
		t.Errorf("task id: expected %d, got %d", e, g)
	}

	if e, g := model.StatusOpen, created.Status; e != g {
		t.Errorf("status: expected %s, got %s", e, g)
	}

	if e, g := model.UserID("alice"), created.Client; e != g {
		t.Errorf("client: expected %s, got %s", e, g)
	}

	market, err := owner.GetMarket(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := model.Amount(100), market.HeldBalance; e != g {
		t.Errorf("held balance: expected %d, got %d", e, g)
	}

	if e, g := int64(1), market.TotalTasks; e != g {
		t.Errorf("total tasks: expected %d, got %d", e, g)
	}

	accepted, err := bob.AcceptTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := model.UserID("bob"), accepted.Freelancer; e != g {
		t.Errorf("freelancer: expected %s, got %s", e, g)
	}

	submitted, err := bob.ConfirmTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := model.StatusAssigned, submitted.Status; e != g {
		t.Errorf("status after submit: expected %s, got %s", e, g)
	}

	if !submitted.FreelancerSubmitted {
		t.Errorf("freelancerSubmitted should be true")
	}

	completed, err := alice.ConfirmTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := model.StatusCompleted, completed.Status; e != g {
		t.Errorf("status after approval: expected %s, got %s", e, g)
	}

	userTasks, err := bob.GetUserTasks(ctx, "bob")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if len(userTasks.TaskIDs) != 1 || userTasks.TaskIDs[0] != created.ID {
		t.Errorf("bob task list: expected [%d], got %v", created.ID, userTasks.TaskIDs)
	}

	if e, g := int64(1), userTasks.CompletedTasks; e != g {
		t.Errorf("bob completed tasks: expected %d, got %d", e, g)
	}

	tasks, total, err := alice.QueryTasks(ctx, client.WithQueryTasksStatus(model.StatusCompleted))
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if total != 1 || len(tasks) != 1 || tasks[0].ID != created.ID {
		t.Errorf("completed tasks: expected [%d], got %v (total %d)", created.ID, tasks, total)
	}

	market, err = owner.GetMarket(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if market.HeldBalance != 0 {
		t.Errorf("held balance after payout: expected 0, got %d", market.HeldBalance)
	}
}

func TestClientMarketOperations(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	alice := newTestClient(t, ts, "alice")
	owner := newTestClient(t, ts, "owner")

	if err := owner.UpdatePlatformFee(ctx, 10); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	market, err := owner.GetMarket(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := int64(10), market.FeePercentage; e != g {
		t.Errorf("fee percentage: expected %d, got %d", e, g)
	}

	if _, err := alice.CreateTask(ctx, client.CreateTaskRequest{
		Title:    "task",
		Reward:   40,
		Deadline: time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	swept, err := owner.EmergencyWithdraw(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := model.Amount(40), swept; e != g {
		t.Errorf("swept amount: expected %d, got %d", e, g)
	}
}

func TestClientErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	alice := newTestClient(t, ts, "alice")
	bob := newTestClient(t, ts, "bob")

	if _, err := alice.GetTask(ctx, 42); !errors.Is(err, port.ErrNotFound) {
		t.Errorf("unknown task: expected ErrNotFound, got %v", err)
	}

	if _, err := alice.CreateTask(ctx, client.CreateTaskRequest{
		Title:    "task",
		Reward:   0,
		Deadline: time.Now().Add(time.Hour),
	}); !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("zero reward: expected ErrInvalidInput, got %v", err)
	}

	created, err := alice.CreateTask(ctx, client.CreateTaskRequest{
		Title:    "task",
		Reward:   10,
		Deadline: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if _, err := alice.AcceptTask(ctx, created.ID); !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("accepting own task: expected ErrUnauthorized, got %v", err)
	}

	if _, err := alice.ConfirmTask(ctx, created.ID); !errors.Is(err, model.ErrInvalidState) {
		t.Errorf("approving before submission: expected ErrInvalidState, got %v", err)
	}

	// Owner routes are refused to plain users before they reach the registry
	if err := bob.UpdatePlatformFee(ctx, 7); !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("non-owner fee update: expected ErrUnauthorized, got %v", err)
	}

	if _, err := bob.EmergencyWithdraw(ctx); !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("non-owner withdraw: expected ErrUnauthorized, got %v", err)
	}
}

func TestRateLimitTransportRetries(t *testing.T) {
	var calls int32

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	transport := &client.RateLimitTransport{
		Base:        http.DefaultTransport,
		MaxRetries:  3,
		DefaultWait: 10 * time.Millisecond,
	}

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	res, err := transport.RoundTrip(req)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	defer res.Body.Close()

	if e, g := http.StatusOK, res.StatusCode; e != g {
		t.Errorf("status: expected %d, got %d", e, g)
	}

	if e, g := int32(2), atomic.LoadInt32(&calls); e != g {
		t.Errorf("requests: expected %d, got %d", e, g)
	}
}
