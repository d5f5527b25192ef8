package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/bornholm/taskmarket/internal/core/model"
	"github.com/pkg/errors"
)

type Market struct {
	Owner         model.UserID `json:"owner"`
	FeePercentage int64        `json:"feePercentage"`
	TotalTasks    int64        `json:"totalTasks"`
	HeldBalance   model.Amount `json:"heldBalance"`
}

func (c *Client) GetMarket(ctx context.Context) (*Market, error) {
	var res Market

	if err := c.jsonRequest(ctx, http.MethodGet, "/market", nil, nil, &res); err != nil {
		return nil, errors.WithStack(err)
	}

	return &res, nil
}

func (c *Client) UpdatePlatformFee(ctx context.Context, percentage int64) error {
	body, err := json.Marshal(struct {
		Percentage int64 `json:"percentage"`
	}{Percentage: percentage})
	if err != nil {
		return errors.WithStack(err)
	}

	var res struct {
		FeePercentage int64 `json:"feePercentage"`
	}

	if err := c.jsonRequest(ctx, http.MethodPut, "/market/fee", nil, bytes.NewReader(body), &res); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (c *Client) EmergencyWithdraw(ctx context.Context) (model.Amount, error) {
	var res struct {
		Amount model.Amount `json:"amount"`
	}

	if err := c.jsonRequest(ctx, http.MethodPost, "/market/withdraw", nil, nil, &res); err != nil {
		return 0, errors.WithStack(err)
	}

	return res.Amount, nil
}
