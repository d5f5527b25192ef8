package client

import (
	"net/http"
	"net/url"
)

type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

func New(funcs ...OptionFunc) *Client {
	opts := NewOptions(funcs...)

	baseURL := opts.BaseURL
	if opts.Username != "" {
		u := *baseURL
		u.User = url.UserPassword(opts.Username, opts.Password)
		baseURL = &u
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: opts.HTTPClient,
	}
}
