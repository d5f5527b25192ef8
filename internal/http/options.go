package http

import "net/http"

type User struct {
	Username string
	Password string
	Roles    []string
}

type Auth struct {
	AllowAnonymous bool
	Users          []User
}

type Options struct {
	Address string
	BaseURL string
	Auth    Auth
	Mounts  map[string]http.Handler
}

type OptionFunc func(opts *Options)

func NewOptions(funcs ...OptionFunc) *Options {
	opts := &Options{
		Address: ":3002",
		BaseURL: "",
		Auth: Auth{
			AllowAnonymous: true,
			Users:          []User{},
		},
		Mounts: map[string]http.Handler{},
	}
	for _, fn := range funcs {
		fn(opts)
	}
	return opts
}

func WithMount(prefix string, handler http.Handler) OptionFunc {
	return func(opts *Options) {
		opts.Mounts[prefix] = handler
	}
}

func WithBaseURL(baseURL string) OptionFunc {
	return func(opts *Options) {
		opts.BaseURL = baseURL
	}
}

func WithAddress(addr string) OptionFunc {
	return func(opts *Options) {
		opts.Address = addr
	}
}

func WithAllowAnonymous(allow bool) OptionFunc {
	return func(opts *Options) {
		opts.Auth.AllowAnonymous = allow
	}
}

func WithUser(username, password string, roles ...string) OptionFunc {
	return func(opts *Options) {
		opts.Auth.Users = append(opts.Auth.Users, User{
			Username: username,
			Password: password,
			Roles:    roles,
		})
	}
}
