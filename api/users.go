package api

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-lms-client/internal/cache"
	"github.com/jrsteele09/go-lms-client/internal/validation"
	"github.com/jrsteele09/go-lms-client/users"
)

const PathUsers = "/api/v1/users"

func (c *Client) ListUsers(ctx context.Context, q UserQuery) (*users.List, error) {
	if err := validation.Struct(q); err != nil {
		return nil, err
	}
	var out users.List
	if err := c.get(ctx, PathUsers, q.values(), &out, cache.List(cache.TagUser)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*users.User, error) {
	var out users.User
	if err := c.get(ctx, PathUsers+"/"+pathID(id), nil, &out, cache.Item(cache.TagUser, id)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateUser(ctx context.Context, in users.CreateRequest) (*users.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out users.User
	if err := c.mutate(ctx, http.MethodPost, PathUsers, in, &out, cache.List(cache.TagUser)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, in users.UpdateRequest) (*users.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out users.User
	if err := c.mutate(ctx, http.MethodPut, PathUsers+"/"+pathID(id), in, &out, cache.Item(cache.TagUser, id)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.mutate(ctx, http.MethodDelete, PathUsers+"/"+pathID(id), nil, nil, cache.Item(cache.TagUser, id))
}
