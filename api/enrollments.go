package api

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-lms-client/enrollments"
	"github.com/jrsteele09/go-lms-client/internal/cache"
	"github.com/jrsteele09/go-lms-client/internal/validation"
)

const PathEnrollments = "/api/v1/enrollments"

func (c *Client) ListEnrollments(ctx context.Context, q EnrollmentQuery) (*enrollments.List, error) {
	if err := validation.Struct(q); err != nil {
		return nil, err
	}
	var out enrollments.List
	if err := c.get(ctx, PathEnrollments, q.values(), &out, cache.List(cache.TagEnrollment)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetEnrollment(ctx context.Context, id string) (*enrollments.Enrollment, error) {
	var out enrollments.Enrollment
	if err := c.get(ctx, PathEnrollments+"/"+pathID(id), nil, &out, cache.Item(cache.TagEnrollment, id)); err != nil {
		return nil, err
	}
	return &out, nil
}

// EnrollmentsByUser lists a student's enrollments.
func (c *Client) EnrollmentsByUser(ctx context.Context, userID string) ([]enrollments.Enrollment, error) {
	var out []enrollments.Enrollment
	if err := c.get(ctx, PathEnrollments+"/user/"+pathID(userID), nil, &out, cache.List(cache.TagEnrollment)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) EnrollmentsByCourse(ctx context.Context, courseID string) ([]enrollments.Enrollment, error) {
	var out []enrollments.Enrollment
	if err := c.get(ctx, PathEnrollments+"/course/"+pathID(courseID), nil, &out, cache.List(cache.TagEnrollment)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateEnrollment(ctx context.Context, in enrollments.CreateRequest) (*enrollments.Enrollment, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out enrollments.Enrollment
	if err := c.mutate(ctx, http.MethodPost, PathEnrollments, in, &out, cache.List(cache.TagEnrollment)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateEnrollmentStatus(ctx context.Context, id string, status enrollments.StatusType) (*enrollments.Enrollment, error) {
	in := enrollments.StatusRequest{Status: status}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out enrollments.Enrollment
	path := PathEnrollments + "/" + pathID(id) + "/status"
	if err := c.mutate(ctx, http.MethodPut, path, in, &out, cache.Item(cache.TagEnrollment, id)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteEnrollment(ctx context.Context, id string) error {
	return c.mutate(ctx, http.MethodDelete, PathEnrollments+"/"+pathID(id), nil, nil, cache.Item(cache.TagEnrollment, id))
}
