package api

import (
	"net/url"
	"strconv"
	"strings"
)

// Page is the paging and sorting shared by list endpoints.
type Page struct {
	Limit         int
	Offset        int
	SortColumn    string
	SortDirection string `validate:"omitempty,oneof=asc desc"`
}

func (p Page) apply(q url.Values) {
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	set(q, "sort_column", p.SortColumn)
	set(q, "sort_direction", p.SortDirection)
}

type CourseQuery struct {
	Page
	Search     string
	CategoryID string
}

func (p CourseQuery) values() url.Values {
	q := url.Values{}
	set(q, "search", p.Search)
	set(q, "category_id", p.CategoryID)
	p.Page.apply(q)
	return q
}

type CategoryQuery struct {
	Page
	Search string
}

func (p CategoryQuery) values() url.Values {
	q := url.Values{}
	set(q, "search", p.Search)
	p.Page.apply(q)
	return q
}

type OfferingQuery struct {
	Page
	Search   string
	CourseID string
}

func (p OfferingQuery) values() url.Values {
	q := url.Values{}
	set(q, "search", p.Search)
	set(q, "course_id", p.CourseID)
	p.Page.apply(q)
	return q
}

type EnrollmentQuery struct {
	Page
	Search           string
	StudentID        string
	CourseID         string
	CourseOfferingID string
	Status           string `validate:"omitempty,oneof=pending approved rejected completed"`
}

func (p EnrollmentQuery) values() url.Values {
	q := url.Values{}
	set(q, "search_query", p.Search)
	set(q, "student_id", p.StudentID)
	set(q, "course_id", p.CourseID)
	set(q, "course_offering_id", p.CourseOfferingID)
	set(q, "status", p.Status)
	p.Page.apply(q)
	return q
}

type UserQuery struct {
	Page
	Search string
	Role   string `validate:"omitempty,oneof=student instructor admin"`
	Status string `validate:"omitempty,oneof=active inactive pending banned"`
}

func (p UserQuery) values() url.Values {
	q := url.Values{}
	set(q, "search_query", p.Search)
	set(q, "role", p.Role)
	set(q, "status", p.Status)
	p.Page.apply(q)
	return q
}

type FileQuery struct {
	Page
	UploadedBy string
	Tags       []string
	MimeType   string
	BucketName string
}

func (p FileQuery) values() url.Values {
	q := url.Values{}
	set(q, "uploaded_by", p.UploadedBy)
	if len(p.Tags) > 0 {
		q.Set("tags", strings.Join(p.Tags, ","))
	}
	set(q, "mime_type", p.MimeType)
	set(q, "bucket_name", p.BucketName)
	p.Page.apply(q)
	return q
}

func set(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}
