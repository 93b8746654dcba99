package api

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-lms-client/courses"
	"github.com/jrsteele09/go-lms-client/internal/cache"
	"github.com/jrsteele09/go-lms-client/internal/validation"
)

const (
	PathCourses         = "/api/v1/courses"
	PathCategories      = "/api/v1/categories"
	PathCourseOfferings = "/api/v1/course-offerings"
	PathCourseSections  = "/api/v1/course-sections"
	PathSectionModules  = "/api/v1/section-modules"
)

func (c *Client) ListCourses(ctx context.Context, q CourseQuery) (*courses.CourseList, error) {
	if err := validation.Struct(q); err != nil {
		return nil, err
	}
	var out courses.CourseList
	if err := c.get(ctx, PathCourses, q.values(), &out, cache.List(cache.TagCourse)); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindCourses is the public catalog search.
func (c *Client) FindCourses(ctx context.Context, q CourseQuery) (*courses.CourseList, error) {
	if err := validation.Struct(q); err != nil {
		return nil, err
	}
	var out courses.CourseList
	if err := c.get(ctx, PathCourses+"/find", q.values(), &out, cache.List(cache.TagCourse)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCourse(ctx context.Context, id string) (*courses.Course, error) {
	var out courses.Course
	if err := c.get(ctx, PathCourses+"/"+pathID(id), nil, &out, cache.Item(cache.TagCourse, id)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCourse(ctx context.Context, in courses.CourseRequest) (*courses.Course, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out courses.Course
	if err := c.mutate(ctx, http.MethodPost, PathCourses, in, &out, cache.List(cache.TagCourse)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCourse(ctx context.Context, id string, in courses.CourseRequest) (*courses.Course, error) {
	var out courses.Course
	if err := c.mutate(ctx, http.MethodPut, PathCourses+"/"+pathID(id), in, &out, cache.Item(cache.TagCourse, id)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCourse(ctx context.Context, id string) error {
	return c.mutate(ctx, http.MethodDelete, PathCourses+"/"+pathID(id), nil, nil, cache.Item(cache.TagCourse, id))
}

func (c *Client) ListCategories(ctx context.Context, q CategoryQuery) (*courses.CategoryList, error) {
	if err := validation.Struct(q); err != nil {
		return nil, err
	}
	var out courses.CategoryList
	if err := c.get(ctx, PathCategories, q.values(), &out, cache.List(cache.TagCategory)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetCategory(ctx context.Context, id string) (*courses.Category, error) {
	var out courses.Category
	if err := c.get(ctx, PathCategories+"/"+pathID(id), nil, &out, cache.Item(cache.TagCategory, id)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCategory(ctx context.Context, in courses.CategoryRequest) (*courses.Category, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out courses.Category
	if err := c.mutate(ctx, http.MethodPost, PathCategories, in, &out, cache.List(cache.TagCategory)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCategory(ctx context.Context, id string, in courses.CategoryRequest) (*courses.Category, error) {
	var out courses.Category
	if err := c.mutate(ctx, http.MethodPut, PathCategories+"/"+pathID(id), in, &out, cache.Item(cache.TagCategory, id)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.mutate(ctx, http.MethodDelete, PathCategories+"/"+pathID(id), nil, nil, cache.Item(cache.TagCategory, id))
}

func (c *Client) ListOfferings(ctx context.Context, q OfferingQuery) (*courses.OfferingList, error) {
	if err := validation.Struct(q); err != nil {
		return nil, err
	}
	var out courses.OfferingList
	if err := c.get(ctx, PathCourseOfferings, q.values(), &out, cache.List(cache.TagCourseOffering)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetOffering(ctx context.Context, id string) (*courses.OfferingDetail, error) {
	var out courses.OfferingDetail
	if err := c.get(ctx, PathCourseOfferings+"/"+pathID(id), nil, &out, cache.Item(cache.TagCourseOffering, id)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateOffering(ctx context.Context, courseID string, in courses.OfferingRequest) (*courses.Offering, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out courses.Offering
	path := PathCourses + "/" + pathID(courseID) + "/offerings"
	if err := c.mutate(ctx, http.MethodPost, path, in, &out, cache.List(cache.TagCourseOffering)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateOffering(ctx context.Context, id string, in courses.OfferingRequest) (*courses.Offering, error) {
	var out courses.Offering
	if err := c.mutate(ctx, http.MethodPut, PathCourseOfferings+"/"+pathID(id), in, &out, cache.Item(cache.TagCourseOffering, id)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteOffering(ctx context.Context, id string) error {
	return c.mutate(ctx, http.MethodDelete, PathCourseOfferings+"/"+pathID(id), nil, nil, cache.Item(cache.TagCourseOffering, id))
}

func (c *Client) AssignInstructor(ctx context.Context, offeringID, instructorID string) (*courses.Instructor, error) {
	in := courses.AssignInstructorRequest{InstructorID: instructorID}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out courses.Instructor
	path := PathCourseOfferings + "/" + pathID(offeringID) + "/instructors"
	if err := c.mutate(ctx, http.MethodPost, path, in, &out, cache.Item(cache.TagCourseOffering, offeringID)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RemoveInstructor(ctx context.Context, offeringID, instructorID string) error {
	path := PathCourseOfferings + "/" + pathID(offeringID) + "/instructors/" + pathID(instructorID)
	return c.mutate(ctx, http.MethodDelete, path, nil, nil, cache.Item(cache.TagCourseOffering, offeringID))
}

type sectionList struct {
	Sections []courses.Section `json:"sections"`
}

func (c *Client) ListSections(ctx context.Context, offeringID string) ([]courses.Section, error) {
	var out sectionList
	path := PathCourseOfferings + "/" + pathID(offeringID) + "/sections"
	if err := c.get(ctx, path, nil, &out, cache.List(cache.TagCourseSection), cache.Item(cache.TagCourseOffering, offeringID)); err != nil {
		return nil, err
	}
	return out.Sections, nil
}

func (c *Client) GetSection(ctx context.Context, id string) (*courses.Section, error) {
	var out courses.Section
	if err := c.get(ctx, PathCourseSections+"/"+pathID(id), nil, &out, cache.Item(cache.TagCourseSection, id)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateSection(ctx context.Context, offeringID string, in courses.SectionRequest) (*courses.Section, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out courses.Section
	path := PathCourseOfferings + "/" + pathID(offeringID) + "/sections"
	if err := c.mutate(ctx, http.MethodPost, path, in, &out, cache.List(cache.TagCourseSection), cache.Item(cache.TagCourseOffering, offeringID)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateSection(ctx context.Context, id string, in courses.SectionRequest) (*courses.Section, error) {
	var out courses.Section
	if err := c.mutate(ctx, http.MethodPut, PathCourseSections+"/"+pathID(id), in, &out, cache.Item(cache.TagCourseSection, id)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSection(ctx context.Context, id string) error {
	return c.mutate(ctx, http.MethodDelete, PathCourseSections+"/"+pathID(id), nil, nil, cache.Item(cache.TagCourseSection, id))
}

func (c *Client) ReorderSections(ctx context.Context, offeringID string, items []courses.ReorderItem) error {
	in := courses.ReorderRequest{Items: items}
	if err := validation.Struct(in); err != nil {
		return err
	}
	path := PathCourseOfferings + "/" + pathID(offeringID) + "/sections/reorder"
	return c.mutate(ctx, http.MethodPut, path, in, nil, cache.List(cache.TagCourseSection), cache.Item(cache.TagCourseOffering, offeringID))
}

type moduleList struct {
	Modules []courses.Module `json:"modules"`
}

func (c *Client) ListModules(ctx context.Context, sectionID string) ([]courses.Module, error) {
	var out moduleList
	path := PathCourseSections + "/" + pathID(sectionID) + "/modules"
	if err := c.get(ctx, path, nil, &out, cache.List(cache.TagSectionModule), cache.Item(cache.TagCourseSection, sectionID)); err != nil {
		return nil, err
	}
	return out.Modules, nil
}

func (c *Client) GetModule(ctx context.Context, id string) (*courses.Module, error) {
	var out courses.Module
	if err := c.get(ctx, PathSectionModules+"/"+pathID(id), nil, &out, cache.Item(cache.TagSectionModule, id)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateModule(ctx context.Context, sectionID string, in courses.ModuleRequest) (*courses.Module, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	var out courses.Module
	path := PathCourseSections + "/" + pathID(sectionID) + "/modules"
	if err := c.mutate(ctx, http.MethodPost, path, in, &out, cache.List(cache.TagSectionModule), cache.Item(cache.TagCourseSection, sectionID)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateModule(ctx context.Context, id string, in courses.ModuleRequest) (*courses.Module, error) {
	var out courses.Module
	if err := c.mutate(ctx, http.MethodPut, PathSectionModules+"/"+pathID(id), in, &out, cache.Item(cache.TagSectionModule, id)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteModule(ctx context.Context, id string) error {
	return c.mutate(ctx, http.MethodDelete, PathSectionModules+"/"+pathID(id), nil, nil, cache.Item(cache.TagSectionModule, id))
}

func (c *Client) ReorderModules(ctx context.Context, sectionID string, items []courses.ReorderItem) error {
	in := courses.ReorderRequest{Items: items}
	if err := validation.Struct(in); err != nil {
		return err
	}
	path := PathCourseSections + "/" + pathID(sectionID) + "/modules/reorder"
	return c.mutate(ctx, http.MethodPut, path, in, nil, cache.List(cache.TagSectionModule), cache.Item(cache.TagCourseSection, sectionID))
}
