package api

import (
	"context"

	"learn_with_me_client/internal/model"
)

func (c *Client) ListCourses(ctx context.Context) ([]model.Course, error) {
	var data struct {
		Courses []model.Course `json:"courses"`
	}
	err := c.execute(ctx, operation{name: "GetAllCourses", query: listCoursesQuery}, &data)
	if err != nil {
		return nil, err
	}
	return data.Courses, nil
}

func (c *Client) GetCourse(ctx context.Context, courseID string) (*model.Course, error) {
	var data struct {
		Course *model.Course `json:"course"`
	}
	err := c.execute(ctx, operation{
		name:  "GetCourseDetails",
		query: courseDetailsQuery,
		vars:  map[string]interface{}{"id": courseID},
	}, &data)
	if err != nil {
		return nil, err
	}
	if data.Course == nil {
		return nil, &Error{Kind: KindNotFound, Op: "GetCourseDetails", Message: "course not found"}
	}
	return data.Course, nil
}

func (c *Client) ListTeacherCourses(ctx context.Context, teacherID string) ([]model.Course, error) {
	var data struct {
		Courses []model.Course `json:"coursesByTeacher"`
	}
	err := c.execute(ctx, operation{
		name:  "GetTeacherCourses",
		query: teacherCoursesQuery,
		vars:  map[string]interface{}{"teacherId": teacherID},
	}, &data)
	if err != nil {
		return nil, err
	}
	return data.Courses, nil
}

func (c *Client) CreateCourse(ctx context.Context, input model.CourseInput) (*model.Course, error) {
	var data struct {
		Course *model.Course `json:"createCourse"`
	}
	err := c.execute(ctx, operation{
		name:  "CreateCourse",
		query: createCourseMutation,
		vars:  map[string]interface{}{"input": input},
		auth:  true,
	}, &data)
	if err != nil {
		return nil, err
	}
	return data.Course, nil
}

func (c *Client) UpdateCourse(ctx context.Context, courseID string, input model.CourseInput) (*model.Course, error) {
	var data struct {
		Course *model.Course `json:"updateCourse"`
	}
	err := c.execute(ctx, operation{
		name:  "UpdateCourse",
		query: updateCourseMutation,
		vars:  map[string]interface{}{"id": courseID, "input": input},
		auth:  true,
	}, &data)
	if err != nil {
		return nil, err
	}
	return data.Course, nil
}
