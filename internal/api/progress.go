package api

import (
	"context"

	"learn_with_me_client/internal/model"
)

// VideoProgressInput updateVideoProgress 的入参
type VideoProgressInput struct {
	CourseID       string  `json:"courseId"`
	VideoID        string  `json:"videoId"`
	WatchedSeconds float64 `json:"watchedSeconds"`
	Completed      bool    `json:"completed"`
}

func (c *Client) IsEnrolled(ctx context.Context, courseID string) (bool, error) {
	var data struct {
		IsEnrolled bool `json:"isEnrolledInCourse"`
	}
	err := c.execute(ctx, operation{
		name:  "IsEnrolled",
		query: isEnrolledQuery,
		vars:  map[string]interface{}{"courseId": courseID},
		auth:  true,
	}, &data)
	if err != nil {
		return false, err
	}
	return data.IsEnrolled, nil
}

func (c *Client) CreateEnrollment(ctx context.Context, courseID, userID string) (*model.CourseProgress, error) {
	var data struct {
		Progress *model.CourseProgress `json:"createCourseProgress"`
	}
	err := c.execute(ctx, operation{
		name:  "EnrollInCourse",
		query: enrollMutation,
		vars: map[string]interface{}{
			"input": map[string]interface{}{"courseId": courseID, "userId": userID},
		},
		auth: true,
	}, &data)
	if err != nil {
		return nil, err
	}
	return data.Progress, nil
}

// GetCourseProgress 没有记录（未报名）时返回 KindNotFound
func (c *Client) GetCourseProgress(ctx context.Context, courseID string) (*model.CourseProgress, error) {
	var data struct {
		Progress *model.CourseProgress `json:"getUserCourseProgress"`
	}
	err := c.execute(ctx, operation{
		name:  "GetUserCourseProgress",
		query: courseProgressQuery,
		vars:  map[string]interface{}{"courseId": courseID},
		auth:  true,
	}, &data)
	if err != nil {
		return nil, err
	}
	if data.Progress == nil {
		return nil, &Error{Kind: KindNotFound, Op: "GetUserCourseProgress", Message: "user not enrolled"}
	}
	return data.Progress, nil
}

func (c *Client) UpdateVideoProgress(ctx context.Context, input VideoProgressInput) (*model.VideoProgress, error) {
	var data struct {
		Progress *model.VideoProgress `json:"updateVideoProgress"`
	}
	err := c.execute(ctx, operation{
		name:  "UpdateVideoProgress",
		query: updateVideoProgressMutation,
		vars:  map[string]interface{}{"input": input},
		auth:  true,
	}, &data)
	if err != nil {
		return nil, err
	}
	return data.Progress, nil
}

func (c *Client) MarkCourseCompleted(ctx context.Context, courseID string) (*model.CourseProgress, error) {
	var data struct {
		Progress *model.CourseProgress `json:"markCourseCompleted"`
	}
	err := c.execute(ctx, operation{
		name:  "MarkCourseCompleted",
		query: markCourseCompletedMutation,
		vars:  map[string]interface{}{"courseId": courseID},
		auth:  true,
	}, &data)
	if err != nil {
		return nil, err
	}
	return data.Progress, nil
}
