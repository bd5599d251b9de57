package util

import "errors"

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrInvalidToken     = errors.New("access token carries no user id")
	ErrCourseIDRequired = errors.New("course ID is required")
	ErrVideoIDRequired  = errors.New("video ID is required")
	ErrNegativeSeconds  = errors.New("watched seconds must not be negative")
	ErrSessionNotFound  = errors.New("playback session not found")
	ErrSessionClosed    = errors.New("playback session closed")
	ErrDurationUnknown  = errors.New("video duration unknown")
)

// 展示层直接显示的文案
const (
	MsgInvalidRequest      = "Invalid request. Please check your inputs."
	MsgNetworkIssue        = "Network connection issue. Please check your internet connection."
	MsgServerValidation    = "Server validation error"
	MsgUnableToLoadCourses = "Unable to load courses"
	MsgRetryingFormat      = "Network issue detected. Retrying... (%d/%d)"
	MsgInvalidCourseID     = "Invalid course ID"
	MsgInvalidTeacherID    = "Invalid teacher ID"
	MsgCourseDetailsFailed = "Couldn't load course details"
	MsgServerError         = "Server error"
	MsgTeacherCoursesFail  = "Failed to load teacher courses"
	MsgCourseDataRequired  = "Course data is required"
	MsgCreateCourseFailed  = "Failed to create course"
	MsgUpdateRequired      = "Course ID and update data are required"
	MsgUpdateCourseFailed  = "Failed to update course"
	MsgValidationError     = "Validation error"
	MsgProgressFailed      = "Failed to load course progress"
	MsgEnrollFailed        = "Failed to enroll in course"
	MsgCompleteFailed      = "Failed to mark course as completed"
	MsgLoginRequired       = "Please log in to continue"
	MsgLoginFailed         = "Login failed"
	MsgRegisterFailed      = "Registration failed"
)
