package util

// 对象存储目录
const (
	FolderCourseImages  = "course-images"
	FolderProfileImages = "profile-images"
	FolderCourseVideos  = "course-videos"
)

const MimeImage = "image/"
