package app

import (
	"learn_with_me_client/docs"
	"learn_with_me_client/internal/middleware"
	"learn_with_me_client/internal/model"
	"learn_with_me_client/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, s *services) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	a.registerPublicRoutes(router, c)

	// 2. 需要登录的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.SessionMiddleware(s.auth))
	{
		a.registerStudentRoutes(authGroup, c)

		// 教师相关接口
		teacher := authGroup.Group("")
		teacher.Use(middleware.RoleMiddleware(s.auth, model.Instructor))
		{
			teacher.POST("/courses", c.course.CreateCourse)
			teacher.PUT("/courses/:id", c.course.UpdateCourse)
		}
	}
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)

		auth := public.Group("/auth")
		{
			auth.POST("/login", c.auth.Login)
			auth.POST("/register", c.auth.Register)
			auth.POST("/logout", c.auth.Logout)
			auth.GET("/session", c.auth.Session)
		}

		// 课程浏览不要求登录
		public.GET("/courses", c.course.ListCourses)
		public.GET("/courses/:id", c.course.GetCourse)
		public.GET("/courses/:id/progress/overall", c.progress.GetOverallProgress)
		public.GET("/teachers/:teacherId/courses", c.course.GetTeacherCourses)

		state := public.Group("/state")
		{
			state.GET("", c.course.GetState)
			state.PUT("/category", c.course.SetCategory)
			state.DELETE("/error", c.course.ResetError)
		}

		media := public.Group("/media")
		{
			media.GET("/image", c.media.ResolveImage)
			media.GET("/video", c.media.ResolveVideo)
		}
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	// 学习进度
	rg.GET("/courses/:id/progress", c.progress.GetProgress)
	rg.GET("/courses/:id/enrollment", c.progress.GetEnrollment)
	rg.POST("/courses/:id/enroll", c.progress.Enroll)
	rg.POST("/courses/:id/complete", c.progress.CompleteCourse)
	rg.PUT("/courses/:id/videos/:videoId/progress", c.progress.UpdateVideoProgress)

	// 探测会访问任意地址，只对登录用户开放
	rg.GET("/media/probe", c.media.ProbeVideo)

	// 播放会话
	playback := rg.Group("/playback")
	{
		playback.POST("", c.playback.OpenSession)
		playback.GET("/:id", c.playback.GetSession)
		playback.PUT("/:id/position", c.playback.UpdatePosition)
		playback.POST("/:id/pause", c.playback.Pause)
		playback.POST("/:id/resume", c.playback.Resume)
		playback.POST("/:id/end", c.playback.End)
		playback.DELETE("/:id", c.playback.CloseSession)
	}
}
