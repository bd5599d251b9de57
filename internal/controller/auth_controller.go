package controller

import (
	"learn_with_me_client/internal/api"
	"learn_with_me_client/internal/model"
	"learn_with_me_client/internal/service"
	"learn_with_me_client/internal/util"
	"strings"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login godoc
// @Summary 用户登录
// @Description 调用远端 login 并在本地保存会话
// @Tags 认证
// @Accept  json
// @Produce  json
// @Param   body body LoginRequest true "登录凭据"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "未授权"
// @Failure 503 {object} util.Response "网络异常"
// @Router /api/auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	tokens, err := c.AuthService.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(ctx, err, util.MsgLoginFailed)
		return
	}

	util.Success(ctx, gin.H{
		"user":          tokens.User,
		"authenticated": true,
	})
}

// swagger:model RegisterRequest
type RegisterRequest struct {
	Name     string `json:"name" form:"name"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Register godoc
// @Summary 注册新用户
// @Description JSON 或 multipart 表单，multipart 时可附带头像 profileImage
// @Tags 认证
// @Accept  json,mpfd
// @Produce  json
// @Param   body body RegisterRequest true "用户注册信息"
// @Success 201 {object} util.Response{data=model.User} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 409 {object} util.Response "邮箱已被注册"
// @Router /api/auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBind(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	var upload *api.Upload
	if strings.HasPrefix(ctx.ContentType(), "multipart/") {
		fileHeader, err := ctx.FormFile("profileImage")
		if err == nil {
			file, err := fileHeader.Open()
			if err != nil {
				util.BadRequest(ctx, "无法读取头像文件")
				return
			}
			defer file.Close()

			mimeType, err := util.SniffImage(file)
			if err != nil {
				util.BadRequest(ctx, err.Error())
				return
			}
			upload = &api.Upload{Filename: fileHeader.Filename, ContentType: mimeType, Reader: file}
		}
	}

	user, err := c.AuthService.Register(ctx.Request.Context(), api.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.Student,
	}, upload)
	if err != nil {
		respondError(ctx, err, util.MsgRegisterFailed)
		return
	}

	util.Created(ctx, user)
}

// Logout godoc
// @Summary 退出登录
// @Tags 认证
// @Produce  json
// @Success 200 {object} util.Response "成功"
// @Router /api/auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	if err := c.AuthService.Logout(); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"authenticated": false})
}

// Session godoc
// @Summary 当前登录状态
// @Tags 认证
// @Produce  json
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/auth/session [get]
func (c *AuthController) Session(ctx *gin.Context) {
	userID, err := c.AuthService.CurrentUserID()
	if err != nil {
		util.Success(ctx, gin.H{"authenticated": false})
		return
	}
	util.Success(ctx, gin.H{
		"authenticated": true,
		"userId":        userID,
		"user":          c.AuthService.CurrentUser(),
	})
}
