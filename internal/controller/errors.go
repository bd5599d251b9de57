package controller

import (
	"errors"
	"learn_with_me_client/internal/api"
	"learn_with_me_client/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError 按错误类型映射 HTTP 状态码，fallback 为兜底文案
func respondError(ctx *gin.Context, err error, fallback string) {
	var verrs util.ValidationErrors
	if errors.As(err, &verrs) {
		util.ValidationError(ctx, verrs)
		return
	}

	var ae *api.Error
	if !errors.As(err, &ae) {
		util.LogInternalError(ctx, err)
		return
	}

	message := fallback
	if ae.FromServer && ae.Message != "" {
		message = ae.Message
	}

	switch ae.Kind {
	case api.KindValidation:
		util.BadRequest(ctx, ae.Message)
	case api.KindRequestRejected:
		util.BadRequest(ctx, util.MsgInvalidRequest)
	case api.KindUnauthorized:
		util.Error(ctx, http.StatusUnauthorized, message)
	case api.KindNotFound:
		util.Error(ctx, http.StatusNotFound, message)
	case api.KindConflict:
		util.Error(ctx, http.StatusConflict, message)
	case api.KindTransport:
		util.ServiceUnavailable(ctx, util.MsgNetworkIssue)
	case api.KindServer:
		util.Error(ctx, http.StatusBadGateway, message)
	default:
		util.Error(ctx, http.StatusInternalServerError, fallback)
	}
}
