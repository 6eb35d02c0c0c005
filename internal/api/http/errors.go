package http

import (
	"errors"

	"who-is-spy-client/internal/api/rest"
	"who-is-spy-client/internal/api/websocket"
	"who-is-spy-client/internal/auth"
	"who-is-spy-client/internal/service"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

const (
	REDIRECT_LOGIN = "login"
	REDIRECT_LOBBY = "lobby"
)

type ErrorResponse struct {
	Error    string `json:"error"`
	Redirect string `json:"redirect,omitempty"`
}

// 这些错误表示当前状态不允许该操作，而不是参数错误
var conflictErrors = []error{
	service.ErrNotInRoom,
	service.ErrActionPending,
	service.ErrAlreadyVoted,
	service.ErrAlreadySubmitted,
	service.ErrGameAlreadyOver,
	service.ErrNotAllowedToStart,
	service.ErrStaleRequest,
	service.ErrWrongPhase,
	service.ErrNotWhiteHat,
}

// statusOf 把错误映射为 HTTP 状态码和跳转提示
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, rest.ErrUnauthorized),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken):
		return iris.StatusUnauthorized, REDIRECT_LOGIN

	case errors.Is(err, service.ErrSnapshotFailed):
		return iris.StatusBadGateway, REDIRECT_LOBBY

	case errors.Is(err, websocket.ErrChannelUnavailable),
		errors.Is(err, websocket.ErrChannelBusy),
		errors.Is(err, service.ErrSessionClosed):
		return iris.StatusServiceUnavailable, ""
	}

	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return iris.StatusConflict, ""
		}
	}

	var apiErr *rest.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status >= 500 {
			return iris.StatusBadGateway, ""
		}
		return apiErr.Status, ""
	}

	return iris.StatusBadRequest, ""
}

func writeError(ctx iris.Context, err error) {
	status, redirect := statusOf(err)

	if status >= 500 {
		zap.S().Warnf("%s %s 失败：%v", ctx.Method(), ctx.Path(), err)
	} else {
		zap.S().Debugf("%s %s 被拒绝：%v", ctx.Method(), ctx.Path(), err)
	}

	ctx.StatusCode(status)
	ctx.JSON(ErrorResponse{
		Error:    err.Error(),
		Redirect: redirect,
	})
}

func writeBadRequest(ctx iris.Context) {
	ctx.StatusCode(iris.StatusBadRequest)
	ctx.JSON(ErrorResponse{
		Error: "请求参数无效",
	})
}
