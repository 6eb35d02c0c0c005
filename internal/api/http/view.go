package http

import (
	"time"

	"who-is-spy-client/internal/state"
	"who-is-spy-client/internal/view"

	"github.com/kataras/iris/v12"
)

// RequireToken 令牌过期后所有接口都返回 401，由前端跳转登录
func RequireToken(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		if err := appState.Token.Validate(time.Now()); err != nil {
			writeError(ctx, err)
			return
		}

		ctx.Next()
	}
}

func GetView(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		writeView(ctx, appState)
	}
}

func AckRoleReveal(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		if err := appState.Session.AckRoleReveal(ctx.Request().Context()); err != nil {
			writeError(ctx, err)
			return
		}

		writeView(ctx, appState)
	}
}

func DismissNotice(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		id := ctx.Params().Get("id")

		if err := appState.Session.DismissNotice(ctx.Request().Context(), id); err != nil {
			writeError(ctx, err)
			return
		}

		writeView(ctx, appState)
	}
}

func writeView(ctx iris.Context, appState *state.AppState) {
	st, err := appState.Session.State(ctx.Request().Context())
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(view.Render(view.Input{
		State: st,
		Now:   time.Now(),
	}))
}
