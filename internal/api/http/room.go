package http

import (
	"who-is-spy-client/internal/service/dto"
	"who-is-spy-client/internal/state"

	"github.com/kataras/iris/v12"
)

func CreateRoom(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		room, err := appState.Session.CreateRoom(ctx.Request().Context())
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.StatusCode(iris.StatusCreated)
		ctx.JSON(dto.RoomResponse{Room: room})
	}
}

func JoinRoom(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.JoinRoomRequest

		if err := ctx.ReadJSON(&req); err != nil {
			writeBadRequest(ctx)
			return
		}

		room, err := appState.Session.JoinByCode(ctx.Request().Context(), req.Code)
		if err != nil {
			writeError(ctx, err)
			return
		}

		ctx.JSON(dto.RoomResponse{Room: room})
	}
}

func EnterRoom(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		roomID := ctx.Params().Get("id")

		if err := appState.Session.Enter(ctx.Request().Context(), roomID); err != nil {
			writeError(ctx, err)
			return
		}

		writeView(ctx, appState)
	}
}

func LeaveRoom(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		if err := appState.Session.Leave(ctx.Request().Context()); err != nil {
			writeError(ctx, err)
			return
		}

		writeView(ctx, appState)
	}
}
