package http

import (
	"who-is-spy-client/internal/service/dto"
	"who-is-spy-client/internal/state"

	"github.com/kataras/iris/v12"
)

func StartGame(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		if err := appState.Session.StartGame(ctx.Request().Context()); err != nil {
			writeError(ctx, err)
			return
		}

		writeView(ctx, appState)
	}
}

func SaveDraft(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.SubmitClueRequest

		if err := ctx.ReadJSON(&req); err != nil {
			writeBadRequest(ctx)
			return
		}

		if err := appState.Session.SetDraft(ctx.Request().Context(), req.Content); err != nil {
			writeError(ctx, err)
			return
		}

		writeView(ctx, appState)
	}
}

func SubmitClue(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.SubmitClueRequest

		if err := ctx.ReadJSON(&req); err != nil {
			writeBadRequest(ctx)
			return
		}

		if err := appState.Session.SubmitClue(ctx.Request().Context(), req.Content); err != nil {
			writeError(ctx, err)
			return
		}

		writeView(ctx, appState)
	}
}

func SubmitVote(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.SubmitVoteRequest

		if err := ctx.ReadJSON(&req); err != nil {
			writeBadRequest(ctx)
			return
		}

		if err := appState.Session.SubmitVote(ctx.Request().Context(), req.TargetPlayerID); err != nil {
			writeError(ctx, err)
			return
		}

		writeView(ctx, appState)
	}
}

func SubmitGuess(appState *state.AppState) iris.Handler {
	return func(ctx iris.Context) {
		var req dto.SubmitGuessRequest

		if err := ctx.ReadJSON(&req); err != nil {
			writeBadRequest(ctx)
			return
		}

		if err := appState.Session.SubmitGuess(ctx.Request().Context(), req.Guess); err != nil {
			writeError(ctx, err)
			return
		}

		writeView(ctx, appState)
	}
}
