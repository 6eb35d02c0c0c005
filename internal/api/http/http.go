package http

import (
	"context"
	"errors"
	"fmt"
	"time"

	"who-is-spy-client/internal/state"

	"github.com/kataras/iris/v12"
	"go.uber.org/zap"
)

const SHUTDOWN_TIMEOUT = 5 * time.Second

// NewApp 注册本地接口：读取界面数据，以及把用户操作转交给房间会话
func NewApp(appState *state.AppState) *iris.Application {
	app := iris.Default()

	if appState.Cfg != nil && appState.Cfg.StaticDir != "" {
		app.HandleDir(
			"/",
			iris.Dir(appState.Cfg.StaticDir),
			iris.DirOptions{
				IndexName: "index.html",
				SPA:       true,
				Compress:  true,
			},
		)
	}

	api := app.Party("/api/v1")
	api.Use(RequireToken(appState))

	api.Get("/view", GetView(appState))
	api.Post("/view/reveal/ack", AckRoleReveal(appState))
	api.Delete("/notices/{id}", DismissNotice(appState))

	api.Post("/rooms", CreateRoom(appState))
	api.Post("/rooms/join", JoinRoom(appState))
	api.Post("/rooms/leave", LeaveRoom(appState))
	api.Post("/rooms/{id}/enter", EnterRoom(appState))

	api.Post("/game/start", StartGame(appState))
	api.Post("/game/draft", SaveDraft(appState))
	api.Post("/game/clue", SubmitClue(appState))
	api.Post("/game/vote", SubmitVote(appState))
	api.Post("/game/guess", SubmitGuess(appState))

	return app
}

// RunServer 阻塞运行本地服务，ctx 结束时优雅关闭
func RunServer(ctx context.Context, appState *state.AppState) error {
	app := NewApp(appState)

	addr := fmt.Sprintf(
		"%s:%d",
		appState.Cfg.Host,
		appState.Cfg.Port,
	)

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
		defer cancel()

		if err := app.Shutdown(shutdownCtx); err != nil {
			zap.S().Warnf("关闭本地服务失败：%v", err)
		}
	}()

	zap.S().Infof("本地服务监听 %s", addr)

	err := app.Listen(addr, iris.WithoutInterruptHandler, iris.WithoutStartupLog)
	if err != nil && !errors.Is(err, iris.ErrServerClosed) {
		return err
	}

	return nil
}
