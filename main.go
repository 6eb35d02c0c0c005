package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"who-is-spy-client/internal/api/http"
	"who-is-spy-client/internal/api/rest"
	"who-is-spy-client/internal/api/websocket"
	"who-is-spy-client/internal/auth"
	"who-is-spy-client/internal/config"
	"who-is-spy-client/internal/logger"
	"who-is-spy-client/internal/service"
	"who-is-spy-client/internal/state"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const LEAVE_TIMEOUT = 5 * time.Second

func main() {
	// 加载配置
	cfg := config.InitConfig()

	// 初始化日志器
	logger.InitLogger(cfg.LogLevel, cfg.LogFormat)
	defer zap.L().Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		zap.S().Errorf("客户端异常退出：%v", err)
		os.Exit(1)
	}

	zap.S().Info("客户端已退出")
}

func run(ctx context.Context, cfg *config.AppConfig) error {
	// 解析登录令牌
	token, err := auth.ParseToken(cfg.Token)
	if err != nil {
		return err
	}
	if err := token.Validate(time.Now()); err != nil {
		return err
	}

	rooms := rest.NewClient(cfg.APIURL, token, cfg.RequestTimeout())

	me, err := rooms.Me(ctx)
	if err != nil {
		return fmt.Errorf("获取当前用户失败: %w", err)
	}
	if me.ID == "" {
		me.ID = token.UserID
	}

	zap.S().Infof("当前用户 %s(%s)", me.DisplayName, me.ID)

	var session *service.Session

	channel := websocket.NewChannel(websocket.Options{
		URL:       cfg.SocketURL,
		Header:    token.Header(),
		SendRate:  cfg.SendRate,
		SendBurst: cfg.SendBurst,
		OnDisconnect: func(err error) {
			session.NotifyDisconnected(err)
		},
	})

	// 组装房间会话
	session = service.NewSession(channel, rooms, service.SessionOptions{
		User:     me,
		HintTime: cfg.HintTime(),
		VoteTime: cfg.VoteTime(),
	})
	defer session.Close()

	if err := channel.Connect(ctx); err != nil {
		return err
	}

	appState := state.NewAppState(cfg, token, session)

	g, gctx := errgroup.WithContext(ctx)

	// 启动本地服务
	g.Go(func() error {
		return http.RunServer(gctx, appState)
	})

	if cfg.AutoJoinRoom != "" {
		g.Go(func() error {
			if err := session.Enter(gctx, cfg.AutoJoinRoom); err != nil {
				zap.S().Warnf("自动进入房间 %s 失败：%v", cfg.AutoJoinRoom, err)
			}
			return nil
		})
	}

	err = g.Wait()

	// 退出前离开房间并断开连接
	leaveCtx, cancel := context.WithTimeout(context.Background(), LEAVE_TIMEOUT)
	defer cancel()

	return multierr.Combine(
		err,
		session.Leave(leaveCtx),
		channel.Disconnect(),
	)
}
