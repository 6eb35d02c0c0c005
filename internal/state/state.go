package state

import (
	"context"

	"who-is-spy-client/internal/auth"
	"who-is-spy-client/internal/config"
	"who-is-spy-client/internal/service"
	"who-is-spy-client/internal/service/dto"
)

// Session 是 HTTP 层依赖的房间会话能力，由 service.Session 实现
type Session interface {
	State(ctx context.Context) (service.SessionState, error)

	CreateRoom(ctx context.Context) (dto.Room, error)
	JoinByCode(ctx context.Context, code string) (dto.Room, error)
	Enter(ctx context.Context, roomID string) error
	Leave(ctx context.Context) error

	StartGame(ctx context.Context) error
	SetDraft(ctx context.Context, content string) error
	SubmitClue(ctx context.Context, content string) error
	SubmitVote(ctx context.Context, targetPlayerID string) error
	SubmitGuess(ctx context.Context, guess string) error

	AckRoleReveal(ctx context.Context) error
	DismissNotice(ctx context.Context, id string) error
}

var _ Session = (*service.Session)(nil)

type AppState struct {
	Cfg     *config.AppConfig
	Token   auth.Token
	Session Session
}

func NewAppState(
	cfg *config.AppConfig,
	token auth.Token,
	session Session,
) *AppState {
	return &AppState{
		Cfg:     cfg,
		Token:   token,
		Session: session,
	}
}
