package view

import (
	"testing"
	"time"

	"who-is-spy-client/internal/service"
	"who-is-spy-client/internal/service/dto"
	"who-is-spy-client/internal/service/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoom(status dto.RoomStatus) *dto.Room {
	return &dto.Room{
		ID:         "r1",
		Code:       "ABC123",
		HostID:     "u1",
		Status:     status,
		MaxPlayers: game.MAX_PLAYERS,
		Players: []dto.RoomPlayer{
			{ID: "p1", UserID: "u1", DisplayName: "An", IsActive: true, IsHost: true, Role: dto.ROLE_CIVILIAN},
			{ID: "p2", UserID: "u2", DisplayName: "Bình", IsActive: true, Role: dto.ROLE_BLACK_HAT},
			{ID: "p3", UserID: "u3", DisplayName: "Chi", IsActive: true, Role: dto.ROLE_CIVILIAN},
			{ID: "p4", UserID: "u4", DisplayName: "Dũng", IsActive: true, Role: dto.ROLE_WHITE_HAT},
			{ID: "p5", UserID: "u5", DisplayName: "Em", IsActive: false},
		},
	}
}

func testState(status dto.RoomStatus) service.SessionState {
	return service.SessionState{
		User:       dto.User{ID: "u1", DisplayName: "An"},
		RoomID:     "r1",
		Room:       testRoom(status),
		Game:       game.NewGameState(),
		MyPlayerID: "p1",
	}
}

func TestRender_Screens(t *testing.T) {
	assert.Equal(t, SCREEN_LOBBY, Render(Input{}).Screen)

	waiting := testState(dto.STATUS_WAITING)
	assert.Equal(t, SCREEN_ROOM, Render(Input{State: waiting}).Screen)

	started := testState(dto.STATUS_IN_PROGRESS)
	assert.Equal(t, SCREEN_GAME, Render(Input{State: started}).Screen)

	// 快照仍是 WAITING，但已经收到身份
	revealed := testState(dto.STATUS_WAITING)
	revealed.Game.Role = dto.ROLE_CIVILIAN
	assert.Equal(t, SCREEN_GAME, Render(Input{State: revealed}).Screen)
}

func TestRender_Lobby(t *testing.T) {
	v := Render(Input{State: service.SessionState{User: dto.User{ID: "u1"}}})

	assert.Nil(t, v.Room)
	assert.Empty(t, v.Players)
	assert.NotNil(t, v.Notices)
	assert.Empty(t, v.PhaseLabel)
}

func TestRender_RoomLobby(t *testing.T) {
	v := Render(Input{State: testState(dto.STATUS_WAITING)})

	require.NotNil(t, v.Room)
	assert.True(t, v.Room.IsHost)
	assert.True(t, v.Room.CanStart)
	assert.Equal(t, "ABC123", v.Room.Code)
	// inactive 玩家不显示
	assert.Len(t, v.Room.Players, 4)
	// 游戏未结束时不显示身份
	for _, p := range v.Players {
		assert.Empty(t, p.Role)
	}
}

func TestRender_HintingTurn(t *testing.T) {
	st := testState(dto.STATUS_IN_PROGRESS)
	st.Game = game.ReduceAll(st.Game,
		game.RoundStarted{Round: 1, Role: dto.ROLE_CIVILIAN, Word: "táo"},
		game.TurnChanged{CurrentPlayerID: "p1"},
	)

	now := time.Now()
	st.HintDeadline = now.Add(42500 * time.Millisecond)

	v := Render(Input{State: st, Now: now})

	assert.True(t, v.IsMyTurn)
	assert.False(t, v.HasMyClue)
	assert.Equal(t, "An", v.CurrentTurnName)
	assert.Equal(t, "Dân", v.RoleLabel)
	assert.Equal(t, "táo", v.Word)
	assert.Equal(t, 43, v.HintSecondsLeft)
	assert.Zero(t, v.VoteSecondsLeft)
}

func TestRender_UnknownIDsFallBack(t *testing.T) {
	st := testState(dto.STATUS_IN_PROGRESS)
	st.Game = game.ReduceAll(st.Game,
		game.ClueSubmitted{PlayerID: "ghost", DisplayName: "", Content: "xanh"},
		game.ClueSubmitted{PlayerID: "p9", DisplayName: "Giang", Content: "đỏ"},
		game.TurnChanged{CurrentPlayerID: "ghost"},
	)

	v := Render(Input{State: st})

	assert.Equal(t, UNKNOWN_PLAYER, v.CurrentTurnName)
	require.Len(t, v.Clues, 2)
	assert.Equal(t, UNKNOWN_PLAYER, v.Clues[0].DisplayName)
	assert.Equal(t, "Giang", v.Clues[1].DisplayName)
	assert.False(t, v.IsMyTurn)

	for _, p := range v.Players {
		assert.False(t, p.IsCurrentTurn)
	}
}

func TestRender_NilRoomDuringLoading(t *testing.T) {
	st := service.SessionState{
		RoomID:  "r1",
		Loading: true,
		Game: game.ReduceAll(game.NewGameState(),
			game.TurnChanged{CurrentPlayerID: "p2"},
			game.PlayerEliminated{PlayerID: "p3"},
		),
	}

	v := Render(Input{State: st})

	assert.True(t, v.Loading)
	assert.Equal(t, UNKNOWN_PLAYER, v.CurrentTurnName)
	assert.Zero(t, v.RemainingCount)
	assert.Nil(t, v.Room)
}

func TestRender_Voting(t *testing.T) {
	st := testState(dto.STATUS_IN_PROGRESS)
	st.Game = game.ReduceAll(st.Game,
		game.RoundStarted{Round: 2, Role: dto.ROLE_CIVILIAN, Word: "táo"},
		game.PlayerEliminated{PlayerID: "p3", DisplayName: "Chi", Role: dto.ROLE_CIVILIAN},
		game.VotingStarted{},
		game.VoteUpdate{VoterID: "p2", VoteCount: 1},
	)
	st.Locks = map[service.ActionKind]service.LockStatus{service.ACTION_VOTE: service.LOCK_PENDING}

	v := Render(Input{State: st})

	assert.Equal(t, game.PHASE_VOTING, v.Phase)
	assert.Equal(t, "Bỏ phiếu", v.PhaseLabel)
	assert.Equal(t, 3, v.RemainingCount)
	assert.Equal(t, 1, v.VoteCount)
	assert.Equal(t, 3, v.VoteTotal)
	assert.Equal(t, service.LOCK_PENDING, v.Pending[service.ACTION_VOTE])

	targets := make([]string, 0)
	for _, p := range v.VoteTargets {
		targets = append(targets, p.ID)
	}
	assert.Equal(t, []string{"p2", "p4"}, targets)
}

func TestRender_GameOver(t *testing.T) {
	correct := false
	st := testState(dto.STATUS_FINISHED)
	st.Game = game.ReduceAll(st.Game,
		game.RoundStarted{Round: 1, Role: dto.ROLE_CIVILIAN, Word: "táo"},
		game.GuessingStarted{},
		game.GameOver{
			Winner:        dto.ROLE_CIVILIAN,
			Message:       "Dân thắng!",
			WhiteHatGuess: "lê",
			CorrectWord:   "táo",
			Correct:       &correct,
		},
	)

	v := Render(Input{State: st})

	assert.Equal(t, SCREEN_GAME, v.Screen)
	assert.Equal(t, game.PHASE_RESULT, v.Phase)
	assert.Equal(t, "Kết quả", v.PhaseLabel)

	require.NotNil(t, v.GameOver)
	assert.True(t, v.GameOver.IWon)
	assert.Equal(t, "Dân", v.GameOver.WinnerLabel)
	assert.Equal(t, "lê", v.GameOver.WhiteHatGuess)
	require.NotNil(t, v.GameOver.GuessCorrect)
	assert.False(t, *v.GameOver.GuessCorrect)

	roles := map[string]string{}
	for _, p := range v.Players {
		roles[p.ID] = p.RoleLabel
	}
	assert.Equal(t, "Mũ Đen", roles["p2"])
	assert.Equal(t, "Mũ Trắng", roles["p4"])
	assert.False(t, v.Room.CanStart)
}
