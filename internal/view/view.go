package view

import (
	"math"
	"time"

	"who-is-spy-client/internal/service"
	"who-is-spy-client/internal/service/dto"
	"who-is-spy-client/internal/service/game"
)

type Screen string

const (
	SCREEN_LOBBY Screen = "LOBBY"
	SCREEN_ROOM  Screen = "ROOM"
	SCREEN_GAME  Screen = "GAME"
)

// 找不到玩家记录时显示的名字
const UNKNOWN_PLAYER = "Người chơi"

var PhaseLabels = map[game.Phase]string{
	game.PHASE_HINTING:  "Gợi ý",
	game.PHASE_VOTING:   "Bỏ phiếu",
	game.PHASE_GUESSING: "Đoán từ",
	game.PHASE_RESULT:   "Kết quả",
}

type Input struct {
	State service.SessionState
	Now   time.Time
}

type RoomView struct {
	ID         string         `json:"id"`
	Code       string         `json:"code"`
	Status     dto.RoomStatus `json:"status"`
	MaxPlayers int            `json:"maxPlayers"`
	IsHost     bool           `json:"isHost"`
	CanStart   bool           `json:"canStart"`
	MinPlayers int            `json:"minPlayers"`
	Players    []PlayerView   `json:"players"`
}

type PlayerView struct {
	ID            string   `json:"id"`
	DisplayName   string   `json:"displayName"`
	Avatar        string   `json:"avatar,omitempty"`
	IsMe          bool     `json:"isMe"`
	IsHost        bool     `json:"isHost"`
	IsEliminated  bool     `json:"isEliminated"`
	IsCurrentTurn bool     `json:"isCurrentTurn"`
	HasClue       bool     `json:"hasClue"`
	Role          dto.Role `json:"role,omitempty"`
	RoleLabel     string   `json:"roleLabel,omitempty"`
}

type ClueView struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	Content     string `json:"content"`
	IsMine      bool   `json:"isMine"`
}

type GameOverView struct {
	Winner        dto.Role `json:"winner,omitempty"`
	WinnerLabel   string   `json:"winnerLabel,omitempty"`
	Message       string   `json:"message,omitempty"`
	WhiteHatGuess string   `json:"whiteHatGuess,omitempty"`
	CorrectWord   string   `json:"correctWord,omitempty"`
	GuessCorrect  *bool    `json:"guessCorrect,omitempty"`
	IWon          bool     `json:"iWon"`
}

type View struct {
	Screen  Screen    `json:"screen"`
	Loading bool      `json:"loading"`
	User    dto.User  `json:"user"`
	Room    *RoomView `json:"room,omitempty"`

	Phase      game.Phase `json:"phase"`
	PhaseLabel string     `json:"phaseLabel"`
	Round      int        `json:"round"`
	Role       dto.Role   `json:"role,omitempty"`
	RoleLabel  string     `json:"roleLabel,omitempty"`
	Word       string     `json:"word,omitempty"`
	IsWhiteHat bool       `json:"isWhiteHat"`

	IsMyTurn        bool   `json:"isMyTurn"`
	CurrentTurnID   string `json:"currentTurnPlayerId,omitempty"`
	CurrentTurnName string `json:"currentTurnName,omitempty"`
	HasMyClue       bool   `json:"hasMyClue"`

	Clues          []ClueView   `json:"clues"`
	Players        []PlayerView `json:"players"`
	RemainingCount int          `json:"remainingCount"`

	VoteCount   int          `json:"voteCount"`
	VoteTotal   int          `json:"voteTotal"`
	VoteTargets []PlayerView `json:"voteTargets"`

	LastEliminated *game.EliminatedPlayer `json:"lastEliminated,omitempty"`

	Pending        map[service.ActionKind]service.LockStatus `json:"pending"`
	Notices        []service.Notice                          `json:"notices"`
	ShowRoleReveal bool                                      `json:"showRoleReveal"`
	Draft          string                                    `json:"draft,omitempty"`

	HintSecondsLeft int `json:"hintSecondsLeft"`
	VoteSecondsLeft int `json:"voteSecondsLeft"`

	GameOver *GameOverView `json:"gameOver,omitempty"`
}

// Render 把会话状态渲染成当前界面需要的数据。
// 状态中的 ID 对不上房间时用占位名字兜底，不会 panic。
func Render(in Input) View {
	st := in.State
	gs := st.Game

	v := View{
		Screen:  screenOf(st),
		Loading: st.Loading,
		User:    st.User,

		Phase:      gs.Phase,
		Round:      gs.Round,
		Role:       gs.Role,
		RoleLabel:  game.RoleLabel(gs.Role),
		Word:       gs.Word,
		IsWhiteHat: gs.Role == dto.ROLE_WHITE_HAT,

		CurrentTurnID: gs.CurrentTurnPlayerID,
		HasMyClue:     st.MyPlayerID != "" && gs.HasClueFrom(st.MyPlayerID),
		IsMyTurn:      st.MyPlayerID != "" && gs.CurrentTurnPlayerID == st.MyPlayerID,

		VoteCount:      gs.VoteCount,
		LastEliminated: gs.LastEliminated,

		Pending:        st.Locks,
		Notices:        st.Notices,
		ShowRoleReveal: st.ShowRoleReveal,
		Draft:          st.Draft,

		HintSecondsLeft: secondsLeft(st.HintDeadline, in.Now),
		VoteSecondsLeft: secondsLeft(st.VoteDeadline, in.Now),

		Clues:       make([]ClueView, 0, len(gs.Clues)),
		Players:     make([]PlayerView, 0),
		VoteTargets: make([]PlayerView, 0),
	}

	if v.Notices == nil {
		v.Notices = make([]service.Notice, 0)
	}

	if gs.GameOver {
		v.Phase = game.PHASE_RESULT
	}
	v.PhaseLabel = PhaseLabels[v.Phase]

	var room dto.Room
	if st.Room != nil {
		room = *st.Room
	}

	if gs.CurrentTurnPlayerID != "" {
		v.CurrentTurnName = nameOf(room, gs.CurrentTurnPlayerID, "")
	}

	for _, c := range gs.Clues {
		v.Clues = append(v.Clues, ClueView{
			PlayerID:    c.PlayerID,
			DisplayName: nameOf(room, c.PlayerID, c.DisplayName),
			Content:     c.Content,
			IsMine:      st.MyPlayerID != "" && c.PlayerID == st.MyPlayerID,
		})
	}

	for _, p := range room.ActivePlayers() {
		pv := PlayerView{
			ID:            p.ID,
			DisplayName:   displayName(p.DisplayName),
			Avatar:        p.Avatar,
			IsMe:          p.ID == st.MyPlayerID || (st.MyPlayerID == "" && p.UserID == st.User.ID),
			IsHost:        p.IsHost || (room.HostID != "" && p.UserID == room.HostID),
			IsEliminated:  gs.IsEliminated(p.ID),
			IsCurrentTurn: gs.CurrentTurnPlayerID != "" && p.ID == gs.CurrentTurnPlayerID,
			HasClue:       gs.HasClueFrom(p.ID),
		}

		// 身份只在游戏结束后公开
		if gs.GameOver && p.Role.Valid() {
			pv.Role = p.Role
			pv.RoleLabel = game.RoleLabel(p.Role)
		}

		v.Players = append(v.Players, pv)

		if !pv.IsEliminated {
			v.RemainingCount++

			if !pv.IsMe {
				v.VoteTargets = append(v.VoteTargets, pv)
			}
		}
	}

	v.VoteTotal = v.RemainingCount

	if st.Room != nil {
		v.Room = &RoomView{
			ID:         room.ID,
			Code:       room.Code,
			Status:     room.Status,
			MaxPlayers: room.MaxPlayers,
			IsHost:     room.IsHost(st.User.ID),
			CanStart:   game.CanStart(room, st.User.ID),
			MinPlayers: game.MIN_PLAYERS,
			Players:    v.Players,
		}
	}

	if gs.GameOver {
		v.GameOver = &GameOverView{
			Winner:        gs.Winner,
			WinnerLabel:   game.RoleLabel(gs.Winner),
			Message:       gs.WinnerMessage,
			WhiteHatGuess: gs.WhiteHatGuess,
			CorrectWord:   gs.CorrectWord,
			GuessCorrect:  gs.GuessCorrect,
			IWon:          gs.Role != "" && gs.Role == gs.Winner,
		}
	}

	return v
}

func screenOf(st service.SessionState) Screen {
	if st.RoomID == "" {
		return SCREEN_LOBBY
	}

	if st.Game.GameOver || st.Game.Role != "" {
		return SCREEN_GAME
	}

	if st.Room != nil && st.Room.Status != dto.STATUS_WAITING {
		return SCREEN_GAME
	}

	return SCREEN_ROOM
}

// nameOf 优先用房间里的名字，其次用事件自带的名字
func nameOf(room dto.Room, playerID, fallback string) string {
	if p, ok := room.FindPlayer(playerID); ok && p.DisplayName != "" {
		return p.DisplayName
	}

	return displayName(fallback)
}

func displayName(name string) string {
	if name == "" {
		return UNKNOWN_PLAYER
	}
	return name
}

func secondsLeft(deadline, now time.Time) int {
	if deadline.IsZero() {
		return 0
	}

	left := deadline.Sub(now).Seconds()
	if left <= 0 {
		return 0
	}

	return int(math.Ceil(left))
}
