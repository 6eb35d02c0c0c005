package game

import (
	"strings"

	"who-is-spy-client/internal/service/dto"
)

// 服务端推送的事件名
const (
	EVT_ROOM_UPDATED      = "room:updated"
	EVT_GAME_STARTED      = "game:started"
	EVT_ROUND_STARTED     = "round:started"
	EVT_YOUR_TURN         = "round:your_turn"
	EVT_CLUE_SUBMITTED    = "round:clue_submitted"
	EVT_VOTING_STARTED    = "round:voting_started"
	EVT_VOTE_UPDATE       = "round:vote_update"
	EVT_PLAYER_ELIMINATED = "round:player_eliminated"
	EVT_GUESSING_STARTED  = "round:guessing_started"
	EVT_ROUND_RESULT      = "round:result"
	EVT_GAME_OVER         = "game:over"
	EVT_ERROR             = "error"
)

// InboundEvents 是会话需要订阅的全部事件名
var InboundEvents = []string{
	EVT_ROOM_UPDATED,
	EVT_GAME_STARTED,
	EVT_ROUND_STARTED,
	EVT_YOUR_TURN,
	EVT_CLUE_SUBMITTED,
	EVT_VOTING_STARTED,
	EVT_VOTE_UPDATE,
	EVT_PLAYER_ELIMINATED,
	EVT_GUESSING_STARTED,
	EVT_ROUND_RESULT,
	EVT_GAME_OVER,
	EVT_ERROR,
}

// round:clue_submitted 中 type 字段的取值
const CLUE_TYPE_TURN_CHANGED = "TURN_CHANGED"

// Event 是一个封闭的事件集合：fold 未导出，只有本包内的类型能实现它。
// 新增事件类型时必须同时给出 fold，否则无法满足接口。
type Event interface {
	Name() string
	fold(gs GameState) GameState
}

type RoomUpdated struct {
	Room dto.Room `json:"room"`
}

type GameStarted struct {
	Room dto.Room `json:"room"`
}

type RoundStarted struct {
	Round   int      `json:"round"`
	Role    dto.Role `json:"role"`
	Word    string   `json:"word"`
	Message string   `json:"message"`
}

type YourTurn struct{}

// TurnChanged 对应带 type=TURN_CHANGED 的 round:clue_submitted
type TurnChanged struct {
	PlayerID        string
	DisplayName     string
	CurrentPlayerID string
}

// ClueSubmitted 对应带内容的 round:clue_submitted
type ClueSubmitted struct {
	PlayerID    string
	DisplayName string
	Content     string
}

type VotingStarted struct{}

type VoteUpdate struct {
	VoterID   string `json:"voterId"`
	VoteCount int    `json:"voteCount"`
}

type PlayerEliminated struct {
	PlayerID    string   `json:"playerId"`
	DisplayName string   `json:"displayName"`
	Role        dto.Role `json:"role"`
}

type GuessingStarted struct{}

type RoundResult struct {
	Message            string `json:"message"`
	EliminatedPlayerID string `json:"eliminatedPlayerId"`
	WhiteHatGuess      string `json:"whiteHatGuess"`
	CorrectWord        string `json:"correctWord"`
}

type GameOver struct {
	Winner        dto.Role `json:"winner"`
	Message       string   `json:"message"`
	WhiteHatGuess string   `json:"whiteHatGuess"`
	CorrectWord   string   `json:"correctWord"`
	Correct       *bool    `json:"correct"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}

func (RoomUpdated) Name() string      { return EVT_ROOM_UPDATED }
func (GameStarted) Name() string      { return EVT_GAME_STARTED }
func (RoundStarted) Name() string     { return EVT_ROUND_STARTED }
func (YourTurn) Name() string         { return EVT_YOUR_TURN }
func (TurnChanged) Name() string      { return EVT_CLUE_SUBMITTED }
func (ClueSubmitted) Name() string    { return EVT_CLUE_SUBMITTED }
func (VotingStarted) Name() string    { return EVT_VOTING_STARTED }
func (VoteUpdate) Name() string       { return EVT_VOTE_UPDATE }
func (PlayerEliminated) Name() string { return EVT_PLAYER_ELIMINATED }
func (GuessingStarted) Name() string  { return EVT_GUESSING_STARTED }
func (RoundResult) Name() string      { return EVT_ROUND_RESULT }
func (GameOver) Name() string         { return EVT_GAME_OVER }
func (ErrorEvent) Name() string       { return EVT_ERROR }

// 房间事件不改动本轮状态，由 MergeRoom 处理
func (RoomUpdated) fold(gs GameState) GameState { return gs }

// 新的一局：包括淘汰名单在内的全部状态重置
func (GameStarted) fold(GameState) GameState { return NewGameState() }

func (e RoundStarted) fold(gs GameState) GameState {
	next := NewGameState()

	round := e.Round
	if round < 1 {
		round = 1
	}

	next.Round = round
	next.Role = e.Role
	next.Word = e.Word

	// 上一局已结束时这是新的一局，淘汰名单不再延续
	if !gs.GameOver {
		next.EliminatedPlayers = append(next.EliminatedPlayers, gs.EliminatedPlayers...)
	}

	return next
}

// 仅提示性质，真正的轮次变化由随后的 TURN_CHANGED 决定
func (YourTurn) fold(gs GameState) GameState { return gs }

func (e TurnChanged) fold(gs GameState) GameState {
	gs.CurrentTurnPlayerID = e.CurrentPlayerID
	return gs
}

// 同一轮内每个玩家只保留第一条提示
func (e ClueSubmitted) fold(gs GameState) GameState {
	content := strings.TrimSpace(e.Content)
	if content == "" || e.PlayerID == "" {
		return gs
	}

	if gs.HasClueFrom(e.PlayerID) {
		return gs
	}

	gs.Clues = append(gs.Clues, ClueRecord{
		PlayerID:    e.PlayerID,
		DisplayName: e.DisplayName,
		Content:     content,
	})

	return gs
}

func (VotingStarted) fold(gs GameState) GameState {
	gs.Phase = PHASE_VOTING
	gs.CurrentTurnPlayerID = ""
	return gs
}

// 票数是服务端给出的总数，不是增量
func (e VoteUpdate) fold(gs GameState) GameState {
	if gs.Phase != PHASE_VOTING {
		return gs
	}

	if e.VoteCount < 0 {
		return gs
	}

	gs.VoteCount = e.VoteCount
	return gs
}

func (e PlayerEliminated) fold(gs GameState) GameState {
	if e.PlayerID == "" {
		return gs
	}

	if !gs.IsEliminated(e.PlayerID) {
		gs.EliminatedPlayers = append(gs.EliminatedPlayers, e.PlayerID)
	}

	gs.LastEliminated = &EliminatedPlayer{
		PlayerID:    e.PlayerID,
		DisplayName: e.DisplayName,
		Role:        e.Role,
	}

	return gs
}

func (GuessingStarted) fold(gs GameState) GameState {
	gs.Phase = PHASE_GUESSING
	return gs
}

func (RoundResult) fold(gs GameState) GameState { return gs }

func (e GameOver) fold(gs GameState) GameState {
	gs.GameOver = true
	gs.Winner = e.Winner
	gs.WinnerMessage = e.Message
	gs.WhiteHatGuess = e.WhiteHatGuess
	gs.CorrectWord = e.CorrectWord

	if e.Correct != nil {
		correct := *e.Correct
		gs.GuessCorrect = &correct
	}

	return gs
}

func (ErrorEvent) fold(gs GameState) GameState { return gs }
