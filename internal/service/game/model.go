package game

import (
	"slices"

	"who-is-spy-client/internal/service/dto"
)

type Phase string

// 一轮游戏的阶段：
// 1. 提示阶段（HINTING）：玩家按服务端给出的顺序依次给出提示
// 2. 投票阶段（VOTING）：存活玩家投票淘汰嫌疑人
// 3. 猜词阶段（GUESSING）：仅在服务端判定需要时出现，白帽猜平民词
// 4. 结果（RESULT）：仅用于展示，reducer 不会主动进入该阶段
const (
	PHASE_HINTING  Phase = "HINTING"
	PHASE_VOTING   Phase = "VOTING"
	PHASE_GUESSING Phase = "GUESSING"
	PHASE_RESULT   Phase = "RESULT"
)

// 与服务端 GAME_CONFIG 保持一致
const (
	MIN_PLAYERS           = 4
	MAX_PLAYERS           = 8
	WHITE_HAT_MIN_PLAYERS = 6
	HINT_TIME_SECONDS     = 60
	VOTE_TIME_SECONDS     = 60
)

type ClueRecord struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
	Content     string `json:"content"`
}

type EliminatedPlayer struct {
	PlayerID    string   `json:"playerId"`
	DisplayName string   `json:"displayName"`
	Role        dto.Role `json:"role,omitempty"`
}

// GameState 是完全由客户端维护的本轮状态，只能通过 Reduce 推进
type GameState struct {
	Phase Phase `json:"phase"`
	Round int   `json:"round"`

	// 仅本客户端可见；白帽没有词
	Role dto.Role `json:"role,omitempty"`
	Word string   `json:"word,omitempty"`

	Clues               []ClueRecord `json:"clues"`
	CurrentTurnPlayerID string       `json:"currentTurnPlayerId,omitempty"`
	VoteCount           int          `json:"voteCount"`

	// 在一局游戏内跨轮累积，只有新的一局才会清空
	EliminatedPlayers []string          `json:"eliminatedPlayers"`
	LastEliminated    *EliminatedPlayer `json:"lastEliminated,omitempty"`

	GameOver      bool     `json:"gameOver"`
	Winner        dto.Role `json:"winner,omitempty"`
	WinnerMessage string   `json:"winnerMessage,omitempty"`
	WhiteHatGuess string   `json:"whiteHatGuess,omitempty"`
	CorrectWord   string   `json:"correctWord,omitempty"`
	GuessCorrect  *bool    `json:"guessCorrect,omitempty"`
}

func NewGameState() GameState {
	return GameState{
		Phase:             PHASE_HINTING,
		Round:             1,
		Clues:             make([]ClueRecord, 0),
		EliminatedPlayers: make([]string, 0),
	}
}

// Clone 深拷贝所有引用类型字段，保证 Reduce 不会修改调用方持有的状态
func (gs GameState) Clone() GameState {
	gs.Clues = slices.Clone(gs.Clues)
	gs.EliminatedPlayers = slices.Clone(gs.EliminatedPlayers)

	if gs.Clues == nil {
		gs.Clues = make([]ClueRecord, 0)
	}
	if gs.EliminatedPlayers == nil {
		gs.EliminatedPlayers = make([]string, 0)
	}

	if gs.LastEliminated != nil {
		last := *gs.LastEliminated
		gs.LastEliminated = &last
	}

	if gs.GuessCorrect != nil {
		correct := *gs.GuessCorrect
		gs.GuessCorrect = &correct
	}

	return gs
}

func (gs GameState) IsEliminated(playerID string) bool {
	return playerID != "" && slices.Contains(gs.EliminatedPlayers, playerID)
}

func (gs GameState) HasClueFrom(playerID string) bool {
	return slices.ContainsFunc(gs.Clues, func(c ClueRecord) bool {
		return c.PlayerID == playerID
	})
}
