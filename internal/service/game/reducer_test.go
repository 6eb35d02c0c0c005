package game

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"who-is-spy-client/internal/service/dto"
)

func roundStarted(round int, role dto.Role, word string) RoundStarted {
	return RoundStarted{Round: round, Role: role, Word: word, Message: "Vòng mới"}
}

func clue(playerID, name, content string) ClueSubmitted {
	return ClueSubmitted{PlayerID: playerID, DisplayName: name, Content: content}
}

func TestReduce_RoundStartedSetsRoleAndWord(t *testing.T) {
	gs := Reduce(NewGameState(), roundStarted(1, dto.ROLE_CIVILIAN, "Ocean"))

	assert.Equal(t, PHASE_HINTING, gs.Phase)
	assert.Equal(t, 1, gs.Round)
	assert.Equal(t, dto.ROLE_CIVILIAN, gs.Role)
	assert.Equal(t, "Ocean", gs.Word)
	assert.Empty(t, gs.Clues)
	assert.Empty(t, gs.EliminatedPlayers)
}

func TestReduce_WhiteHatHasNoWord(t *testing.T) {
	gs := Reduce(NewGameState(), roundStarted(1, dto.ROLE_WHITE_HAT, ""))

	assert.Equal(t, dto.ROLE_WHITE_HAT, gs.Role)
	assert.Empty(t, gs.Word)
}

func TestReduce_DuplicateClueKeepsFirst(t *testing.T) {
	gs := ReduceAll(
		NewGameState(),
		roundStarted(1, dto.ROLE_CIVILIAN, "Ocean"),
		clue("p1", "A", "Blue"),
		clue("p1", "A", "Vast"),
	)

	require.Len(t, gs.Clues, 1)
	assert.Equal(t, ClueRecord{PlayerID: "p1", DisplayName: "A", Content: "Blue"}, gs.Clues[0])
}

func TestReduce_CluesAppendInOrder(t *testing.T) {
	gs := ReduceAll(
		NewGameState(),
		clue("p1", "A", "Blue"),
		clue("p2", "B", "  Wet  "),
		clue("p3", "C", "   "),
	)

	require.Len(t, gs.Clues, 2)
	assert.Equal(t, "p1", gs.Clues[0].PlayerID)
	assert.Equal(t, "Wet", gs.Clues[1].Content)
}

func TestReduce_TurnChangedNeverAppendsClue(t *testing.T) {
	gs := ReduceAll(
		NewGameState(),
		TurnChanged{PlayerID: "p1", DisplayName: "A", CurrentPlayerID: "p2"},
	)

	assert.Empty(t, gs.Clues)
	assert.Equal(t, "p2", gs.CurrentTurnPlayerID)

	gs = Reduce(gs, TurnChanged{})
	assert.Empty(t, gs.CurrentTurnPlayerID)
}

func TestReduce_EliminationIsIdempotent(t *testing.T) {
	elim := PlayerEliminated{PlayerID: "p2", DisplayName: "B", Role: dto.ROLE_BLACK_HAT}

	once := Reduce(NewGameState(), elim)
	twice := Reduce(once, elim)

	assert.Equal(t, []string{"p2"}, once.EliminatedPlayers)
	assert.Empty(t, cmp.Diff(once, twice))
	require.NotNil(t, twice.LastEliminated)
	assert.Equal(t, dto.ROLE_BLACK_HAT, twice.LastEliminated.Role)
}

func TestReduce_RoundStartedCarriesEliminations(t *testing.T) {
	gs := ReduceAll(
		NewGameState(),
		roundStarted(1, dto.ROLE_CIVILIAN, "Ocean"),
		clue("p1", "A", "Blue"),
		TurnChanged{CurrentPlayerID: "p3"},
		VotingStarted{},
		VoteUpdate{VoterID: "p1", VoteCount: 4},
		PlayerEliminated{PlayerID: "p2", DisplayName: "B", Role: dto.ROLE_BLACK_HAT},
		roundStarted(2, dto.ROLE_CIVILIAN, "Ocean"),
	)

	want := NewGameState()
	want.Round = 2
	want.Role = dto.ROLE_CIVILIAN
	want.Word = "Ocean"
	want.EliminatedPlayers = []string{"p2"}

	assert.Empty(t, cmp.Diff(want, gs))
}

func TestReduce_VoteUpdate(t *testing.T) {
	t.Run("same total twice", func(t *testing.T) {
		gs := ReduceAll(NewGameState(), VotingStarted{}, VoteUpdate{VoteCount: 3}, VoteUpdate{VoteCount: 3})
		assert.Equal(t, 3, gs.VoteCount)
	})

	t.Run("ignored outside voting", func(t *testing.T) {
		gs := Reduce(NewGameState(), VoteUpdate{VoteCount: 3})
		assert.Equal(t, 0, gs.VoteCount)
	})

	t.Run("voting clears current turn", func(t *testing.T) {
		gs := ReduceAll(NewGameState(), TurnChanged{CurrentPlayerID: "p1"}, VotingStarted{})
		assert.Equal(t, PHASE_VOTING, gs.Phase)
		assert.Empty(t, gs.CurrentTurnPlayerID)
	})
}

func TestReduce_GameOverFreezesState(t *testing.T) {
	gs := ReduceAll(
		NewGameState(),
		VotingStarted{},
		GameOver{Winner: dto.ROLE_CIVILIAN, Message: "Dân thắng"},
		VoteUpdate{VoteCount: 5},
		GameOver{Winner: dto.ROLE_BLACK_HAT, Message: "Mũ Đen thắng"},
		PlayerEliminated{PlayerID: "p9"},
		GuessingStarted{},
	)

	assert.True(t, gs.GameOver)
	assert.Equal(t, dto.ROLE_CIVILIAN, gs.Winner)
	assert.Equal(t, "Dân thắng", gs.WinnerMessage)
	assert.Equal(t, 0, gs.VoteCount)
	assert.Empty(t, gs.EliminatedPlayers)
	assert.Equal(t, PHASE_VOTING, gs.Phase)
}

func TestReduce_GameOverRevealFields(t *testing.T) {
	correct := true
	gs := ReduceAll(
		NewGameState(),
		GuessingStarted{},
		GameOver{
			Winner:        dto.ROLE_WHITE_HAT,
			Message:       "Mũ Trắng thắng",
			WhiteHatGuess: "ocean",
			CorrectWord:   "Ocean",
			Correct:       &correct,
		},
	)

	assert.Equal(t, PHASE_GUESSING, gs.Phase)
	assert.Equal(t, "ocean", gs.WhiteHatGuess)
	assert.Equal(t, "Ocean", gs.CorrectWord)
	require.NotNil(t, gs.GuessCorrect)
	assert.True(t, *gs.GuessCorrect)
}

func TestReduce_NewGameClearsEliminations(t *testing.T) {
	finished := ReduceAll(
		NewGameState(),
		PlayerEliminated{PlayerID: "p2"},
		GameOver{Winner: dto.ROLE_CIVILIAN},
	)

	t.Run("round started after game over", func(t *testing.T) {
		gs := Reduce(finished, roundStarted(1, dto.ROLE_BLACK_HAT, "Sea"))
		assert.False(t, gs.GameOver)
		assert.Empty(t, gs.EliminatedPlayers)
		assert.Empty(t, gs.Winner)
		assert.Equal(t, "Sea", gs.Word)
	})

	t.Run("game started", func(t *testing.T) {
		gs := Reduce(finished, GameStarted{})
		assert.Empty(t, gs.Winner)
		assert.Empty(t, gs.WinnerMessage)
		assert.Empty(t, cmp.Diff(NewGameState(), gs))
	})
}

func TestReduce_InformationalEventsAreIdentity(t *testing.T) {
	base := ReduceAll(
		NewGameState(),
		roundStarted(2, dto.ROLE_CIVILIAN, "Ocean"),
		clue("p1", "A", "Blue"),
	)

	for _, e := range []Event{
		nil,
		YourTurn{},
		RoomUpdated{},
		RoundResult{Message: "Không ai bị loại"},
		ErrorEvent{Message: "Không phải lượt của bạn"},
	} {
		assert.Empty(t, cmp.Diff(base, Reduce(base, e)))
	}
}

func TestReduce_PointerEvents(t *testing.T) {
	base := ReduceAll(NewGameState(), roundStarted(1, dto.ROLE_CIVILIAN, "Ocean"))

	// nil 指针不会 panic，状态保持不变
	for _, e := range []Event{
		(*RoundStarted)(nil),
		(*ClueSubmitted)(nil),
		(*GameOver)(nil),
		(*GameStarted)(nil),
	} {
		assert.NotPanics(t, func() {
			assert.Empty(t, cmp.Diff(base, Reduce(base, e)))
		})
	}

	c := clue("p1", "A", "Blue")
	gs := Reduce(base, &c)
	assert.Equal(t, []ClueRecord{{PlayerID: "p1", DisplayName: "A", Content: "Blue"}}, gs.Clues)

	// 游戏结束后指针形式的新一轮同样可以解冻
	over := Reduce(gs, GameOver{Winner: dto.ROLE_CIVILIAN})
	next := roundStarted(2, dto.ROLE_BLACK_HAT, "Sea")
	assert.False(t, Reduce(over, &next).GameOver)
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	base := ReduceAll(NewGameState(), clue("p1", "A", "Blue"), PlayerEliminated{PlayerID: "p2"})
	snapshot := base.Clone()

	_ = ReduceAll(base, clue("p3", "C", "Salt"), PlayerEliminated{PlayerID: "p4"}, roundStarted(3, dto.ROLE_CIVILIAN, "x"))

	assert.Empty(t, cmp.Diff(snapshot, base))
}

func TestReduce_IsDeterministic(t *testing.T) {
	events := []Event{
		roundStarted(1, dto.ROLE_CIVILIAN, "Ocean"),
		TurnChanged{CurrentPlayerID: "p1"},
		clue("p1", "A", "Blue"),
		TurnChanged{CurrentPlayerID: "p2"},
		clue("p2", "B", "Deep"),
		VotingStarted{},
		VoteUpdate{VoterID: "p1", VoteCount: 1},
		VoteUpdate{VoterID: "p2", VoteCount: 2},
		PlayerEliminated{PlayerID: "p3", DisplayName: "C", Role: dto.ROLE_WHITE_HAT},
		GuessingStarted{},
		RoundResult{Message: "done"},
		roundStarted(2, dto.ROLE_CIVILIAN, "Ocean"),
		PlayerEliminated{PlayerID: "p2"},
		GameOver{Winner: dto.ROLE_CIVILIAN, Message: "Dân thắng"},
	}

	first := ReduceAll(NewGameState(), events...)
	second := ReduceAll(NewGameState(), events...)

	assert.Empty(t, cmp.Diff(first, second))
	assert.Equal(t, []string{"p3", "p2"}, first.EliminatedPlayers)
}
