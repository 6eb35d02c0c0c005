package game

// Reduce 把一个服务端事件折叠进当前状态，返回新的状态。
// 它是纯函数：不修改入参、没有副作用、不会 panic。
// 事件按值传入；传入指针时先解引用，nil 指针视为空事件。
//
// 游戏结束后状态被冻结，只有开始新一局的事件才能继续推进：
// RoundStarted 覆盖上一局的结果，GameStarted 把状态整体重置为初始值，
// 因此 GameStarted 也会清空 Winner 与 WinnerMessage。
func Reduce(gs GameState, event Event) GameState {
	next := gs.Clone()

	event = valueOf(event)
	if event == nil {
		return next
	}

	if next.GameOver && !startsNewGame(event) {
		return next
	}

	return event.fold(next)
}

// ReduceAll 依次折叠一串事件，便于重放
func ReduceAll(gs GameState, events ...Event) GameState {
	next := gs.Clone()
	for _, e := range events {
		next = Reduce(next, e)
	}

	return next
}

func startsNewGame(event Event) bool {
	switch event.(type) {
	case RoundStarted, GameStarted:
		return true
	}

	return false
}

// valueOf 把指针形式的事件转成值，nil 指针返回 nil
func valueOf(event Event) Event {
	switch e := event.(type) {
	case *RoomUpdated:
		return deref(e)
	case *GameStarted:
		return deref(e)
	case *RoundStarted:
		return deref(e)
	case *YourTurn:
		return deref(e)
	case *TurnChanged:
		return deref(e)
	case *ClueSubmitted:
		return deref(e)
	case *VotingStarted:
		return deref(e)
	case *VoteUpdate:
		return deref(e)
	case *PlayerEliminated:
		return deref(e)
	case *GuessingStarted:
		return deref(e)
	case *RoundResult:
		return deref(e)
	case *GameOver:
		return deref(e)
	case *ErrorEvent:
		return deref(e)
	}

	return event
}

func deref[T Event](p *T) Event {
	if p == nil {
		return nil
	}

	return *p
}
