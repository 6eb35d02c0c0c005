package service

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"who-is-spy-client/internal/service/dto"
	"who-is-spy-client/internal/service/game"

	"go.uber.org/zap"
)

type ActionKind string

const (
	ACTION_START ActionKind = "start"
	ACTION_CLUE  ActionKind = "clue"
	ACTION_VOTE  ActionKind = "vote"
	ACTION_GUESS ActionKind = "guess"
)

type LockStatus string

// 动作锁：
// idle 可以发送；pending 已发送，等待服务端确认；done 本轮已确认，不能重复
const (
	LOCK_IDLE    LockStatus = "idle"
	LOCK_PENDING LockStatus = "pending"
	LOCK_DONE    LockStatus = "done"
)

var (
	ErrNotInRoom         = errors.New("尚未加入房间")
	ErrEmptyContent      = errors.New("内容不能为空")
	ErrInvalidTarget     = errors.New("投票对象无效")
	ErrSelfVote          = errors.New("不能投票给自己")
	ErrTargetEliminated  = errors.New("该玩家已被淘汰")
	ErrAlreadyVoted      = errors.New("本轮已经投过票")
	ErrAlreadySubmitted  = errors.New("本轮已经提交过")
	ErrActionPending     = errors.New("操作正在处理中")
	ErrGameAlreadyOver   = errors.New("游戏已经结束")
	ErrNotAllowedToStart = errors.New("只有房主且人数足够时才能开始游戏")
	ErrSendFailed        = errors.New("动作发送失败")
	ErrWrongPhase        = errors.New("当前阶段不能进行该操作")
	ErrNotWhiteHat       = errors.New("只有白帽可以猜词")
)

// Sender 是事件通道的发送端
type Sender interface {
	Send(event string, data any) error
}

// Dispatcher 负责本地校验并发出动作，每次调用最多发送一条消息。
// 只在房间协程中使用，不加锁。
type Dispatcher struct {
	sender Sender

	// 指向房间协程持有的状态，只读
	gs *game.GameState

	roomID     string
	myPlayerID string

	locks map[ActionKind]LockStatus
}

func NewDispatcher(sender Sender, gs *game.GameState) *Dispatcher {
	d := &Dispatcher{
		sender: sender,
		gs:     gs,
	}
	d.resetLocks()

	return d
}

// Bind 绑定当前房间与本人的玩家记录 ID
func (d *Dispatcher) Bind(roomID, myPlayerID string) {
	d.roomID = roomID
	d.myPlayerID = myPlayerID
}

// Unbind 在离开房间时调用，清空上下文和所有锁
func (d *Dispatcher) Unbind() {
	d.roomID = ""
	d.myPlayerID = ""
	d.resetLocks()
}

func (d *Dispatcher) Status(kind ActionKind) LockStatus {
	if status, ok := d.locks[kind]; ok {
		return status
	}
	return LOCK_IDLE
}

func (d *Dispatcher) Locks() map[ActionKind]LockStatus {
	return maps.Clone(d.locks)
}

func (d *Dispatcher) JoinRoom(roomID string) error {
	if roomID == "" {
		return ErrNotInRoom
	}

	return d.sender.Send(game.ACT_JOIN_ROOM, roomID)
}

func (d *Dispatcher) LeaveRoom() error {
	return d.sender.Send(game.ACT_LEAVE_ROOM, nil)
}

func (d *Dispatcher) StartGame() error {
	if d.roomID == "" {
		return ErrNotInRoom
	}

	if err := d.acquire(ACTION_START, ErrActionPending); err != nil {
		return err
	}

	return d.send(ACTION_START, game.ACT_START_GAME, d.roomID)
}

func (d *Dispatcher) SubmitClue(content string) error {
	content = strings.TrimSpace(content)

	if err := d.checkPhase(game.PHASE_HINTING); err != nil {
		return err
	}

	if content == "" {
		return ErrEmptyContent
	}

	if err := d.acquire(ACTION_CLUE, ErrAlreadySubmitted); err != nil {
		return err
	}

	return d.send(ACTION_CLUE, game.ACT_SUBMIT_CLUE, dto.SubmitClueRequest{Content: content})
}

func (d *Dispatcher) SubmitVote(targetPlayerID string) error {
	if err := d.checkPhase(game.PHASE_VOTING); err != nil {
		return err
	}

	if targetPlayerID == "" {
		return ErrInvalidTarget
	}

	if targetPlayerID == d.myPlayerID {
		return ErrSelfVote
	}

	if d.gs.IsEliminated(targetPlayerID) {
		return ErrTargetEliminated
	}

	if err := d.acquire(ACTION_VOTE, ErrAlreadyVoted); err != nil {
		return err
	}

	return d.send(ACTION_VOTE, game.ACT_SUBMIT_VOTE, dto.SubmitVoteRequest{TargetPlayerID: targetPlayerID})
}

func (d *Dispatcher) SubmitGuess(guess string) error {
	guess = strings.TrimSpace(guess)

	if err := d.checkPhase(game.PHASE_GUESSING); err != nil {
		return err
	}

	if d.gs.Role != dto.ROLE_WHITE_HAT {
		return ErrNotWhiteHat
	}

	if guess == "" {
		return ErrEmptyContent
	}

	if err := d.acquire(ACTION_GUESS, ErrAlreadySubmitted); err != nil {
		return err
	}

	return d.send(ACTION_GUESS, game.ACT_SUBMIT_GUESS, dto.SubmitGuessRequest{Guess: guess})
}

// Observe 根据服务端事件释放或推进动作锁，需在 Reduce 之后调用
func (d *Dispatcher) Observe(event game.Event) {
	switch e := event.(type) {
	case game.GameStarted, game.RoundStarted:
		d.resetLocks()

	case game.ClueSubmitted:
		if d.myPlayerID != "" && e.PlayerID == d.myPlayerID {
			d.locks[ACTION_CLUE] = LOCK_DONE
		}

	case game.VotingStarted:
		d.locks[ACTION_VOTE] = LOCK_IDLE

	case game.VoteUpdate:
		if d.myPlayerID != "" && e.VoterID == d.myPlayerID {
			d.locks[ACTION_VOTE] = LOCK_DONE
		}

	case game.GuessingStarted:
		d.locks[ACTION_GUESS] = LOCK_IDLE

	case game.RoundResult, game.GameOver:
		if d.locks[ACTION_GUESS] == LOCK_PENDING {
			d.locks[ACTION_GUESS] = LOCK_DONE
		}

	case game.ErrorEvent:
		// 服务端拒绝时无法得知是哪个动作，全部放开让用户重试
		for kind, status := range d.locks {
			if status == LOCK_PENDING {
				d.locks[kind] = LOCK_IDLE
			}
		}
	}
}

func (d *Dispatcher) checkPlaying() error {
	if d.roomID == "" {
		return ErrNotInRoom
	}

	if d.gs.GameOver {
		return ErrGameAlreadyOver
	}

	return nil
}

func (d *Dispatcher) checkPhase(phase game.Phase) error {
	if err := d.checkPlaying(); err != nil {
		return err
	}

	if d.gs.Phase != phase {
		return ErrWrongPhase
	}

	return nil
}

func (d *Dispatcher) acquire(kind ActionKind, doneErr error) error {
	switch d.Status(kind) {
	case LOCK_PENDING:
		return ErrActionPending
	case LOCK_DONE:
		return doneErr
	}

	return nil
}

// send 发送失败时锁保持原样，不排队也不重试
func (d *Dispatcher) send(kind ActionKind, event string, data any) error {
	if err := d.sender.Send(event, data); err != nil {
		zap.S().Warnf("动作 %s 发送失败：%v", event, err)
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	d.locks[kind] = LOCK_PENDING

	zap.L().Debug("动作已发送",
		zap.String("room", d.roomID),
		zap.String("action", string(kind)),
	)

	return nil
}

func (d *Dispatcher) resetLocks() {
	d.locks = map[ActionKind]LockStatus{
		ACTION_START: LOCK_IDLE,
		ACTION_CLUE:  LOCK_IDLE,
		ACTION_VOTE:  LOCK_IDLE,
		ACTION_GUESS: LOCK_IDLE,
	}
}
