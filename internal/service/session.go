package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"who-is-spy-client/internal/service/dto"
	"who-is-spy-client/internal/service/game"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	// 最多保留的提示条数，超出后丢弃最旧的
	MAX_NOTICES = 20
	// 房间协程收件箱大小
	INBOX_SIZE = 64
	// 等待房间协程处理请求的上限
	REQUEST_TIMEOUT = 5 * time.Second
)

var (
	ErrSessionClosed  = errors.New("会话已关闭")
	ErrSnapshotFailed = errors.New("无法加载房间，请返回大厅")
	ErrStaleRequest   = errors.New("房间已切换，请求已作废")
	ErrInvalidCode    = errors.New("房间码无效")
)

// EventChannel 是房间会话依赖的事件通道
type EventChannel interface {
	Sender
	Subscribe(event string, handler func(data json.RawMessage)) func()
}

// RoomAPI 是房间相关的 REST 接口
type RoomAPI interface {
	CreateRoom(ctx context.Context) (dto.Room, error)
	JoinRoomByCode(ctx context.Context, code string) (dto.Room, error)
	GetRoom(ctx context.Context, roomID string) (dto.Room, error)
	LeaveRoom(ctx context.Context, roomID string) error
}

type SessionOptions struct {
	User dto.User

	HintTime time.Duration
	VoteTime time.Duration
}

type Notice struct {
	ID        string          `json:"id"`
	Kind      game.SignalKind `json:"kind"`
	Message   string          `json:"message"`
	CreatedAt time.Time       `json:"createdAt"`
}

// SessionState 是某一时刻会话状态的只读副本，供展示层使用
type SessionState struct {
	User       dto.User
	RoomID     string
	Loading    bool
	Room       *dto.Room
	Game       game.GameState
	MyPlayerID string

	Locks          map[ActionKind]LockStatus
	Notices        []Notice
	ShowRoleReveal bool
	Draft          string

	HintDeadline time.Time
	VoteDeadline time.Time
}

type timerKind string

const (
	TIMER_HINT timerKind = "hint"
	TIMER_VOTE timerKind = "vote"
)

// SessionRequest 是投递到房间协程的消息，每次只有一个字段非空
type SessionRequest struct {
	Event  *inboundEvent
	Timer  *timerExpiry
	Action *actionRequest
	Done   *struct{}
}

type inboundEvent struct {
	gen     uint64
	wrapper game.EventWrapper
}

type timerExpiry struct {
	gen   uint64
	kind  timerKind
	token uint64
}

type actionRequest struct {
	run   func() error
	resCh chan error
}

type countdown struct {
	timer    *time.Timer
	token    uint64
	key      string
	deadline time.Time
}

// Session 对应客户端当前加入的房间，同一时间最多一个。
// 所有状态只在 loop 协程中读写，外部通过收件箱投递请求。
type Session struct {
	channel EventChannel
	rooms   RoomAPI
	opts    SessionOptions

	inbox chan SessionRequest
	done  chan struct{}

	// 以下字段只在 loop 中访问
	gen          uint64
	roomID       string
	ready        bool
	room         *dto.Room
	gs           game.GameState
	myPlayerID   string
	dispatcher   *Dispatcher
	buffered     []game.Event
	unsubscribes []func()

	notices        []Notice
	showRoleReveal bool
	draft          string

	timerToken uint64
	hint       countdown
	vote       countdown
	// 每次 VOTING_STARTED 加一，同一轮重新投票时重新计时
	votingStarts uint64
}

func NewSession(channel EventChannel, rooms RoomAPI, opts SessionOptions) *Session {
	if opts.HintTime <= 0 {
		opts.HintTime = game.HINT_TIME_SECONDS * time.Second
	}
	if opts.VoteTime <= 0 {
		opts.VoteTime = game.VOTE_TIME_SECONDS * time.Second
	}

	s := &Session{
		channel: channel,
		rooms:   rooms,
		opts:    opts,
		inbox:   make(chan SessionRequest, INBOX_SIZE),
		done:    make(chan struct{}),
		gs:      game.NewGameState(),
	}
	s.dispatcher = NewDispatcher(channel, &s.gs)

	go s.loop()

	return s
}

func (s *Session) User() dto.User {
	return s.opts.User
}

// Close 离开当前房间的本地上下文并结束房间协程，不会调用 REST
func (s *Session) Close() {
	s.post(SessionRequest{Done: &struct{}{}})
	<-s.done
}

func (s *Session) loop() {
	defer func() {
		close(s.done)
		zap.S().Infof("会话协程退出")
	}()

	for req := range s.inbox {
		if req.Done != nil {
			if s.roomID != "" {
				// 连接即将关闭，服务端会自行清理
				if err := s.dispatcher.LeaveRoom(); err != nil {
					zap.S().Debugf("关闭会话时 room:leave 发送失败：%v", err)
				}
			}
			s.teardown()
			return
		}

		if req.Event != nil {
			s.handleInbound(req.Event)
		}

		if req.Timer != nil {
			s.handleTimer(req.Timer)
		}

		if req.Action != nil {
			req.Action.resCh <- req.Action.run()
		}
	}
}

func (s *Session) post(req SessionRequest) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.inbox <- req:
		return true
	case <-s.done:
		return false
	}
}

// call 在房间协程中执行 fn 并等待结果
func (s *Session) call(ctx context.Context, fn func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	reqTimer := time.NewTimer(REQUEST_TIMEOUT)
	defer reqTimer.Stop()

	resCh := make(chan error, 1)

	select {
	case s.inbox <- SessionRequest{Action: &actionRequest{run: fn, resCh: resCh}}:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	case <-reqTimer.C:
		zap.S().Warnf("会话协程无法及时处理请求")
		return ErrActionPending
	}

	select {
	case err := <-resCh:
		return err
	case <-s.done:
		return ErrSessionClosed
	}
}

// Enter 加入指定房间：先订阅并发出 room:join，再拉取快照。
// 快照到达前收到的推送会被缓存，快照应用后按顺序补上。
func (s *Session) Enter(ctx context.Context, roomID string) error {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return ErrNotInRoom
	}

	var (
		gen      uint64
		already  bool
		previous string
		sendErr  error
	)

	err := s.call(ctx, func() error {
		if s.roomID == roomID {
			already = true
			return nil
		}

		if s.roomID != "" {
			zap.S().Infof("切换房间 %s -> %s", s.roomID, roomID)
			previous = s.roomID
			sendErr = s.dispatcher.LeaveRoom()
			s.teardown()
		}

		gen = s.begin(roomID)

		if err := s.dispatcher.JoinRoom(roomID); err != nil {
			s.teardown()
			return err
		}

		return nil
	})
	if previous != "" {
		// 旧房间的玩家记录要单独释放，失败不影响加入新房间
		leaveErr := multierr.Combine(sendErr, s.rooms.LeaveRoom(ctx, previous))
		if leaveErr != nil {
			zap.S().Warnf("离开旧房间 %s 失败：%v", previous, leaveErr)
		}
	}

	if err != nil || already {
		return err
	}

	// REST 调用在房间协程之外进行，期间的推送照常进入缓存
	room, fetchErr := s.rooms.GetRoom(ctx, roomID)

	return s.call(ctx, func() error {
		if gen != s.gen {
			zap.S().Infof("房间 %s 快照到达时已离开，丢弃", roomID)
			return ErrStaleRequest
		}

		if fetchErr != nil {
			zap.S().Warnf("房间 %s 快照加载失败：%v", roomID, fetchErr)
			if err := s.dispatcher.LeaveRoom(); err != nil {
				zap.S().Debugf("room:leave 发送失败：%v", err)
			}
			s.teardown()
			s.pushNotice(game.SIGNAL_ERROR, "Không thể tải phòng. Quay về lobby.")
			return fmt.Errorf("%w: %w", ErrSnapshotFailed, fetchErr)
		}

		s.applySnapshot(room)
		return nil
	})
}

// CreateRoom 创建房间后立即进入
func (s *Session) CreateRoom(ctx context.Context) (dto.Room, error) {
	room, err := s.rooms.CreateRoom(ctx)
	if err != nil {
		return dto.Room{}, err
	}

	zap.S().Infof("房间 %s(%s) 创建成功", room.ID, room.Code)

	return room, s.Enter(ctx, room.ID)
}

// JoinByCode 通过房间码加入
func (s *Session) JoinByCode(ctx context.Context, code string) (dto.Room, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 6 {
		return dto.Room{}, ErrInvalidCode
	}

	room, err := s.rooms.JoinRoomByCode(ctx, code)
	if err != nil {
		return dto.Room{}, err
	}

	return room, s.Enter(ctx, room.ID)
}

// Leave 离开当前房间，未加入时直接返回
func (s *Session) Leave(ctx context.Context) error {
	var (
		roomID  string
		sendErr error
	)

	err := s.call(ctx, func() error {
		if s.roomID == "" {
			return nil
		}

		roomID = s.roomID
		sendErr = s.dispatcher.LeaveRoom()
		s.teardown()

		return nil
	})
	if err != nil || roomID == "" {
		return err
	}

	restErr := s.rooms.LeaveRoom(ctx, roomID)

	zap.S().Infof("已离开房间 %s", roomID)

	return multierr.Combine(sendErr, restErr)
}

func (s *Session) StartGame(ctx context.Context) error {
	return s.call(ctx, func() error {
		if err := s.requireReady(); err != nil {
			return err
		}

		if !game.CanStart(*s.room, s.opts.User.ID) {
			return ErrNotAllowedToStart
		}

		return s.surface(s.dispatcher.StartGame())
	})
}

func (s *Session) SubmitClue(ctx context.Context, content string) error {
	return s.call(ctx, func() error {
		if err := s.requireReady(); err != nil {
			return err
		}

		if err := s.dispatcher.SubmitClue(content); err != nil {
			return s.surface(err)
		}

		s.draft = ""
		return nil
	})
}

func (s *Session) SubmitVote(ctx context.Context, targetPlayerID string) error {
	return s.call(ctx, func() error {
		if err := s.requireReady(); err != nil {
			return err
		}

		return s.surface(s.dispatcher.SubmitVote(targetPlayerID))
	})
}

func (s *Session) SubmitGuess(ctx context.Context, guess string) error {
	return s.call(ctx, func() error {
		if err := s.requireReady(); err != nil {
			return err
		}

		return s.surface(s.dispatcher.SubmitGuess(guess))
	})
}

// SetDraft 保存输入框中尚未提交的提示，倒计时结束时自动提交
func (s *Session) SetDraft(ctx context.Context, content string) error {
	return s.call(ctx, func() error {
		if s.roomID == "" {
			return ErrNotInRoom
		}

		s.draft = content
		return nil
	})
}

func (s *Session) AckRoleReveal(ctx context.Context) error {
	return s.call(ctx, func() error {
		s.showRoleReveal = false
		return nil
	})
}

func (s *Session) DismissNotice(ctx context.Context, id string) error {
	return s.call(ctx, func() error {
		for i, n := range s.notices {
			if n.ID == id {
				s.notices = append(s.notices[:i:i], s.notices[i+1:]...)
				return nil
			}
		}

		return nil
	})
}

// NotifyDisconnected 在连接意外断开时调用，只提示，不重连
func (s *Session) NotifyDisconnected(err error) {
	s.post(SessionRequest{Action: &actionRequest{
		run: func() error {
			zap.S().Warnf("事件通道断开：%v", err)
			s.pushNotice(game.SIGNAL_ERROR, "Mất kết nối tới máy chủ.")
			return nil
		},
		resCh: make(chan error, 1),
	}})
}

func (s *Session) State(ctx context.Context) (SessionState, error) {
	var state SessionState

	err := s.call(ctx, func() error {
		state = s.snapshot()
		return nil
	})

	return state, err
}

func (s *Session) snapshot() SessionState {
	state := SessionState{
		User:           s.opts.User,
		RoomID:         s.roomID,
		Loading:        s.roomID != "" && !s.ready,
		Game:           s.gs.Clone(),
		MyPlayerID:     s.myPlayerID,
		Locks:          s.dispatcher.Locks(),
		Notices:        append([]Notice(nil), s.notices...),
		ShowRoleReveal: s.showRoleReveal,
		Draft:          s.draft,
		HintDeadline:   s.hint.deadline,
		VoteDeadline:   s.vote.deadline,
	}

	if s.room != nil {
		room := s.room.Clone()
		state.Room = &room
	}

	return state
}

func (s *Session) requireReady() error {
	if s.roomID == "" || !s.ready || s.room == nil {
		return ErrNotInRoom
	}

	return nil
}

// begin 建立新一代的房间上下文并订阅所有推送
func (s *Session) begin(roomID string) uint64 {
	s.gen++
	gen := s.gen

	s.roomID = roomID
	s.ready = false
	s.room = nil
	s.gs = game.NewGameState()
	s.myPlayerID = ""
	s.buffered = nil
	s.showRoleReveal = false
	s.draft = ""
	s.dispatcher.Bind(roomID, "")

	for _, name := range game.InboundEvents {
		event := name
		unsubscribe := s.channel.Subscribe(event, func(data json.RawMessage) {
			s.post(SessionRequest{Event: &inboundEvent{
				gen:     gen,
				wrapper: game.EventWrapper{Event: event, Data: data},
			}})
		})
		s.unsubscribes = append(s.unsubscribes, unsubscribe)
	}

	zap.S().Infof("开始加入房间 %s（第 %d 代）", roomID, gen)

	return gen
}

// teardown 取消订阅并作废当前一代，之后到达的旧消息全部丢弃
func (s *Session) teardown() {
	for _, unsubscribe := range s.unsubscribes {
		unsubscribe()
	}
	s.unsubscribes = nil

	s.stopCountdown(&s.hint)
	s.stopCountdown(&s.vote)

	if s.roomID != "" {
		zap.S().Infof("房间 %s 上下文已清理（第 %d 代）", s.roomID, s.gen)
	}

	s.gen++
	s.roomID = ""
	s.ready = false
	s.room = nil
	s.gs = game.NewGameState()
	s.myPlayerID = ""
	s.buffered = nil
	s.showRoleReveal = false
	s.draft = ""
	s.dispatcher.Unbind()
}

func (s *Session) applySnapshot(snapshot dto.Room) {
	merged, transition := game.MergeRoom(s.room, snapshot)
	s.setRoom(merged, transition)
	s.ready = true

	zap.L().Info("房间快照已应用",
		zap.String("room", merged.ID),
		zap.String("status", string(merged.Status)),
		zap.Int("buffered", len(s.buffered)),
	)

	buffered := s.buffered
	s.buffered = nil

	for _, event := range buffered {
		s.apply(event)
	}
}

func (s *Session) setRoom(room dto.Room, transition game.Transition) {
	s.room = &room

	if me, ok := room.FindPlayerByUser(s.opts.User.ID); ok {
		s.myPlayerID = me.ID
	}
	s.dispatcher.Bind(s.roomID, s.myPlayerID)

	switch transition {
	case game.TRANSITION_ENTER_GAME:
		zap.S().Infof("房间 %s 进入游戏", room.ID)
	case game.TRANSITION_GAME_FINISHED:
		zap.S().Infof("房间 %s 游戏结束", room.ID)
	}
}

func (s *Session) handleInbound(in *inboundEvent) {
	if in.gen != s.gen {
		zap.L().Debug("丢弃旧一代的推送", zap.String("event", in.wrapper.Event))
		return
	}

	event, err := game.DecodeEvent(in.wrapper)
	if err != nil {
		if errors.Is(err, game.ErrUnknownEvent) {
			zap.S().Debugf("忽略未知事件 %s", in.wrapper.Event)
		} else {
			zap.S().Warnf("事件 %s 解析失败：%v", in.wrapper.Event, err)
		}
		return
	}

	if !s.ready {
		s.buffered = append(s.buffered, event)
		return
	}

	s.apply(event)
}

func (s *Session) apply(event game.Event) {
	s.gs = game.Reduce(s.gs, event)

	switch e := event.(type) {
	case game.RoomUpdated:
		s.setRoom(game.MergeRoom(s.room, e.Room))
	case game.GameStarted:
		s.setRoom(game.MergeRoom(s.room, e.Room))
	case game.RoundStarted:
		s.draft = ""
	case game.VotingStarted:
		s.votingStarts++
	}

	s.dispatcher.Observe(event)

	for _, signal := range game.SignalsFor(event) {
		if signal.Kind == game.SIGNAL_ROLE_REVEAL {
			s.showRoleReveal = true
			if signal.Message != "" {
				s.pushNotice(game.SIGNAL_INFO, signal.Message)
			}
			continue
		}

		s.pushNotice(signal.Kind, signal.Message)
	}

	s.syncCountdowns()
}

func (s *Session) pushNotice(kind game.SignalKind, message string) {
	s.notices = append(s.notices, Notice{
		ID:        GenID(),
		Kind:      kind,
		Message:   message,
		CreatedAt: time.Now(),
	})

	if len(s.notices) > MAX_NOTICES {
		s.notices = append([]Notice(nil), s.notices[len(s.notices)-MAX_NOTICES:]...)
	}
}

// surface 发送失败时提示用户手动重试，动作不会排队
func (s *Session) surface(err error) error {
	if errors.Is(err, ErrSendFailed) {
		s.pushNotice(game.SIGNAL_ERROR, "Không gửi được thao tác. Vui lòng thử lại.")
	}

	return err
}

// syncCountdowns 根据当前状态启动或停止本地倒计时。
// 提示倒计时在轮到自己且尚未提交时运行，每有一条新提示就重新计时；
// 投票倒计时只用于展示。
func (s *Session) syncCountdowns() {
	gs := s.gs

	myTurn := s.myPlayerID != "" &&
		gs.CurrentTurnPlayerID == s.myPlayerID &&
		!gs.HasClueFrom(s.myPlayerID)

	if !gs.GameOver && gs.Phase == game.PHASE_HINTING && myTurn {
		key := fmt.Sprintf("%d/%d", gs.Round, len(gs.Clues))
		s.startCountdown(&s.hint, TIMER_HINT, key, s.opts.HintTime)
	} else {
		s.stopCountdown(&s.hint)
	}

	if !gs.GameOver && gs.Phase == game.PHASE_VOTING {
		key := fmt.Sprintf("%d/%d", gs.Round, s.votingStarts)
		s.startCountdown(&s.vote, TIMER_VOTE, key, s.opts.VoteTime)
	} else {
		s.stopCountdown(&s.vote)
	}
}

func (s *Session) startCountdown(c *countdown, kind timerKind, key string, d time.Duration) {
	// 同一条件下只计时一次，到期后也不会重新开始
	if c.key == key {
		return
	}

	s.stopCountdown(c)

	s.timerToken++
	expiry := &timerExpiry{gen: s.gen, kind: kind, token: s.timerToken}

	c.token = expiry.token
	c.key = key
	c.deadline = time.Now().Add(d)
	c.timer = time.AfterFunc(d, func() {
		s.post(SessionRequest{Timer: expiry})
	})
}

func (s *Session) stopCountdown(c *countdown) {
	if c.timer != nil {
		c.timer.Stop()
	}

	*c = countdown{}
}

func (s *Session) handleTimer(expiry *timerExpiry) {
	if expiry.gen != s.gen {
		return
	}

	switch expiry.kind {
	case TIMER_HINT:
		if s.hint.token != expiry.token {
			return
		}
		// 令牌作废，保证同一次倒计时只触发一次
		s.hint.token = 0
		s.hint.timer = nil
		s.hint.deadline = time.Time{}

		if strings.TrimSpace(s.draft) == "" {
			zap.S().Debugf("提示倒计时结束，草稿为空，不自动提交")
			return
		}

		if err := s.surface(s.dispatcher.SubmitClue(s.draft)); err != nil {
			zap.S().Infof("倒计时自动提交提示失败：%v", err)
			return
		}

		zap.S().Infof("倒计时结束，自动提交提示")
		s.draft = ""

	case TIMER_VOTE:
		if s.vote.token != expiry.token {
			return
		}
		s.vote.token = 0
		s.vote.timer = nil
		s.vote.deadline = time.Time{}
	}
}
