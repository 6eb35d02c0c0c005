package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
	"go.uber.org/zap"
)

// Channel 是一条显式持有的双向消息通道。
// 由调用方构造、Connect、Disconnect，不是全局单例。
type Channel struct {
	opts    Options
	limiter *rate.Limiter

	mu   sync.Mutex
	link *link

	subMu     sync.RWMutex
	handlers  map[string]map[uint64]Handler
	nextSubID uint64
}

// link 对应一次成功建立的连接
type link struct {
	conn    *websocket.Conn
	sendCh  chan []byte
	closeCh chan struct{}
	doneCh  chan struct{}

	closeOnce sync.Once
	closing   atomic.Bool
}

func (l *link) close() {
	l.closeOnce.Do(func() {
		close(l.closeCh)
		l.conn.Close()
	})
}

func NewChannel(opts Options) *Channel {
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}

	return &Channel{
		opts:     opts,
		limiter:  newLimiter(opts),
		handlers: make(map[string]map[uint64]Handler),
	}
}

// Connect 建立连接并启动读写协程，已连接时直接返回
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.link != nil {
		return nil
	}

	conn, resp, err := c.opts.Dialer.DialContext(ctx, c.opts.URL, c.opts.Header)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("%w: 握手失败 (%d): %v", ErrChannelUnavailable, resp.StatusCode, err)
		}
		return fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}

	conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
	conn.SetPongHandler(heartbeatHandler(conn))

	l := &link{
		conn:    conn,
		sendCh:  make(chan []byte, SEND_BUFFER_SIZE),
		closeCh: make(chan struct{}),
		doneCh:  make(chan struct{}),
	}

	c.link = l

	go c.writePump(l)
	go c.readPump(l)

	zap.L().Info("WebSocket 连接已建立", zap.String("url", c.opts.URL))

	return nil
}

// Disconnect 主动关闭连接并等待读协程退出
func (c *Channel) Disconnect() error {
	c.mu.Lock()
	l := c.link
	c.link = nil
	c.mu.Unlock()

	if l == nil {
		return nil
	}

	l.closing.Store(true)

	deadline := time.Now().Add(WRITE_TIMEOUT)
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
	// 写协程可能同时在写，关闭帧失败不影响后续清理
	_ = l.conn.WriteControl(websocket.CloseMessage, msg, deadline)

	l.close()
	<-l.doneCh

	zap.L().Info("WebSocket 连接已关闭", zap.String("url", c.opts.URL))

	return nil
}

func (c *Channel) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.link != nil
}

// Subscribe 注册某个事件的处理函数，返回的函数用于取消订阅，可重复调用
func (c *Channel) Subscribe(event string, handler Handler) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	c.nextSubID++
	id := c.nextSubID

	if c.handlers[event] == nil {
		c.handlers[event] = make(map[uint64]Handler)
	}
	c.handlers[event][id] = handler

	var once sync.Once

	return func() {
		once.Do(func() {
			c.subMu.Lock()
			defer c.subMu.Unlock()

			delete(c.handlers[event], id)
			if len(c.handlers[event]) == 0 {
				delete(c.handlers, event)
			}
		})
	}
}

// Send 发送一条消息，不等待确认。
// 未连接时立即返回 ErrChannelUnavailable，不会排队。
func (c *Channel) Send(event string, data any) error {
	c.mu.Lock()
	l := c.link
	c.mu.Unlock()

	if l == nil {
		return ErrChannelUnavailable
	}

	if !c.limiter.Allow() {
		return ErrChannelBusy
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("生成消息 ID 失败: %w", err)
	}

	payload, err := json.Marshal(outboundEnvelope{
		Event: event,
		Data:  data,
		ID:    id.String(),
	})
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	select {
	case <-l.closeCh:
		return ErrChannelUnavailable
	default:
	}

	select {
	case l.sendCh <- payload:
		zap.L().Debug(
			"消息已进入发送队列",
			zap.String("event", event),
			zap.String("id", id.String()),
		)
		return nil
	case <-l.closeCh:
		return ErrChannelUnavailable
	default:
		return ErrChannelBusy
	}
}

func (c *Channel) writePump(l *link) {
	ticker := time.NewTicker(HEARTBEAT_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case <-l.closeCh:
			return

		case <-ticker.C:
			l.conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
			if err := l.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				zap.L().Warn("发送心跳失败", zap.Error(err))
				l.close()
				return
			}

			zap.L().Debug("发送心跳")

		case payload := <-l.sendCh:
			l.conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))
			if err := l.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				zap.L().Warn("发送消息失败", zap.Error(err))
				l.close()
				return
			}
		}
	}
}

func (c *Channel) readPump(l *link) {
	defer close(l.doneCh)

	for {
		_, msg, err := l.conn.ReadMessage()
		if err != nil {
			l.close()
			c.detach(l, err)
			return
		}

		var envelope inboundEnvelope
		if err := json.Unmarshal(msg, &envelope); err != nil {
			zap.L().Warn("解析推送消息失败", zap.Error(err))
			continue
		}

		c.dispatch(envelope)
	}
}

func (c *Channel) dispatch(envelope inboundEnvelope) {
	c.subMu.RLock()
	handlers := make([]Handler, 0, len(c.handlers[envelope.Event]))
	for _, h := range c.handlers[envelope.Event] {
		handlers = append(handlers, h)
	}
	c.subMu.RUnlock()

	if len(handlers) == 0 {
		zap.L().Debug("没有订阅者，丢弃推送", zap.String("event", envelope.Event))
		return
	}

	for _, h := range handlers {
		h(envelope.Data)
	}
}

// detach 在读协程退出时摘除连接，只有意外断开才会回调 OnDisconnect
func (c *Channel) detach(l *link, err error) {
	c.mu.Lock()
	if c.link == l {
		c.link = nil
	}
	c.mu.Unlock()

	if l.closing.Load() {
		return
	}

	if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		zap.L().Error("WebSocket 连接意外断开", zap.Error(err))
	} else {
		zap.L().Info("WebSocket 连接已断开", zap.Error(err))
	}

	if c.opts.OnDisconnect != nil {
		c.opts.OnDisconnect(err)
	}
}
