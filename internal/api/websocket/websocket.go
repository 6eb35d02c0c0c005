package websocket

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	// 心跳间隔
	HEARTBEAT_INTERVAL = 30 * time.Second
	// 心跳超时时间，超过该时间没有收到任何数据视为断线
	HEARTBEAT_TIMEOUT = 45 * time.Second
	// 单条消息写入超时
	WRITE_TIMEOUT = 10 * time.Second
	// 发送缓冲区大小，满了直接报错而不是排队等待
	SEND_BUFFER_SIZE = 64
)

var (
	ErrChannelUnavailable = errors.New("连接不可用")
	ErrChannelBusy        = errors.New("发送过于频繁，请稍后再试")
)

// Handler 处理某一事件名下的原始负载，在读协程中同步调用
type Handler = func(data json.RawMessage)

type Options struct {
	URL    string
	Header http.Header

	// 出站消息的令牌桶限流，SendRate 为 0 时不限流
	SendRate  float64
	SendBurst int

	// 连接意外断开时回调，主动 Disconnect 不会触发
	OnDisconnect func(err error)

	Dialer *websocket.Dialer
}

// 服务端推送的信封
type inboundEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// 客户端发出的信封，ID 仅用于日志关联
type outboundEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
	ID    string `json:"id,omitempty"`
}

func newLimiter(opts Options) *rate.Limiter {
	if opts.SendRate <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}

	burst := opts.SendBurst
	if burst < 1 {
		burst = 1
	}

	return rate.NewLimiter(rate.Limit(opts.SendRate), burst)
}

var heartbeatHandler = func(conn *websocket.Conn) func(string) error {
	return func(string) error {
		conn.SetReadDeadline(time.Now().Add(HEARTBEAT_TIMEOUT))
		return nil
	}
}
