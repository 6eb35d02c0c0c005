package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"who-is-spy-client/internal/auth"
	"who-is-spy-client/internal/service/dto"

	"go.uber.org/zap"
)

const DEFAULT_TIMEOUT = 10 * time.Second

var ErrUnauthorized = errors.New("登录已失效，请重新登录")

// APIError 表示服务端返回的非 2xx 响应
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("请求失败：%d", e.Status)
	}
	return e.Message
}

type Client struct {
	baseURL string
	token   auth.Token
	http    *http.Client
}

func NewClient(baseURL string, token auth.Token, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DEFAULT_TIMEOUT
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) Me(ctx context.Context) (dto.User, error) {
	var user dto.User
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &user)
	return user, err
}

func (c *Client) CreateRoom(ctx context.Context) (dto.Room, error) {
	var resp dto.RoomResponse
	err := c.do(ctx, http.MethodPost, "/rooms", nil, &resp)
	return resp.Room, err
}

func (c *Client) JoinRoomByCode(ctx context.Context, code string) (dto.Room, error) {
	var resp dto.RoomResponse
	err := c.do(ctx, http.MethodPost, "/rooms/join", dto.JoinRoomRequest{Code: code}, &resp)
	return resp.Room, err
}

func (c *Client) GetRoom(ctx context.Context, roomID string) (dto.Room, error) {
	var resp dto.RoomResponse
	err := c.do(ctx, http.MethodGet, "/rooms/"+url.PathEscape(roomID), nil, &resp)
	return resp.Room, err
}

func (c *Client) LeaveRoom(ctx context.Context, roomID string) error {
	var resp dto.MessageResponse
	return c.do(ctx, http.MethodDelete, "/rooms/"+url.PathEscape(roomID)+"/leave", nil, &resp)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("序列化请求失败: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("构建请求失败: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token.Raw != "" {
		req.Header.Set("Authorization", c.token.Authorization())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		zap.S().Warnf("请求 %s %s 失败：%v", method, path, err)
		return fmt.Errorf("请求 %s 失败: %w", path, err)
	}
	defer resp.Body.Close()

	zap.L().Debug("REST 响应",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Message string `json:"message"`
		}
		// 错误体解析失败时只保留状态码
		_ = json.NewDecoder(resp.Body).Decode(&errBody)

		return &APIError{
			Status:  resp.StatusCode,
			Message: errBody.Message,
		}
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("解析响应失败: %w", err)
	}

	return nil
}
