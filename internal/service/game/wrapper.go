package game

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// 客户端发出的动作名
const (
	ACT_JOIN_ROOM    = "room:join"
	ACT_LEAVE_ROOM   = "room:leave"
	ACT_START_GAME   = "game:start"
	ACT_SUBMIT_CLUE  = "game:submit_clue"
	ACT_SUBMIT_VOTE  = "game:submit_vote"
	ACT_SUBMIT_GUESS = "game:submit_guess"
)

var (
	ErrUnknownEvent   = errors.New("未知的事件类型")
	ErrMalformedEvent = errors.New("事件负载格式错误")
)

// EventWrapper 是服务端推送的信封
type EventWrapper struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type clueSubmittedPayload struct {
	PlayerID        string `json:"playerId"`
	DisplayName     string `json:"displayName"`
	Content         string `json:"content"`
	Type            string `json:"type"`
	CurrentPlayerID string `json:"currentPlayerId"`
}

// DecodeEvent 把信封解析成具体的事件类型
func DecodeEvent(wrapper EventWrapper) (Event, error) {
	switch wrapper.Event {
	case EVT_ROOM_UPDATED:
		return tryUnwrap[RoomUpdated](wrapper)
	case EVT_GAME_STARTED:
		return tryUnwrap[GameStarted](wrapper)
	case EVT_ROUND_STARTED:
		return tryUnwrap[RoundStarted](wrapper)
	case EVT_YOUR_TURN:
		return YourTurn{}, nil
	case EVT_CLUE_SUBMITTED:
		payload, err := tryUnwrap[clueSubmittedPayload](wrapper)
		if err != nil {
			return nil, err
		}

		// 同一个事件名承载两种含义，用 type 字段区分
		if payload.Type == CLUE_TYPE_TURN_CHANGED {
			return TurnChanged{
				PlayerID:        payload.PlayerID,
				DisplayName:     payload.DisplayName,
				CurrentPlayerID: payload.CurrentPlayerID,
			}, nil
		}

		return ClueSubmitted{
			PlayerID:    payload.PlayerID,
			DisplayName: payload.DisplayName,
			Content:     payload.Content,
		}, nil
	case EVT_VOTING_STARTED:
		return VotingStarted{}, nil
	case EVT_VOTE_UPDATE:
		return tryUnwrap[VoteUpdate](wrapper)
	case EVT_PLAYER_ELIMINATED:
		return tryUnwrap[PlayerEliminated](wrapper)
	case EVT_GUESSING_STARTED:
		return GuessingStarted{}, nil
	case EVT_ROUND_RESULT:
		return tryUnwrap[RoundResult](wrapper)
	case EVT_GAME_OVER:
		return tryUnwrap[GameOver](wrapper)
	case EVT_ERROR:
		return tryUnwrap[ErrorEvent](wrapper)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, wrapper.Event)
}

func tryUnwrap[T any](wrapper EventWrapper) (T, error) {
	var payload T

	if len(wrapper.Data) == 0 || string(wrapper.Data) == "null" {
		return payload, nil
	}

	if err := json.Unmarshal(wrapper.Data, &payload); err != nil {
		zap.L().Debug(
			"解析事件负载失败",
			zap.String("event", wrapper.Event),
			zap.ByteString("data", wrapper.Data),
			zap.Error(err),
		)

		return payload, fmt.Errorf("%w: %s: %v", ErrMalformedEvent, wrapper.Event, err)
	}

	return payload, nil
}
