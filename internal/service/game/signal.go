package game

import (
	"fmt"

	"who-is-spy-client/internal/service/dto"
)

type SignalKind string

const (
	SIGNAL_ROLE_REVEAL SignalKind = "RoleReveal"
	SIGNAL_INFO        SignalKind = "Info"
	SIGNAL_WARNING     SignalKind = "Warning"
	SIGNAL_ERROR       SignalKind = "Error"
)

// Signal 是事件附带的一次性展示信号，不属于 GameState
type Signal struct {
	Kind    SignalKind `json:"kind"`
	Message string     `json:"message"`
}

var RoleLabels = map[dto.Role]string{
	dto.ROLE_CIVILIAN:  "Dân",
	dto.ROLE_BLACK_HAT: "Mũ Đen",
	dto.ROLE_WHITE_HAT: "Mũ Trắng",
}

func RoleLabel(role dto.Role) string {
	if label, ok := RoleLabels[role]; ok {
		return label
	}

	return ""
}

// SignalsFor 只根据事件本身推导展示信号，不读取也不修改状态
func SignalsFor(event Event) []Signal {
	switch e := event.(type) {
	case RoundStarted:
		return []Signal{{Kind: SIGNAL_ROLE_REVEAL, Message: e.Message}}

	case VotingStarted:
		return []Signal{{Kind: SIGNAL_INFO, Message: "Giai đoạn bỏ phiếu bắt đầu!"}}

	case PlayerEliminated:
		msg := fmt.Sprintf("%s đã bị loại!", e.DisplayName)
		if label := RoleLabel(e.Role); label != "" {
			msg = fmt.Sprintf("%s đã bị loại (%s)!", e.DisplayName, label)
		}

		return []Signal{{Kind: SIGNAL_WARNING, Message: msg}}

	case RoundResult:
		if e.Message == "" {
			return nil
		}

		return []Signal{{Kind: SIGNAL_INFO, Message: e.Message}}

	case ErrorEvent:
		return []Signal{{Kind: SIGNAL_ERROR, Message: e.Message}}
	}

	return nil
}
