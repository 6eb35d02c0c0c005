package game

import "who-is-spy-client/internal/service/dto"

type Transition string

// MergeRoom 返回给调用方的展示切换指令
const (
	TRANSITION_NONE          Transition = "None"
	TRANSITION_ENTER_GAME    Transition = "EnterGame"
	TRANSITION_GAME_FINISHED Transition = "GameFinished"
)

// MergeRoom 用快照整体替换当前房间。
// 服务端是玩家名单唯一的事实来源，这里不做字段级的差异合并。
// 状态切换到 IN_PROGRESS 或 FINISHED 时返回对应的切换指令，由调用方执行。
func MergeRoom(current *dto.Room, snapshot dto.Room) (dto.Room, Transition) {
	merged := snapshot.Clone()

	if current != nil && current.Status == merged.Status {
		return merged, TRANSITION_NONE
	}

	switch merged.Status {
	case dto.STATUS_IN_PROGRESS:
		return merged, TRANSITION_ENTER_GAME
	case dto.STATUS_FINISHED:
		if current == nil {
			return merged, TRANSITION_NONE
		}
		return merged, TRANSITION_GAME_FINISHED
	}

	return merged, TRANSITION_NONE
}

// CanStart 只有房主且 active 玩家达到下限时才能开始
func CanStart(room dto.Room, userID string) bool {
	if !room.IsHost(userID) || room.Status != dto.STATUS_WAITING {
		return false
	}

	return len(room.ActivePlayers()) >= MIN_PLAYERS
}
