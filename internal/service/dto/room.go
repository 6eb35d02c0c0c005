package dto

import "slices"

type RoomStatus string

const (
	STATUS_WAITING     RoomStatus = "WAITING"
	STATUS_IN_PROGRESS RoomStatus = "IN_PROGRESS"
	STATUS_FINISHED    RoomStatus = "FINISHED"
)

// Room 由服务端持有，客户端只做整体替换，不做字段级修改
type Room struct {
	ID         string       `json:"id"`
	Code       string       `json:"code"`
	HostID     string       `json:"hostId"`
	Status     RoomStatus   `json:"status"`
	MaxPlayers int          `json:"maxPlayers"`
	Players    []RoomPlayer `json:"players"`
}

// Clone 返回一个不与原房间共享玩家切片的副本
func (r Room) Clone() Room {
	r.Players = slices.Clone(r.Players)
	return r
}

func (r Room) FindPlayer(playerID string) (RoomPlayer, bool) {
	if playerID == "" {
		return RoomPlayer{}, false
	}

	for _, p := range r.Players {
		if p.ID == playerID {
			return p, true
		}
	}

	return RoomPlayer{}, false
}

// FindPlayerByUser 优先返回 active 的记录，因为同一用户可能留有旧的 inactive 记录
func (r Room) FindPlayerByUser(userID string) (RoomPlayer, bool) {
	if userID == "" {
		return RoomPlayer{}, false
	}

	var (
		found RoomPlayer
		ok    bool
	)

	for _, p := range r.Players {
		if p.UserID != userID {
			continue
		}

		if p.IsActive {
			return p, true
		}

		if !ok {
			found, ok = p, true
		}
	}

	return found, ok
}

func (r Room) ActivePlayers() []RoomPlayer {
	active := make([]RoomPlayer, 0, len(r.Players))
	for _, p := range r.Players {
		if p.IsActive {
			active = append(active, p)
		}
	}

	return active
}

func (r Room) IsHost(userID string) bool {
	return userID != "" && r.HostID == userID
}

// REST 接口的响应体
type RoomResponse struct {
	Room Room `json:"room"`
}

type JoinRoomRequest struct {
	Code string `json:"code"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
