package dto

type Role string

// 玩家身份，仅在游戏结束揭晓或服务端单独下发时有值
const (
	ROLE_NONE      Role = ""
	ROLE_CIVILIAN  Role = "CIVILIAN"
	ROLE_BLACK_HAT Role = "BLACK_HAT"
	ROLE_WHITE_HAT Role = "WHITE_HAT"
)

func (r Role) Valid() bool {
	switch r {
	case ROLE_CIVILIAN, ROLE_BLACK_HAT, ROLE_WHITE_HAT:
		return true
	}
	return false
}

// RoomPlayer 是房间里的一条玩家记录。
// ID 是记录 ID 而不是用户 ID，同一用户重新加入时会拿到新的记录。
// 离开的玩家只会被标记为 inactive，不会被删除，以保留淘汰记录的引用。
type RoomPlayer struct {
	ID          string `json:"id"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar,omitempty"`
	IsActive    bool   `json:"isActive"`
	IsHost      bool   `json:"isHost"`
	Role        Role   `json:"role,omitempty"`
}

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Avatar      string `json:"avatar,omitempty"`
}
