package entity

import (
	"fmt"
	"strconv"
)

// GuestState guest agent 上报的健康状态
// 这是一个封闭枚举，所有来自消息总线的取值都必须经过 ParseGuestState 翻译，
// 不在集合内的值按非法消息处理，不做猜测
type GuestState string

const (
	GuestStateBuilding   GuestState = "building"
	GuestStateRunning    GuestState = "running"
	GuestStateRestarting GuestState = "restarting"
	GuestStateStop       GuestState = "stop"
	GuestStateFailed     GuestState = "failed"
)

// guestStateCodes 旧版 guest agent 使用的整数状态码
var guestStateCodes = map[int]GuestState{
	0: GuestStateBuilding,
	1: GuestStateRunning,
	2: GuestStateRestarting,
	3: GuestStateStop,
	4: GuestStateFailed,
}

// guestStateNames 规范状态名集合
var guestStateNames = map[string]GuestState{
	string(GuestStateBuilding):   GuestStateBuilding,
	string(GuestStateRunning):    GuestStateRunning,
	string(GuestStateRestarting): GuestStateRestarting,
	string(GuestStateStop):       GuestStateStop,
	string(GuestStateFailed):     GuestStateFailed,
}

// ParseGuestState 将线上表示翻译为规范的 GuestState
// 接受三种形式：
//   - 规范状态名（"running"）
//   - 整数状态码（JSON 解码后为 float64）
//   - 整数状态码的字符串形式（"1"）
func ParseGuestState(value any) (GuestState, error) {
	switch v := value.(type) {
	case string:
		if state, ok := guestStateNames[v]; ok {
			return state, nil
		}
		if code, err := strconv.Atoi(v); err == nil {
			if state, ok := guestStateCodes[code]; ok {
				return state, nil
			}
		}
		return "", fmt.Errorf("unknown guest state %q", v)
	case float64:
		if state, ok := guestStateCodes[int(v)]; ok {
			return state, nil
		}
		return "", fmt.Errorf("unknown guest state code %v", v)
	case int:
		if state, ok := guestStateCodes[v]; ok {
			return state, nil
		}
		return "", fmt.Errorf("unknown guest state code %d", v)
	default:
		return "", fmt.Errorf("unsupported guest state type %T", value)
	}
}

// GuestStatus guest 状态信息
type GuestStatus struct {
	InstanceID string `json:"instance_id"`
	State      string `json:"state"`
	UpdatedAt  string `json:"updated_at"`
}
