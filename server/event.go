package server

// Kind 线路上可读的事件类型
type Kind string

const (
	KindJoin  Kind = "Join"
	KindLeave Kind = "Leave"
	KindInput Kind = "Input"
	KindState Kind = "State"
)

// InputData 输入事件的载荷，坐标可缺省（nil 表示缺失）
type InputData struct {
	X *float64 `json:"x,omitempty"`
	Y *float64 `json:"y,omitempty"`
}

// Position 将缺失坐标按 0 处理
func (d InputData) Position() Position {
	var p Position
	if d.X != nil {
		p.X = *d.X
	}
	if d.Y != nil {
		p.Y = *d.Y
	}
	return p
}

// InboundEvent 入站事件：Join / Leave / Input，Input 仅在 KindInput 时有意义
type InboundEvent struct {
	Kind  Kind
	From  PlayerID
	Input InputData
}

// StateData 全量快照（非增量）
type StateData struct {
	Players map[PlayerID]Position `json:"players"`
}

// LeaveData 离开通知
type LeaveData struct {
	Leaver PlayerID `json:"leaver"`
}

// OutboundEvent 出站事件：State 或 Leave。To 为 nil 表示广播给所有在线玩家
type OutboundEvent struct {
	Kind  Kind
	To    *PlayerID
	State *StateData
	Leave *LeaveData
}

// Broadcast 是否为广播
func (e OutboundEvent) Broadcast() bool { return e.To == nil }

func unicast(to PlayerID, kind Kind) OutboundEvent {
	return OutboundEvent{Kind: kind, To: &to}
}
