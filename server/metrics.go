package server

import (
	"errors"
	"sync/atomic"
)

// Metrics 记录会话运行期的关键指标（用于监控与调试）
type Metrics struct {
	LinesRead      int64 // 读取的入站行/帧数
	Joins          int64
	Leaves         int64
	Inputs         int64
	Malformed      int64 // 无法解析的行
	Incomplete     int64 // 缺少身份字段的行
	UnknownKind    int64 // 未知事件类型
	Unicasts       int64 // 单播出站事件数
	Broadcasts     int64 // 广播出站事件数
	QueueDiscarded int64 // 因发送队列满被丢弃的帧数
	Players        int64 // 当前在线玩家（gauge）
}

func NewMetrics() *Metrics { return &Metrics{} }

func (m *Metrics) IncLinesRead()      { atomic.AddInt64(&m.LinesRead, 1) }
func (m *Metrics) IncQueueDiscarded() { atomic.AddInt64(&m.QueueDiscarded, 1) }
func (m *Metrics) SetPlayers(n int)   { atomic.StoreInt64(&m.Players, int64(n)) }

// CountInbound 按事件类型计数
func (m *Metrics) CountInbound(k Kind) {
	switch k {
	case KindJoin:
		atomic.AddInt64(&m.Joins, 1)
	case KindLeave:
		atomic.AddInt64(&m.Leaves, 1)
	case KindInput:
		atomic.AddInt64(&m.Inputs, 1)
	}
}

// CountOutbound 按路由方式计数
func (m *Metrics) CountOutbound(ev OutboundEvent) {
	if ev.Broadcast() {
		atomic.AddInt64(&m.Broadcasts, 1)
		return
	}
	atomic.AddInt64(&m.Unicasts, 1)
}

// CountRejected 按解码失败分类计数
func (m *Metrics) CountRejected(err error) {
	switch {
	case errors.Is(err, ErrIncompleteEvent):
		atomic.AddInt64(&m.Incomplete, 1)
	case errors.Is(err, ErrUnknownKind):
		atomic.AddInt64(&m.UnknownKind, 1)
	default:
		atomic.AddInt64(&m.Malformed, 1)
	}
}

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *Metrics) Snapshot() map[string]any {
	return map[string]any{
		"lines_read":      atomic.LoadInt64(&m.LinesRead),
		"joins":           atomic.LoadInt64(&m.Joins),
		"leaves":          atomic.LoadInt64(&m.Leaves),
		"inputs":          atomic.LoadInt64(&m.Inputs),
		"malformed":       atomic.LoadInt64(&m.Malformed),
		"incomplete":      atomic.LoadInt64(&m.Incomplete),
		"unknown_kind":    atomic.LoadInt64(&m.UnknownKind),
		"unicasts":        atomic.LoadInt64(&m.Unicasts),
		"broadcasts":      atomic.LoadInt64(&m.Broadcasts),
		"queue_discarded": atomic.LoadInt64(&m.QueueDiscarded),
		"players":         atomic.LoadInt64(&m.Players),
	}
}
