package server

import (
	"context"
	"sync/atomic"
)

// Conn 出站连接的最小接口（便于测试替换）
type Conn interface {
	// Enqueue 非阻塞入队，队列满返回 false
	Enqueue(frame []byte) bool
	Close()
}

type hubMsg struct {
	ev   InboundEvent
	conn Conn // 仅 Join 携带
}

// Hub 内置传输层与会话之间的单写者交接：
// 所有事件经有界通道按到达顺序交给一个协程，由它独占 Session 和连接表
type Hub struct {
	nextID  int64 // 放在首位保证 32 位平台原子操作对齐
	session *Session
	inbox   chan hubMsg
	done    chan struct{}
	conns   map[PlayerID]Conn
	sendQ   int
}

// NewHub 创建 Hub；inboxSize 为交接通道容量
func NewHub(s *Session, inboxSize, sendQueue int) *Hub {
	return &Hub{
		session: s,
		inbox:   make(chan hubMsg, inboxSize),
		done:    make(chan struct{}),
		conns:   make(map[PlayerID]Conn),
		sendQ:   sendQueue,
	}
}

// Connect 分配玩家 ID 并提交 Join；ID 从 1 开始单调递增
func (h *Hub) Connect(c Conn) PlayerID {
	id := PlayerID(atomic.AddInt64(&h.nextID, 1))
	h.submit(hubMsg{ev: InboundEvent{Kind: KindJoin, From: id}, conn: c})
	return id
}

// Disconnect 提交 Leave
func (h *Hub) Disconnect(id PlayerID) {
	h.submit(hubMsg{ev: InboundEvent{Kind: KindLeave, From: id}})
}

// Submit 提交客户端输入
func (h *Hub) Submit(ev InboundEvent) {
	h.submit(hubMsg{ev: ev})
}

// Reject 记录被丢弃的客户端消息
func (h *Hub) Reject(err error) {
	h.session.metrics.IncLinesRead()
	h.session.Skip(err)
}

// submit 阻塞写入以保证顺序且不丢事件；Hub 停止后直接返回
func (h *Hub) submit(m hubMsg) {
	select {
	case h.inbox <- m:
	case <-h.done:
	}
}

// Run 单协程处理循环，ctx 结束时关闭所有连接
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for id, c := range h.conns {
			c.Close()
			delete(h.conns, id)
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-h.inbox:
			h.handle(m)
		}
	}
}

func (h *Hub) handle(m hubMsg) {
	h.session.metrics.IncLinesRead()
	switch m.ev.Kind {
	case KindJoin:
		// 先登记连接，单播的 State 才能送达
		if m.conn != nil {
			h.conns[m.ev.From] = m.conn
		}
	case KindLeave:
		// 先移除连接：Leave 只发给剩余玩家
		if c, ok := h.conns[m.ev.From]; ok {
			c.Close()
			delete(h.conns, m.ev.From)
		}
	}
	h.route(h.session.Apply(m.ev))
}

func (h *Hub) route(out []OutboundEvent) {
	for _, ev := range out {
		frame, err := EncodeFrame(ev)
		if err != nil {
			Log.Errorw("encode outbound", "kind", ev.Kind, "err", err)
			continue
		}
		if ev.Broadcast() {
			for _, c := range h.conns {
				h.enqueue(c, frame)
			}
			continue
		}
		if c, ok := h.conns[*ev.To]; ok {
			h.enqueue(c, frame)
		}
	}
}

func (h *Hub) enqueue(c Conn, frame []byte) {
	if !c.Enqueue(frame) {
		h.session.metrics.IncQueueDiscarded()
	}
}
