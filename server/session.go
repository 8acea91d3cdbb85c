package server

// Session 会话权威：玩家注册表的唯一持有者与修改者。
// 纯事件驱动，无 Tick、无阶段，按到达顺序逐个处理事件；不做加锁，调用方须保证单线程访问。
type Session struct {
	players map[PlayerID]Position
	spawn   Position
	metrics *Metrics
}

// SessionOption 可选配置
type SessionOption func(*Session)

// WithSpawn 覆盖出生点
func WithSpawn(p Position) SessionOption {
	return func(s *Session) { s.spawn = p }
}

// WithMetrics 共享外部指标（admin 接口读取）
func WithMetrics(m *Metrics) SessionOption {
	return func(s *Session) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewSession 创建空会话
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		players: make(map[PlayerID]Position),
		spawn:   DefaultSpawn,
		metrics: NewMetrics(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Metrics 返回会话使用的指标
func (s *Session) Metrics() *Metrics { return s.metrics }

// Len 当前注册表中的玩家数
func (s *Session) Len() int { return len(s.players) }

// Position 查询玩家位置
func (s *Session) Position(id PlayerID) (Position, bool) {
	p, ok := s.players[id]
	return p, ok
}

// Apply 执行一次状态转移，返回零个或多个出站事件
func (s *Session) Apply(ev InboundEvent) []OutboundEvent {
	var out []OutboundEvent
	switch ev.Kind {
	case KindJoin:
		// 重复 Join 视为重新出生，覆盖旧位置
		s.players[ev.From] = s.spawn
		st := unicast(ev.From, KindState)
		st.State = s.snapshot()
		out = append(out, st)
	case KindLeave:
		// 未加入的玩家离开也照常广播（容忍重复/迟到的断开通知）
		delete(s.players, ev.From)
		out = append(out, OutboundEvent{Kind: KindLeave, Leave: &LeaveData{Leaver: ev.From}})
	case KindInput:
		// 不校验是否先 Join：未知玩家的输入会直接创建条目
		s.players[ev.From] = ev.Input.Position()
		out = append(out, OutboundEvent{Kind: KindState, State: s.snapshot()})
	default:
		return nil
	}

	s.metrics.CountInbound(ev.Kind)
	s.metrics.SetPlayers(len(s.players))
	for _, o := range out {
		s.metrics.CountOutbound(o)
	}
	return out
}

// Skip 解码失败的行：不改状态、不产生输出，仅计数
func (s *Session) Skip(err error) {
	s.metrics.CountRejected(err)
}

// snapshot 复制全量注册表，已发出的事件不受后续修改影响
func (s *Session) snapshot() *StateData {
	players := make(map[PlayerID]Position, len(s.players))
	for id, p := range s.players {
		players[id] = p
	}
	return &StateData{Players: players}
}
