package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// 解码失败的分类；调用方据此静默跳过该行
var (
	ErrMalformed       = errors.New("malformed event")
	ErrIncompleteEvent = errors.New("incomplete event")
	ErrUnknownKind     = errors.New("unknown event kind")
)

// 入站一行 JSON 的线路结构
// 示例：{"t":"Input","from":1,"data":{"x":9,"y":9}}
// 字段名大小写敏感：按精确键名取值，"From"/"DATA" 之类视为缺失
type wireInbound struct {
	T    string
	From json.RawMessage
	Data json.RawMessage
}

// 出站一行 JSON 的线路结构，to 为 null 表示广播
type wireOutbound struct {
	T    Kind      `json:"t"`
	Data any       `json:"data"`
	To   *PlayerID `json:"to"`
}

// DecodeLine 将一行文本解析为入站事件
func DecodeLine(line []byte) (InboundEvent, error) {
	w, err := unmarshalWire(line)
	if err != nil {
		return InboundEvent{}, err
	}
	from, err := parsePlayerID(w.From)
	if err != nil {
		return InboundEvent{}, fmt.Errorf("%w: %v", ErrIncompleteEvent, err)
	}
	return decodeWire(w, from)
}

// DecodeClientFrame 解析客户端经 WebSocket 发来的消息，身份由连接决定（忽略报文里的 from）
func DecodeClientFrame(frame []byte, from PlayerID) (InboundEvent, error) {
	w, err := unmarshalWire(frame)
	if err != nil {
		return InboundEvent{}, err
	}
	if Kind(w.T) == KindJoin || Kind(w.T) == KindLeave {
		// Join/Leave 只能由传输层产生
		return InboundEvent{}, fmt.Errorf("%w: %q not accepted from clients", ErrUnknownKind, w.T)
	}
	return decodeWire(w, from)
}

func unmarshalWire(line []byte) (wireInbound, error) {
	var w wireInbound
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return w, fmt.Errorf("%w: not a JSON object", ErrMalformed)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return w, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw, ok := fields["t"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &w.T); err != nil {
			return w, fmt.Errorf("%w: kind: %v", ErrMalformed, err)
		}
	}
	w.From = fields["from"]
	w.Data = fields["data"]
	return w, nil
}

func decodeWire(w wireInbound, from PlayerID) (InboundEvent, error) {
	ev := InboundEvent{Kind: Kind(w.T), From: from}
	switch ev.Kind {
	case KindJoin, KindLeave:
		// 载荷不参与状态变化
	case KindInput:
		in, err := decodeInputData(w.Data)
		if err != nil {
			return InboundEvent{}, fmt.Errorf("%w: input data: %v", ErrMalformed, err)
		}
		ev.Input = in
	default:
		return InboundEvent{}, fmt.Errorf("%w: %q", ErrUnknownKind, w.T)
	}
	return ev, nil
}

// decodeInputData 只认精确的 "x"/"y" 键；缺失或 null 视为未提供
func decodeInputData(raw json.RawMessage) (InputData, error) {
	var in InputData
	if len(raw) == 0 || isNull(raw) {
		return in, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return in, err
	}
	for key, dst := range map[string]**float64{"x": &in.X, "y": &in.Y} {
		v, ok := fields[key]
		if !ok || isNull(v) {
			continue
		}
		var f float64
		if err := json.Unmarshal(v, &f); err != nil {
			return InputData{}, fmt.Errorf("%s: %v", key, err)
		}
		*dst = &f
	}
	return in, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// EncodeFrame 将出站事件序列化为一个 JSON 对象（不含换行）
func EncodeFrame(ev OutboundEvent) ([]byte, error) {
	out := wireOutbound{T: ev.Kind, To: ev.To}
	switch ev.Kind {
	case KindState:
		if ev.State == nil {
			return nil, fmt.Errorf("state event without payload")
		}
		out.Data = ev.State
	case KindLeave:
		if ev.Leave == nil {
			return nil, fmt.Errorf("leave event without payload")
		}
		out.Data = ev.Leave
	default:
		return nil, fmt.Errorf("cannot encode outbound kind %q", ev.Kind)
	}
	return json.Marshal(out)
}

// EncodeLine 序列化为恰好一行文本（以换行结尾）
func EncodeLine(ev OutboundEvent) ([]byte, error) {
	b, err := EncodeFrame(ev)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// LineWriter 逐行写出并立即 flush，下游路由依赖及时送达
type LineWriter struct {
	w *bufio.Writer
}

func NewLineWriter(w io.Writer) *LineWriter {
	return &LineWriter{w: bufio.NewWriter(w)}
}

// Deliver 写出一个出站事件
func (lw *LineWriter) Deliver(ev OutboundEvent) error {
	b, err := EncodeLine(ev)
	if err != nil {
		return err
	}
	if _, err := lw.w.Write(b); err != nil {
		return err
	}
	return lw.w.Flush()
}
