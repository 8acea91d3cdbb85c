package server

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PlayerID 表示玩家唯一标识，由传输层分配（每个连接稳定不变）
type PlayerID int64

// Position 玩家坐标（服务端权威状态），无边界裁剪
type Position struct {
	X float64
	Y float64
}

// DefaultSpawn 新加入玩家的出生点
var DefaultSpawn = Position{X: 150, Y: 150}

// MarshalJSON 以 [x,y] 数组形式输出坐标
func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

// UnmarshalJSON 解析 [x,y] 数组（测试与客户端回读用）
func (p *Position) UnmarshalJSON(b []byte) error {
	var xy [2]float64
	if err := json.Unmarshal(b, &xy); err != nil {
		return err
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// parsePlayerID 接受 JSON 整数，或内容为十进制整数的字符串
func parsePlayerID(raw json.RawMessage) (PlayerID, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return 0, fmt.Errorf("missing player id")
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, err
		}
		n, err := strconv.ParseInt(strings.TrimSpace(str), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("player id %q is not an integer", str)
		}
		return PlayerID(n), nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err != nil {
		return 0, fmt.Errorf("player id %s is not a number", s)
	}
	// 2.0 这类小数部分全为 0 的写法也视为整数；不经过 float64，避免精度丢失
	lit := num.String()
	if i := strings.IndexByte(lit, '.'); i > 0 && strings.Trim(lit[i+1:], "0") == "" {
		lit = lit[:i]
	}
	n, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("player id %s is not a 64-bit integer", s)
	}
	return PlayerID(n), nil
}
