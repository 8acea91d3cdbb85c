package server

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// ServeStream 从 r 逐行读取入站事件，交由会话处理，并把出站事件逐行写到 w。
// 输入流结束（EOF）即正常返回 nil；只有读写失败才返回错误。
func ServeStream(s *Session, r io.Reader, w io.Writer) error {
	br := bufio.NewReader(r)
	out := NewLineWriter(w)
	for {
		// ReadBytes 不限制行长，避免超长行卡死循环
		line, readErr := br.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			if err := handleLine(s, out, line); err != nil {
				return err
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return fmt.Errorf("read input: %w", readErr)
		}
	}
}

func handleLine(s *Session, out *LineWriter, line []byte) error {
	s.metrics.IncLinesRead()
	ev, err := DecodeLine(line)
	if err != nil {
		Log.Debugw("skip line", "err", err)
		s.Skip(err)
		return nil
	}
	for _, o := range s.Apply(ev) {
		if err := out.Deliver(o); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
	return nil
}
