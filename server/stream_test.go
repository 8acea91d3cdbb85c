package server

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func serve(t *testing.T, s *Session, input string) []string {
	t.Helper()
	var out bytes.Buffer
	if err := ServeStream(s, strings.NewReader(input), &out); err != nil {
		t.Fatalf("serve: %v", err)
	}
	if out.Len() == 0 {
		return nil
	}
	return strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
}

func TestServeStreamEndToEnd(t *testing.T) {
	input := strings.Join([]string{
		`{"t":"Join","from":1}`,
		`{"t":"Join","from":2}`,
		`{"t":"Input","from":1,"data":{"x":9,"y":9}}`,
		`{"t":"Leave","from":2}`,
	}, "\n") + "\n"

	got := serve(t, NewSession(), input)
	want := []string{
		`{"t":"State","data":{"players":{"1":[150,150]}},"to":1}`,
		`{"t":"State","data":{"players":{"1":[150,150],"2":[150,150]}},"to":2}`,
		`{"t":"State","data":{"players":{"1":[9,9],"2":[150,150]}},"to":null}`,
		`{"t":"Leave","data":{"leaver":2},"to":null}`,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(got), len(want), strings.Join(got, "\n"))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestServeStreamSkipsMalformedAndContinues(t *testing.T) {
	s := NewSession()
	input := strings.Join([]string{
		`not json`,
		`{"t":"Input"}`,
		``,
		`   `,
		`{"t":"Teleport","from":1}`,
		`{"t":"Join","from":1}`,
	}, "\n")

	got := serve(t, s, input)
	if len(got) != 1 || got[0] != `{"t":"State","data":{"players":{"1":[150,150]}},"to":1}` {
		t.Fatalf("unexpected output %q", got)
	}
	snap := s.Metrics().Snapshot()
	if snap["malformed"] != int64(1) || snap["incomplete"] != int64(1) || snap["unknown_kind"] != int64(1) {
		t.Fatalf("unexpected rejection counters %+v", snap)
	}
	if snap["lines_read"] != int64(4) {
		t.Fatalf("lines_read = %v, want 4 (blank lines not counted)", snap["lines_read"])
	}
}

func TestServeStreamMalformedIdempotent(t *testing.T) {
	for _, n := range []int{1, 5, 50} {
		s := NewSession()
		s.Apply(join(1))
		got := serve(t, s, strings.Repeat("{\"t\":\"Input\"}\n", n))
		if got != nil {
			t.Fatalf("n=%d: expected no output, got %q", n, got)
		}
		if p, _ := s.Position(1); s.Len() != 1 || p != DefaultSpawn {
			t.Fatalf("n=%d: registry changed", n)
		}
	}
}

func TestServeStreamFinalLineWithoutNewline(t *testing.T) {
	got := serve(t, NewSession(), `{"t":"Leave","from":3}`)
	if len(got) != 1 || got[0] != `{"t":"Leave","data":{"leaver":3},"to":null}` {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestServeStreamLongLine(t *testing.T) {
	// 超过 bufio.Scanner 默认 64KB 上限的行也能处理
	pad := strings.Repeat(" ", 200*1024)
	got := serve(t, NewSession(), `{"t":"Input","from":1,"data":{"x":1,"y":2}`+pad+"}\n"+`{"t":"Join","from":2}`+"\n")
	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(got))
	}
	if got[0] != `{"t":"State","data":{"players":{"1":[1,2]}},"to":null}` {
		t.Fatalf("unexpected first line %s", got[0])
	}
}

func TestServeStreamEmptyInput(t *testing.T) {
	if got := serve(t, NewSession(), ""); got != nil {
		t.Fatalf("expected no output, got %q", got)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestServeStreamReportsWriteFailure(t *testing.T) {
	err := ServeStream(NewSession(), strings.NewReader(`{"t":"Join","from":1}`+"\n"), failingWriter{})
	if err == nil || !strings.Contains(err.Error(), "write output") {
		t.Fatalf("expected write error, got %v", err)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device gone") }

func TestServeStreamReportsReadFailure(t *testing.T) {
	err := ServeStream(NewSession(), failingReader{}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "read input") {
		t.Fatalf("expected read error, got %v", err)
	}
}
