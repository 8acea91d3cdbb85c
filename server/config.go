package server

import (
	"flag"
	"fmt"
	"strconv"

	"github.com/caarlos0/env/v11"
)

const (
	ModeStdio = "stdio"
	ModeWS    = "ws"
)

// Config 进程配置：先读环境变量，再由命令行参数覆盖
type Config struct {
	Mode      string  `env:"ARENAD_MODE" envDefault:"stdio"`
	Addr      string  `env:"ARENAD_ADDR" envDefault:":8080"`
	AdminAddr string  `env:"ARENAD_ADMIN_ADDR"`
	LogFile   string  `env:"ARENAD_LOG_FILE"`
	JSONLog   bool    `env:"ARENAD_LOG_JSON"`
	Verbosity int     `env:"ARENAD_VERBOSITY"`
	SpawnX    float64 `env:"ARENAD_SPAWN_X" envDefault:"150"`
	SpawnY    float64 `env:"ARENAD_SPAWN_Y" envDefault:"150"`
	InboxSize int     `env:"ARENAD_INBOX_SIZE" envDefault:"256"`
	SendQueue int     `env:"ARENAD_SEND_QUEUE" envDefault:"64"`
}

// ParseConfig 解析环境变量与命令行参数
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	fs.StringVar(&cfg.Mode, "mode", cfg.Mode, "transport mode: stdio (JSON lines on stdin/stdout) or ws (built-in websocket)")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "websocket listen address, e.g. :8080")
	fs.StringVar(&cfg.AdminAddr, "admin-addr", cfg.AdminAddr, "metrics/health listen address in stdio mode (empty = disabled)")
	fs.StringVar(&cfg.LogFile, "logfile", cfg.LogFile, "also write logs to this rolling file")
	fs.BoolVar(&cfg.JSONLog, "json", cfg.JSONLog, "log JSON")
	fs.Var((*countFlag)(&cfg.Verbosity), "v", "increase level of verbosity (repeatable)")
	fs.Float64Var(&cfg.SpawnX, "spawn-x", cfg.SpawnX, "spawn x coordinate")
	fs.Float64Var(&cfg.SpawnY, "spawn-y", cfg.SpawnY, "spawn y coordinate")
	fs.IntVar(&cfg.InboxSize, "inbox", cfg.InboxSize, "bounded event queue between transport and session")
	fs.IntVar(&cfg.SendQueue, "send-queue", cfg.SendQueue, "per-connection outbound queue length")
	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("parse flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate 检查取值范围
func (c Config) Validate() error {
	switch c.Mode {
	case ModeStdio, ModeWS:
	default:
		return fmt.Errorf("unknown mode %q (want %s or %s)", c.Mode, ModeStdio, ModeWS)
	}
	if c.InboxSize <= 0 {
		return fmt.Errorf("inbox size must be > 0, got %d", c.InboxSize)
	}
	if c.SendQueue <= 0 {
		return fmt.Errorf("send queue must be > 0, got %d", c.SendQueue)
	}
	return nil
}

// Spawn 配置的出生点
func (c Config) Spawn() Position {
	return Position{X: c.SpawnX, Y: c.SpawnY}
}

// LogOptions 日志相关配置
func (c Config) LogOptions() LogOptions {
	return LogOptions{File: c.LogFile, JSON: c.JSONLog, Verbosity: c.Verbosity}
}

// countFlag 可重复的 -v 计数
type countFlag int

func (c *countFlag) String() string   { return strconv.Itoa(int(*c)) }
func (c *countFlag) IsBoolFlag() bool { return true }

func (c *countFlag) Set(s string) error {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	if v {
		*c++
	}
	return nil
}
