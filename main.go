package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"

	"arenad/server"
)

// arenad 入口：stdio 模式读 stdin 写 stdout；ws 模式内置 WebSocket 传输层
func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

// run 返回进程退出码：输入流结束为 0，配置错误或输出失败为 1
func run(args []string, stdin io.Reader, stdout io.Writer) int {
	cfg, err := server.ParseConfig(flag.NewFlagSet("arenad", flag.ContinueOnError), args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}
	if err := server.InitLogger(cfg.LogOptions()); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		return 1
	}
	// stderr 不支持 fsync 时 Sync 会报错，忽略
	defer func() { _ = server.SyncLogger() }()

	server.Log.Info("game server started")

	metrics := server.NewMetrics()
	session := server.NewSession(server.WithSpawn(cfg.Spawn()), server.WithMetrics(metrics))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cfg.Mode {
	case server.ModeWS:
		err = runWS(ctx, cfg, session)
	default:
		err = runStdio(ctx, cfg, session, stdin, stdout)
	}
	server.Log.Infow("game server stopped", "metrics", metrics.Snapshot())
	if err != nil {
		server.Log.Errorf("exit: %v", err)
		return 1
	}
	return 0
}

// runStdio 单线程处理标准输入，输入流结束即正常退出
func runStdio(ctx context.Context, cfg server.Config, session *server.Session, stdin io.Reader, stdout io.Writer) error {
	var admin *http.Server
	if cfg.AdminAddr != "" {
		admin = &http.Server{Addr: cfg.AdminAddr, Handler: server.NewAdminMux(session.Metrics())}
		go func() {
			server.Log.Infof("admin listening on %s", cfg.AdminAddr)
			if err := admin.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				server.Log.Errorf("admin listen: %v", err)
			}
		}()
	}

	done := make(chan error, 1)
	go func() { done <- server.ServeStream(session, stdin, stdout) }()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		// 外部中断（Ctrl+C）
		server.Log.Info("Shutting down...")
	}
	return multierr.Append(err, shutdown(admin))
}

// runWS 启动 HTTP + WebSocket 服务，直到收到退出信号
func runWS(ctx context.Context, cfg server.Config, session *server.Session) error {
	hub := server.NewHub(session, cfg.InboxSize, cfg.SendQueue)
	hubDone := make(chan struct{})
	hubCtx, cancelHub := context.WithCancel(context.Background())
	go func() {
		hub.Run(hubCtx)
		close(hubDone)
	}()

	mux := server.NewAdminMux(session.Metrics())
	mux.HandleFunc("/ws", hub.HandleWS)
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	listenErr := make(chan error, 1)
	go func() {
		server.Log.Infof("listening on %s (ws endpoint: /ws)", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- fmt.Errorf("listen: %w", err)
		}
	}()

	var err error
	select {
	case err = <-listenErr:
	case <-ctx.Done():
		server.Log.Info("Shutting down...")
	}
	err = multierr.Append(err, shutdown(srv))
	cancelHub()
	<-hubDone
	return err
}

func shutdown(srv *http.Server) error {
	if srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
