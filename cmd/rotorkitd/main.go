// rotorkitd 是一个独立守护进程，将标准输入中的按行日志记录写入
// 按大小/时间轮转的日志文件。
//
// 用法:
//
//	rotorkitd --config /etc/rotorkitd/policy.yaml < app.log
//
// 配置文件（YAML/JSON，由扩展名推断）描述一份轮转策略（file、size、
// frequency、limit.count 等，详见 pkg/observability/xrotate 的 Option
// 文档），并支持在运行中修改：文件发生变更时，守护进程会重建轮转引擎
// 并无缝切换，旧引擎被 flush 并关闭。
//
// 标准输入关闭（EOF）后守护进程继续运行，等待下一次配置重载或终止信号——
// 这样它也能作为长期存活的 FIFO/管道消费者使用。
//
// 退出码:
//
//	0: 正常退出（收到 SIGINT/SIGTERM/SIGHUP/SIGQUIT）
//	1: 运行期错误或命令行参数错误（构造轮转引擎失败、缺少 --config 等）
//	2: 配置文件无法加载或内容无效
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rotorkit/rotorkit/pkg/config/xconf"
	"github.com/rotorkit/rotorkit/pkg/lifecycle/xrun"
	"github.com/rotorkit/rotorkit/pkg/observability/xlog"
	"github.com/urfave/cli/v3"
)

// 版本信息，可通过 -ldflags 注入
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func createApp() *cli.Command {
	return &cli.Command{
		Name:    "rotorkitd",
		Usage:   "rotating file sink daemon for structured logs",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "rotation policy file (YAML or JSON)",
				Required: true,
			},
		},
		Action: runDaemon,
	}
}

func run() int {
	app := createApp()
	ctx := context.Background()

	if err := app.Run(ctx, os.Args); err != nil {
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(os.Stderr, "usage error: %v\n", usageErr)
			return 2
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func runDaemon(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	policy, cfg, err := loadPolicy(configPath)
	if err != nil {
		return &usageError{err}
	}

	logger, loggerCleanup, err := xlog.New().
		SetLevelString(policy.Log.Level).
		SetFormat(policy.Log.Format).
		Build()
	if err != nil {
		return fmt.Errorf("configuring diagnostics logger: %w", err)
	}
	defer func() { _ = loggerCleanup() }()

	sink, err := newLiveSink(policy)
	if err != nil {
		return err
	}

	watcher, err := xconf.Watch(cfg, func(watched xconf.Config, reloadErr error) {
		if reloadErr != nil {
			logger.Error(ctx, "config reload failed", xlog.Err(reloadErr))
			return
		}
		fresh, loadErr := reloadPolicy(watched, configPath)
		if loadErr != nil {
			logger.Error(ctx, "reloaded config is invalid, keeping previous policy", xlog.Err(loadErr))
			return
		}
		if replaceErr := sink.Replace(fresh); replaceErr != nil {
			logger.Error(ctx, "failed to apply reloaded rotation policy", xlog.Err(replaceErr))
			return
		}
		logger.Info(ctx, "rotation policy reloaded", xlog.Component("rotorkitd"))
	})
	if err != nil {
		logger.Warn(ctx, "config hot-reload disabled", xlog.Err(err))
	} else {
		watcher.StartAsync()
		defer func() { _ = watcher.Stop() }()
	}

	runErr := xrun.Run(ctx, func(ctx context.Context) error {
		return pumpStdin(ctx, sink, logger)
	}, func(ctx context.Context) error {
		<-ctx.Done()
		return sink.Close()
	})
	if errors.Is(runErr, xrun.ErrSignal) {
		return nil
	}
	return runErr
}

// pumpStdin 把标准输入中按行分隔的记录逐条写入 sink，直到 EOF 或
// context 被取消。
func pumpStdin(ctx context.Context, sink *liveSink, logger xlog.LoggerWithLevel) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line := scanner.Bytes()
		if _, err := sink.Write(append(line, '\n')); err != nil {
			logger.Error(ctx, "write to rotation sink failed", xlog.Err(err))
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading stdin: %w", err)
	}
	return nil
}
