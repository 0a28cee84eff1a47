package xrotate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/rotorkit/rotorkit/pkg/resilience/xretry"
)

const (
	// unlinkMaxAttempts Windows 上文件句柄可能短暂被持有（AV 扫描、刚关闭的 sink），
	// 需要有界重试而非立即放弃或无限等待。
	unlinkMaxAttempts = 50
	unlinkRetryDelay   = 100 * time.Millisecond
)

// retentionPolicy 对应 LimitPolicy（spec §3）
type retentionPolicy struct {
	count        int
	removeOther  bool
	base         string
	dateFormat   string
	ext          string
}

// removeOldFiles 实现 spec §4.5 的两种模式
//
// Mode A (removeOther=false，默认): created 追加 newFile 后，超出
// count+1（active + count）的最旧条目被删除，created 原地更新。
// Mode B (removeOther=true): 重新扫描目录，按 (fileTime, fileNumber)
// 升序排序，删除多出的最旧条目；不修改 created。
func removeOldFiles(ctx context.Context, policy retentionPolicy, created []string, newFile string) ([]string, error) {
	if policy.removeOther {
		return created, removeOldFilesModeB(ctx, policy)
	}
	return removeOldFilesModeA(ctx, policy, created, newFile)
}

func removeOldFilesModeA(ctx context.Context, policy retentionPolicy, created []string, newFile string) ([]string, error) {
	created = append(created, newFile)

	var firstErr error
	for len(created) > policy.count+1 {
		victim := created[0]
		created = created[1:]
		if err := unlinkWithRetry(ctx, victim); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return created, firstErr
}

func removeOldFilesModeB(ctx context.Context, policy retentionPolicy) error {
	dir := filepath.Dir(policy.base)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scanning %q for retention: %w", dir, errors.Join(ErrScan, err))
	}

	type candidate struct {
		path   string
		parsed identifiedFile
	}

	var candidates []candidate
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		parsed, ok := identifyLogFile(path, policy.base, policy.dateFormat, policy.ext)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate{path: path, parsed: parsed})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].parsed.fileTime != candidates[j].parsed.fileTime {
			return candidates[i].parsed.fileTime < candidates[j].parsed.fileTime
		}
		return candidates[i].parsed.fileNumber < candidates[j].parsed.fileNumber
	})

	excess := len(candidates) - policy.count
	if excess <= 0 {
		return nil
	}

	var firstErr error
	for _, c := range candidates[:excess] {
		if err := unlinkWithRetry(ctx, c.path); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// unlinkRetryer 默认的删除重试执行器: 50 次尝试，固定 100ms 间隔
var unlinkRetryer = xretry.NewRetryer(
	xretry.WithRetryPolicy(xretry.NewFixedRetry(unlinkMaxAttempts)),
	xretry.WithBackoffPolicy(xretry.NewFixedBackoff(unlinkRetryDelay)),
)

// unlinkWithRetry 删除文件，失败后按固定间隔重试
//
// ENOENT（文件已不存在）视为成功——目标状态已经达成。
// 重试耗尽后返回 ErrUnlink。
func unlinkWithRetry(ctx context.Context, path string) error {
	err := unlinkRetryer.Do(ctx, func(ctx context.Context) error {
		removeErr := os.Remove(path)
		if removeErr == nil || os.IsNotExist(removeErr) {
			return nil
		}
		return removeErr
	})
	if err != nil {
		return fmt.Errorf("removing %q: %w", path, errors.Join(ErrUnlink, err))
	}
	return nil
}
