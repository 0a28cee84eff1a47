package xrotate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ensureSymlink 维护 symlinkName 指向 activeFile 的相对符号链接
//
// 幂等: 若链接已指向正确目标则直接返回。若路径被其他内容占用（非我们
// 管理的符号链接，或是一个普通文件/目录），先删除再重建，镜像日志
// 轮转时"总是指向当前活动文件"的预期行为。
//
// 权限不足时只记录为可容忍的情况（调用方决定是否上报），不是硬失败——
// 很多部署环境下进程没有创建符号链接的权限，但轮转本身必须继续工作。
func ensureSymlink(activeFile, symlinkName string) error {
	dir := filepath.Dir(symlinkName)
	target, err := filepath.Rel(dir, activeFile)
	if err != nil {
		target = activeFile
	}

	existing, lstatErr := os.Lstat(symlinkName)
	if lstatErr == nil {
		if existing.Mode()&os.ModeSymlink != 0 {
			current, readErr := os.Readlink(symlinkName)
			if readErr == nil && current == target {
				return nil
			}
		}
		if removeErr := os.Remove(symlinkName); removeErr != nil {
			return fmt.Errorf("replacing existing symlink %q: %w", symlinkName, removeErr)
		}
	} else if !os.IsNotExist(lstatErr) {
		return fmt.Errorf("inspecting symlink %q: %w", symlinkName, lstatErr)
	}

	if err := os.Symlink(target, symlinkName); err != nil {
		if errors.Is(err, os.ErrPermission) {
			return fmt.Errorf("creating symlink %q (permission denied, continuing without it): %w", symlinkName, err)
		}
		return fmt.Errorf("creating symlink %q: %w", symlinkName, err)
	}
	return nil
}
