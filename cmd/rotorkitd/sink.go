package main

import (
	"fmt"
	"sync"

	"github.com/rotorkit/rotorkit/pkg/observability/xrotate"
)

// liveSink 包装一个可在配置热重载时原地替换的 xrotate.Engine
//
// 热重载重建整个 Engine 而不是就地改选项：xrotate.Engine 的构造序列
// （扫描续写序号、恢复已有大小、安排首次轮转）只在 New 中执行一次，
// 重建是让新策略完整生效的最简单方式。旧 Engine 在替换后被关闭。
type liveSink struct {
	mu     sync.RWMutex
	engine *xrotate.Engine
}

func newLiveSink(policy rotationPolicy) (*liveSink, error) {
	engine, err := xrotate.New(policy.File, policy.options()...)
	if err != nil {
		return nil, fmt.Errorf("constructing rotation engine: %w", err)
	}
	return &liveSink{engine: engine}, nil
}

func (s *liveSink) Write(p []byte) (int, error) {
	s.mu.RLock()
	engine := s.engine
	s.mu.RUnlock()
	return engine.Write(p)
}

// Replace 换入一个新构造的引擎并关闭旧引擎
func (s *liveSink) Replace(policy rotationPolicy) error {
	engine, err := xrotate.New(policy.File, policy.options()...)
	if err != nil {
		return fmt.Errorf("constructing rotation engine: %w", err)
	}

	s.mu.Lock()
	old := s.engine
	s.engine = engine
	s.mu.Unlock()

	return old.Close()
}

func (s *liveSink) Close() error {
	s.mu.RLock()
	engine := s.engine
	s.mu.RUnlock()
	return engine.Close()
}
