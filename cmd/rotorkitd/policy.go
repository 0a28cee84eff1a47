package main

import (
	"fmt"

	"github.com/rotorkit/rotorkit/pkg/config/xconf"
	"github.com/rotorkit/rotorkit/pkg/observability/xrotate"
)

// rotationPolicy 镜像 xrotate.Option 表，从配置文件反序列化
type rotationPolicy struct {
	File       string `koanf:"file"`
	Size       string `koanf:"size"`
	Frequency  string `koanf:"frequency"`
	Extension  string `koanf:"extension"`
	Symlink    bool   `koanf:"symlink"`
	DateFormat string `koanf:"dateFormat"`
	Mkdir      bool   `koanf:"mkdir"`
	Limit      struct {
		Count               int  `koanf:"count"`
		RemoveOtherLogFiles bool `koanf:"removeOtherLogFiles"`
	} `koanf:"limit"`
	Log struct {
		Level  string `koanf:"level"`
		Format string `koanf:"format"`
	} `koanf:"log"`
}

// loadPolicy 从路径读取配置文件并反序列化为 rotationPolicy
func loadPolicy(path string) (rotationPolicy, xconf.Config, error) {
	var policy rotationPolicy
	cfg, err := xconf.New(path)
	if err != nil {
		return policy, nil, fmt.Errorf("loading config %q: %w", path, err)
	}
	policy, err = unmarshalPolicy(cfg, path)
	return policy, cfg, err
}

// reloadPolicy 重新反序列化已监视的配置（Watch 回调已先调用 cfg.Reload）
func reloadPolicy(cfg xconf.Config, path string) (rotationPolicy, error) {
	return unmarshalPolicy(cfg, path)
}

func unmarshalPolicy(cfg xconf.Config, path string) (rotationPolicy, error) {
	var policy rotationPolicy
	if err := cfg.Unmarshal("", &policy); err != nil {
		return policy, fmt.Errorf("parsing config %q: %w", path, err)
	}
	if policy.File == "" {
		return policy, fmt.Errorf("config %q: file is required", path)
	}
	return policy, nil
}

// options 把 rotationPolicy 转换为 xrotate.Option 列表
func (p rotationPolicy) options() []xrotate.Option {
	opts := []xrotate.Option{
		xrotate.WithSize(p.Size),
		xrotate.WithFrequency(p.Frequency),
		xrotate.WithExtension(p.Extension),
		xrotate.WithSymlink(p.Symlink),
		xrotate.WithDateFormat(p.DateFormat),
		xrotate.WithMkdir(p.Mkdir),
	}
	if p.Limit.Count > 0 {
		opts = append(opts,
			xrotate.WithLimit(p.Limit.Count),
			xrotate.WithRemoveOtherLogFiles(p.Limit.RemoveOtherLogFiles),
		)
	}
	return opts
}
