package xconf

import "errors"

// 配置加载和解析相关错误。
var (
	// ErrEmptyPath 表示配置文件路径为空。
	ErrEmptyPath = errors.New("xconf: empty config path")

	// ErrUnsupportedFormat 表示不支持的配置格式。
	ErrUnsupportedFormat = errors.New("xconf: unsupported config format")

	// ErrLoadFailed 表示配置加载失败。
	ErrLoadFailed = errors.New("xconf: failed to load config")

	// ErrParseFailed 表示配置解析失败。
	ErrParseFailed = errors.New("xconf: failed to parse config")

	// ErrUnmarshalFailed 表示配置反序列化失败。
	ErrUnmarshalFailed = errors.New("xconf: failed to unmarshal config")

	// ErrNotFromFile 表示配置并非从文件创建，不支持监视。
	ErrNotFromFile = errors.New("xconf: config not created from file")

	// ErrNilCallback 表示传入的回调函数为 nil。
	ErrNilCallback = errors.New("xconf: callback must not be nil")

	// ErrInvalidDebounce 表示防抖时间参数无效（必须为正数）。
	ErrInvalidDebounce = errors.New("xconf: debounce must be positive")

	// ErrWatchFailed 表示监视操作失败。
	ErrWatchFailed = errors.New("xconf: watch failed")
)
