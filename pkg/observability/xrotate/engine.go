package xrotate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotorkit/rotorkit/pkg/util/xfile"
)

const (
	defaultFileMode = 0o644
	symlinkBaseName = "current.log"
)

// Config 收敛全部构造选项，由 Option 函数逐个填充
type Config struct {
	size                string
	frequency           string
	extension           string
	symlink             bool
	limitCount          int
	removeOtherLogFiles bool
	dateFormat          string
	mkdir               bool
	onError             func(error)
	onCleanup           func(error)
	now                 func() time.Time
}

// Option 是构造 Engine 时的函数式配置项
type Option func(*Config)

// WithSize 设置大小轮转阈值，格式 "<n>[b|k|m|g]"，纯数字按 MB 解释
func WithSize(size string) Option {
	return func(c *Config) { c.size = size }
}

// WithFrequency 设置时间轮转策略: "daily"、"hourly" 或毫秒数的字符串形式
func WithFrequency(frequency string) Option {
	return func(c *Config) { c.frequency = frequency }
}

// WithExtension 显式指定文件扩展名，覆盖从 file 推断出的扩展名
func WithExtension(ext string) Option {
	return func(c *Config) { c.extension = ext }
}

// WithSymlink 启用后在 base 所在目录维护指向活动文件的 current.log 链接
func WithSymlink(enable bool) Option {
	return func(c *Config) { c.symlink = enable }
}

// WithLimit 设置保留文件数量（不含当前活动文件）；count 为 0 表示不启用，
// 负数会使 New 返回 ErrInvalidLimit
func WithLimit(count int) Option {
	return func(c *Config) { c.limitCount = count }
}

// WithRemoveOtherLogFiles 启用后，保留策略会清理目录中所有匹配命名规则的
// 文件，而不仅仅是本进程创建的文件
func WithRemoveOtherLogFiles(enable bool) Option {
	return func(c *Config) { c.removeOtherLogFiles = enable }
}

// WithDateFormat 设置文件名中日期段的 date-fns 风格格式
func WithDateFormat(pattern string) Option {
	return func(c *Config) { c.dateFormat = pattern }
}

// WithMkdir 启用后，构造时会递归创建 file 所在的父目录
func WithMkdir(enable bool) Option {
	return func(c *Config) { c.mkdir = enable }
}

// WithOnError 注册内部错误回调（flush/reopen/unlink/symlink 失败时触发）
//
// 回调在持有引擎锁期间同步调用，并做了 panic 隔离——回调自身 panic
// 不会波及写入路径。需要复杂处理请在回调内转发到 channel。
func WithOnError(fn func(error)) Option {
	return func(c *Config) { c.onError = fn }
}

// WithOnCleanup 注册保留策略执行完成后的回调，对应 spec 里 sink 的
// cleanup-complete 事件。err 非 nil 时表示本轮 removeOldFiles 失败
// （回调同时也会经由 onError 收到同一个错误）；err 为 nil 表示成功，
// 即便本轮没有文件被删除。回调同样在持有引擎锁期间同步调用并做了
// panic 隔离。
func WithOnCleanup(fn func(error)) Option {
	return func(c *Config) { c.onCleanup = fn }
}

// WithClock 注入时钟函数，供测试固定特定时刻（DST 边界等）使用
func WithClock(now func() time.Time) Option {
	return func(c *Config) {
		if now != nil {
			c.now = now
		}
	}
}

// Engine 是轮转文件 sink 的核心：决定当前活动文件、触发轮转、
// 维护符号链接与保留策略
//
// 并发模型：所有可变状态由 mu 保护；Write 与定时器触发的轮转互斥，
// 与 spec 描述的单线程事件循环等价，但用互斥量而非协作式调度实现。
type Engine struct {
	mu sync.Mutex

	base       string
	ext        string
	dateFormat string

	sizeEnabled bool
	maxBytes    int64

	freq FrequencySpec

	symlinkEnabled bool
	limitEnabled   bool
	limit          retentionPolicy

	mkdir     bool
	onError   func(error)
	onCleanup func(error)
	now       func() time.Time

	number           int
	date             string
	fileName         string
	currentSize      int64
	createdFileNames []string
	file             *os.File
	rollTimer        *time.Timer
	isRolling        bool
	closed           bool
}

// New 构造一个轮转引擎，立即打开（或续写）初始日志文件
//
// 构造步骤遵循固定顺序：校验选项 → 解析频率/大小 → 拆分 (base,ext) →
// 扫描目录续写序号 → 组装文件名 → 打开文件、读取已有大小 → 可选符号链接 →
// 若配置了时间策略，安排首次轮转定时器。
func New(file string, opts ...Option) (*Engine, error) {
	cfg := &Config{now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}

	if file == "" {
		return nil, ErrEmptyFilename
	}
	if cfg.dateFormat != "" {
		if err := validateDateFormat(cfg.dateFormat); err != nil {
			return nil, err
		}
	}
	if cfg.limitCount < 0 {
		return nil, fmt.Errorf("limit.count must be >= 0, got %d: %w", cfg.limitCount, ErrInvalidLimit)
	}

	now := cfg.now()
	freq, err := ParseFrequency(cfg.frequency, now)
	if err != nil {
		return nil, err
	}

	maxBytes, sizeEnabled, err := ParseSize(cfg.size)
	if err != nil {
		return nil, err
	}

	base, ext, err := sanitizeFile(file, cfg.extension)
	if err != nil {
		return nil, err
	}
	if err := validateFileName(base); err != nil {
		return nil, err
	}

	var date string
	if freq.Kind != FrequencyNone && cfg.dateFormat != "" {
		date = formatDatePattern(cfg.dateFormat, freq.Start, time.Local)
	}

	var sinceMs int64
	if freq.Kind != FrequencyNone {
		sinceMs = freq.Start
	}
	number := DetectLastNumber(base, sinceMs, ext)
	fileName := buildFileName(base, date, number, ext)
	if err := validateFileName(fileName); err != nil {
		return nil, err
	}

	if cfg.mkdir {
		if err := xfile.EnsureDir(fileName); err != nil {
			return nil, fmt.Errorf("creating directory for %q: %w", fileName, errors.Join(ErrOpen, err))
		}
	}

	var currentSize int64
	if info, statErr := os.Stat(fileName); statErr == nil {
		currentSize = info.Size()
	}

	f, err := os.OpenFile(fileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, defaultFileMode)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", fileName, errors.Join(ErrOpen, err))
	}

	e := &Engine{
		base:        base,
		ext:         ext,
		dateFormat:  cfg.dateFormat,
		sizeEnabled: sizeEnabled,
		maxBytes:    maxBytes,
		freq:        freq,
		symlinkEnabled: cfg.symlink,
		limitEnabled: cfg.limitCount > 0,
		limit: retentionPolicy{
			count:       cfg.limitCount,
			removeOther: cfg.removeOtherLogFiles,
			base:        base,
			dateFormat:  cfg.dateFormat,
			ext:         ext,
		},
		mkdir:            cfg.mkdir,
		onError:          cfg.onError,
		onCleanup:        cfg.onCleanup,
		now:              cfg.now,
		number:           number,
		date:             date,
		fileName:         fileName,
		currentSize:      currentSize,
		file:             f,
		createdFileNames: []string{fileName},
	}

	if cfg.symlink {
		if err := ensureSymlink(fileName, e.symlinkPath()); err != nil {
			e.reportError(err)
		}
	}

	if freq.Kind != FrequencyNone {
		e.mu.Lock()
		e.scheduleRollLocked()
		e.mu.Unlock()
	}

	return e, nil
}

// Write 实现 io.Writer；达到大小阈值时触发轮转
//
// 写入与大小核算是一体的：currentSize 只通过本次成功写入的字节数更新，
// 不读取文件系统，保证准确性与无竞态。
func (e *Engine) Write(p []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return 0, ErrClosed
	}

	n, err := e.file.Write(p)
	if err != nil {
		return n, fmt.Errorf("writing to %q: %w", e.fileName, errors.Join(ErrOpen, err))
	}
	e.currentSize += int64(n)

	if e.sizeEnabled && e.currentSize >= e.maxBytes && !e.isRolling {
		e.isRolling = true
		e.number++
		newFileName := buildFileName(e.base, e.date, e.number, e.ext)
		e.currentSize = 0
		e.rollLocked(newFileName)
		e.isRolling = false
	}

	return n, nil
}

// Flush 将缓冲的数据落盘，不触发轮转
func (e *Engine) Flush() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	return e.file.Sync()
}

// Close 停止定时器、落盘并关闭当前文件；幂等
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	if e.rollTimer != nil {
		e.rollTimer.Stop()
	}

	syncErr := e.file.Sync()
	closeErr := e.file.Close()
	if syncErr != nil {
		return fmt.Errorf("closing %q: %w", e.fileName, errors.Join(ErrFlush, syncErr))
	}
	if closeErr != nil {
		return fmt.Errorf("closing %q: %w", e.fileName, closeErr)
	}
	return nil
}

// scheduleRollLocked 安排下一次按时间边界触发的轮转；调用方必须持有 mu
func (e *Engine) scheduleRollLocked() {
	if e.rollTimer != nil {
		e.rollTimer.Stop()
	}
	if e.freq.Kind == FrequencyNone {
		return
	}
	nowMs := e.now().UnixMilli()
	delay := time.Duration(e.freq.Next-nowMs) * time.Millisecond
	if delay < 0 {
		delay = 0
	}
	e.rollTimer = time.AfterFunc(delay, e.onTimerFire)
}

// onTimerFire 是定时器回调：计算新周期、轮转、重新安排下一次边界
func (e *Engine) onTimerFire() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}

	prevDate := e.date
	if e.dateFormat != "" {
		e.date = formatDatePattern(e.dateFormat, e.freq.Next, time.Local)
	}
	// 新周期的日期段与上一周期不同时，序号重新从 1 计数，
	// 因为日期段本身已经足以区分不同周期的文件。
	if e.dateFormat != "" && e.date != prevDate {
		e.number = 0
	}
	e.number++
	newFileName := buildFileName(e.base, e.date, e.number, e.ext)

	e.rollLocked(newFileName)

	e.freq = e.freq.GetNext(e.now())
	e.scheduleRollLocked()
}

// rollLocked 执行 flush → reopen → symlink → retention 的轮转序列
//
// 调用方必须持有 mu。flush 失败时不 reopen，保持写入旧文件，
// 下一次边界会重试；reopen 失败时同样保持旧文件打开。
func (e *Engine) rollLocked(newFileName string) {
	if e.closed {
		return
	}

	if err := e.file.Sync(); err != nil {
		e.reportError(fmt.Errorf("flushing %q: %w", e.fileName, errors.Join(ErrFlush, err)))
		return
	}
	if e.closed {
		return
	}

	newFile, err := os.OpenFile(newFileName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, defaultFileMode)
	if err != nil {
		e.reportError(fmt.Errorf("reopening %q: %w", newFileName, errors.Join(ErrReopen, err)))
		return
	}

	oldFile := e.file
	_ = oldFile.Close()
	e.file = newFile
	e.fileName = newFileName

	if e.symlinkEnabled {
		if err := ensureSymlink(newFileName, e.symlinkPath()); err != nil {
			e.reportError(err)
		}
	}

	// 保留策略与 flush/reopen 同步执行，持有 e.mu：worst-case 下
	// unlinkWithRetry 穷尽重试（50×100ms ≈ 5s）会阻塞这期间的所有
	// Write 调用。spec 把 remove_old_files 描述为异步启动、完成后
	// 发出 cleanup-complete 事件；这里选择同步执行是因为
	// createdFileNames 的读写必须和 Write/下一次轮转严格互斥——
	// 拆成独立 goroutine 需要再引入一层同步原语去保护这份状态，
	// 复杂度超过了收益。cleanup-complete 改为 onCleanup 回调，
	// 在保留策略跑完后（无论成败）同步触发。
	if e.limitEnabled {
		created, retErr := removeOldFiles(context.Background(), e.limit, e.createdFileNames, newFileName)
		e.createdFileNames = created
		if retErr != nil {
			e.reportError(retErr)
		}
		e.reportCleanup(retErr)
	}
}

// symlinkPath 返回活动文件所在目录下固定的符号链接路径
func (e *Engine) symlinkPath() string {
	return filepath.Join(filepath.Dir(e.base), symlinkBaseName)
}

// reportError 转发错误给调用方注册的回调，并隔离回调自身的 panic
func (e *Engine) reportError(err error) {
	if e.onError == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	e.onError(err)
}

// reportCleanup 转发 cleanup-complete（或失败）给调用方注册的回调，
// 并隔离回调自身的 panic
func (e *Engine) reportCleanup(err error) {
	if e.onCleanup == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	e.onCleanup(err)
}

var _ io.WriteCloser = (*Engine)(nil)
