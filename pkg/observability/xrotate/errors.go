package xrotate

import "errors"

// 配置校验错误（ConfigError 分类，构造期同步返回）
var (
	// ErrEmptyFilename file 选项为空
	ErrEmptyFilename = errors.New("xrotate: file is required")

	// ErrInvalidSize size 选项无法解析
	ErrInvalidSize = errors.New("xrotate: invalid size")

	// ErrInvalidFrequency frequency 选项无法解析
	ErrInvalidFrequency = errors.New("xrotate: invalid frequency")

	// ErrInvalidDateFormat dateFormat 包含非法字符
	ErrInvalidDateFormat = errors.New("xrotate: invalid dateFormat")

	// ErrInvalidFileName 派生的文件名包含非法字符
	ErrInvalidFileName = errors.New("xrotate: invalid file name")

	// ErrInvalidLimit limit.count 为负数（0 表示不启用保留策略）
	ErrInvalidLimit = errors.New("xrotate: invalid limit.count")

	// ErrClosed 引擎已关闭
	ErrClosed = errors.New("xrotate: engine is closed")
)

// IO / 运行期错误分类（spec §7：IoOpenError/IoFlushError/IoReopenError/UnlinkError/ScanError）
var (
	// ErrOpen 初始文件无法创建（如缺少父目录且未设置 mkdir）
	ErrOpen = errors.New("xrotate: cannot open log file")

	// ErrFlush flush 失败，引擎保留旧文件并在下个边界重试
	ErrFlush = errors.New("xrotate: flush failed")

	// ErrReopen reopen 失败，引擎保留旧文件并在下个边界重试
	ErrReopen = errors.New("xrotate: reopen failed")

	// ErrUnlink 重试耗尽后删除仍失败
	ErrUnlink = errors.New("xrotate: unlink failed")

	// ErrScan 目录扫描失败（仅在 retention 阶段上浮；resumption 阶段被吞掉）
	ErrScan = errors.New("xrotate: directory scan failed")
)
