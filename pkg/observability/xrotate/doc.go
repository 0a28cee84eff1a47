// Package xrotate 提供按时间或大小轮转的日志文件 sink。
//
// 核心类型是 Engine：接受字节流写入（实现 io.Writer），在达到大小
// 阈值或时间边界时关闭当前文件、按命名规则打开新文件，并负责续写、
// 保留策略与符号链接维护。
//
// # 核心特性
//
//   - 大小轮转：写入达到阈值字节数时触发，阈值支持 "<n>[b|k|m|g]" 字符串
//   - 时间轮转：daily / hourly / 固定毫秒间隔，daily 和 hourly 使用
//     日历加法而非固定偏移，正确处理夏令时切换
//   - 续写：进程重启后扫描目录，从已有文件的最大序号继续，
//     避免覆盖或跳号
//   - 保留策略：限制保留文件数，可选清理目录中所有匹配命名规则的文件
//     （而不仅是本进程创建的文件）
//   - 符号链接：可选维护指向活动文件的 current.log 软链接
//
// # 文件命名
//
// 文件名格式为 "{base}[.{date}].{number}[.{ext}]"，date 段仅在配置了
// WithDateFormat 时出现。base 与 ext 通过 sanitizeFile 从调用方传入的
// 路径推导；详见该函数的文档。
//
// # 并发模型
//
// Engine 的所有可变状态由一把互斥锁保护；Write 触发的大小轮转与定时器
// 触发的时间轮转彼此互斥，不会交叉执行。定时器在 Close 后停止，不会
// 阻止进程退出。
//
// # 错误处理
//
// 构造期的配置错误（非法 size/frequency/dateFormat、空文件名等）
// 同步返回，调用方应视为致命错误。运行期错误（flush/reopen 失败、
// 删除旧文件失败、符号链接创建失败）通过 WithOnError 注册的回调上报，
// 不会中断引擎——flush 失败时继续写旧文件，reopen 失败时同样保持旧文件，
// 下一次边界触发时会重新尝试轮转。
package xrotate
