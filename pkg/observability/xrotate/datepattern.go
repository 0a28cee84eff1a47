package xrotate

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// dateTokenOrder 列出已识别的 date-fns 风格 token，按长度降序排列，
// 保证贪心匹配时更长的 token（如 "yyyy"）优先于其前缀（"yy"）被识别。
var dateTokenOrder = []string{
	"yyyy", "yy",
	"MM", "M",
	"dd", "d",
	"HH", "H",
	"mm",
	"ss",
	"SSS",
	"S",
}

// dateToken 是 pattern 切分后的一段：要么是已识别的 token，要么是原样
// 保留的字面量分隔符（如 "-"、":"、"."）
type dateToken struct {
	literal bool
	text    string
}

// tokenizeDatePattern 将 pattern 切分为 token/字面量序列
//
// 不依赖 Go 的 time.Format/time.Parse 参考时间模板：date-fns 风格的
// 分隔符是任意的（spec 用例里用的是 "-"），而 Go 的小数秒占位符只有
// 紧跟在字面量 "." 或 "," 之后才会被识别，直接拼出的 layout 字符串
// 在这种情况下会把 "S"/"SSS" 当成字面量输出。格式化与解析都改为
// 逐 token 手工处理，从根本上绕开这个限制。
func tokenizeDatePattern(pattern string) []dateToken {
	var tokens []dateToken
	i := 0
	for i < len(pattern) {
		tok, ok := matchTokenAt(pattern, i)
		if ok {
			tokens = append(tokens, dateToken{text: tok})
			i += len(tok)
			continue
		}
		j := i + 1
		for j < len(pattern) {
			if _, ok := matchTokenAt(pattern, j); ok {
				break
			}
			j++
		}
		tokens = append(tokens, dateToken{literal: true, text: pattern[i:j]})
		i = j
	}
	return tokens
}

func matchTokenAt(pattern string, pos int) (string, bool) {
	for _, tok := range dateTokenOrder {
		if strings.HasPrefix(pattern[pos:], tok) {
			return tok, true
		}
	}
	return "", false
}

// formatDatePattern 使用 dateFormat 格式化 epoch-ms 对应的本地时间
func formatDatePattern(pattern string, epochMs int64, loc *time.Location) string {
	t := time.UnixMilli(epochMs).In(loc)
	var b strings.Builder
	for _, tok := range tokenizeDatePattern(pattern) {
		if tok.literal {
			b.WriteString(tok.text)
			continue
		}
		b.WriteString(formatToken(tok.text, t))
	}
	return b.String()
}

func formatToken(tok string, t time.Time) string {
	switch tok {
	case "yyyy":
		return fmt.Sprintf("%04d", t.Year())
	case "yy":
		return fmt.Sprintf("%02d", t.Year()%100)
	case "MM":
		return fmt.Sprintf("%02d", int(t.Month()))
	case "M":
		return strconv.Itoa(int(t.Month()))
	case "dd":
		return fmt.Sprintf("%02d", t.Day())
	case "d":
		return strconv.Itoa(t.Day())
	case "HH":
		return fmt.Sprintf("%02d", t.Hour())
	case "H":
		return strconv.Itoa(t.Hour())
	case "mm":
		return fmt.Sprintf("%02d", t.Minute())
	case "ss":
		return fmt.Sprintf("%02d", t.Second())
	case "SSS":
		return fmt.Sprintf("%03d", t.Nanosecond()/1_000_000)
	case "S":
		return strconv.Itoa(t.Nanosecond() / 100_000_000)
	default:
		return ""
	}
}

// dateFields 累积 parseDatePattern 解析出的各个分量；未出现在 pattern
// 中的分量保留零值/默认值
type dateFields struct {
	year         int
	yy           int
	hasYear      bool
	hasYY        bool
	month        int
	day          int
	hour, minute int
	second       int
	millis       int
}

// parseDatePattern 按 dateFormat 解析字符串为 epoch-ms（本地时区）
//
// 对固定宽度 token（yyyy/yy/MM/dd/HH/mm/ss/SSS/S）直接按宽度切片；
// 非补零的单字母 token（M/d/H）宽度可变（1 或 2 位），用回溯法从最长
// 宽度开始尝试，失败时收窄——pattern 通常很短，回溯开销可忽略。
func parseDatePattern(pattern, value string) (int64, error) {
	tokens := tokenizeDatePattern(pattern)
	f := &dateFields{month: 1, day: 1}
	if !matchDateTokens(tokens, 0, value, 0, f) {
		return 0, fmt.Errorf("%q does not match dateFormat %q: %w", value, pattern, ErrInvalidDateFormat)
	}

	year := 1970
	switch {
	case f.hasYear:
		year = f.year
	case f.hasYY:
		year = 2000 + f.yy
	}

	t := time.Date(year, time.Month(f.month), f.day, f.hour, f.minute, f.second, f.millis*1_000_000, time.Local)
	return t.UnixMilli(), nil
}

func matchDateTokens(tokens []dateToken, ti int, value string, vi int, f *dateFields) bool {
	if ti == len(tokens) {
		return vi == len(value)
	}

	tok := tokens[ti]
	if tok.literal {
		if !strings.HasPrefix(value[vi:], tok.text) {
			return false
		}
		return matchDateTokens(tokens, ti+1, value, vi+len(tok.text), f)
	}

	switch tok.text {
	case "yyyy":
		return matchFixedDigits(tokens, ti, value, vi, 4, f, func(n int) { f.year, f.hasYear = n, true })
	case "yy":
		return matchFixedDigits(tokens, ti, value, vi, 2, f, func(n int) { f.yy, f.hasYY = n, true })
	case "MM":
		return matchFixedDigits(tokens, ti, value, vi, 2, f, func(n int) { f.month = n })
	case "dd":
		return matchFixedDigits(tokens, ti, value, vi, 2, f, func(n int) { f.day = n })
	case "HH":
		return matchFixedDigits(tokens, ti, value, vi, 2, f, func(n int) { f.hour = n })
	case "mm":
		return matchFixedDigits(tokens, ti, value, vi, 2, f, func(n int) { f.minute = n })
	case "ss":
		return matchFixedDigits(tokens, ti, value, vi, 2, f, func(n int) { f.second = n })
	case "SSS":
		return matchFixedDigits(tokens, ti, value, vi, 3, f, func(n int) { f.millis = n })
	case "S":
		return matchFixedDigits(tokens, ti, value, vi, 1, f, func(n int) { f.millis = n * 100 })
	case "M":
		return matchVariableDigits(tokens, ti, value, vi, 2, f, func(n int) { f.month = n })
	case "d":
		return matchVariableDigits(tokens, ti, value, vi, 2, f, func(n int) { f.day = n })
	case "H":
		return matchVariableDigits(tokens, ti, value, vi, 2, f, func(n int) { f.hour = n })
	default:
		return false
	}
}

// matchFixedDigits 消费恰好 width 位数字，赋值后继续匹配剩余 token；
// 失败时不回溯宽度（固定宽度 token 没有歧义可言）
func matchFixedDigits(tokens []dateToken, ti int, value string, vi int, width int, f *dateFields, assign func(int)) bool {
	if vi+width > len(value) {
		return false
	}
	digits := value[vi : vi+width]
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return false
	}
	assign(n)
	return matchDateTokens(tokens, ti+1, value, vi+width, f)
}

// matchVariableDigits 尝试从 maxWidth 位数字开始，逐步收窄到 1 位，
// 取第一个能让剩余 token 继续匹配成功的宽度
func matchVariableDigits(tokens []dateToken, ti int, value string, vi int, maxWidth int, f *dateFields, assign func(int)) bool {
	for width := maxWidth; width >= 1; width-- {
		if vi+width > len(value) {
			continue
		}
		digits := value[vi : vi+width]
		if !isAllDigits(digits) {
			continue
		}
		n, err := strconv.Atoi(digits)
		if err != nil {
			continue
		}
		assign(n)
		if matchDateTokens(tokens, ti+1, value, vi+width, f) {
			return true
		}
	}
	return false
}

func isAllDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
