package xrotate

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// forbiddenFileNameChars 文件名中禁止出现的字符（Windows 保留字符 + NUL）
const forbiddenFileNameChars = `<>"|?*` + "\x00"

// forbiddenDateFormatChars dateFormat 中禁止出现的字符
const forbiddenDateFormatChars = `/\?%*:|"<>`

// buildFileName 组合轮转文件名: "{base}[.{date}].{number}[.{ext}]"
//
// number < 1 时按 1 处理。ext 非空且未带前导点时自动补上。
func buildFileName(base, date string, number int, ext string) string {
	if number < 1 {
		number = 1
	}

	var b strings.Builder
	b.WriteString(base)
	if date != "" {
		b.WriteByte('.')
		b.WriteString(date)
	}
	b.WriteByte('.')
	b.WriteString(strconv.Itoa(number))
	if ext != "" {
		if !strings.HasPrefix(ext, ".") {
			b.WriteByte('.')
		}
		b.WriteString(ext)
	}
	return b.String()
}

// identifiedFile identifyLogFile 的解析结果
type identifiedFile struct {
	fileTime   int64 // epoch-ms；无 dateFormat 或解析失败时为 0
	fileNumber int
}

// identifyLogFile 解析候选文件名是否属于 base 轮转序列
//
// 拒绝不以 base 开头的候选名。尾部按 "." 切分，段数必须恰好等于
// 1 + (dateFormat 非空 ? 1 : 0) + (ext 非空 ? 1 : 0)。
func identifyLogFile(candidate, base, dateFormat, ext string) (identifiedFile, bool) {
	prefix := base + "."
	if !strings.HasPrefix(candidate, prefix) {
		return identifiedFile{}, false
	}
	tail := candidate[len(prefix):]
	if tail == "" {
		return identifiedFile{}, false
	}

	segments := strings.Split(tail, ".")
	wantSegments := 1
	if dateFormat != "" {
		wantSegments++
	}
	if ext != "" {
		wantSegments++
	}
	if len(segments) != wantSegments {
		return identifiedFile{}, false
	}

	idx := 0
	var result identifiedFile

	if dateFormat != "" {
		t, err := parseDatePattern(dateFormat, segments[idx])
		if err != nil {
			return identifiedFile{}, false
		}
		result.fileTime = t
		idx++
	}

	numberStr := segments[idx]
	n, err := strconv.Atoi(numberStr)
	if err != nil || n < 0 {
		return identifiedFile{}, false
	}
	result.fileNumber = n
	idx++

	if ext != "" {
		wantExt := strings.TrimPrefix(ext, ".")
		gotExt := strings.TrimPrefix(segments[idx], ".")
		if gotExt != wantExt {
			return identifiedFile{}, false
		}
	}

	return result, true
}

// sanitizeFile 将调用方提供的路径拆分为 (base, extension)
//
// 规则:
//   - file 为空返回错误。
//   - 最后一个路径段没有主干（如以分隔符结尾）时，补上 "app"。
//   - 最后一个路径段包含 "." 时，剥离末尾后缀作为候选扩展名。
//   - 扩展名优先级: 调用方显式指定 > 剥离出的后缀（长度 ≥ 2）> 默认 "log"。
func sanitizeFile(file, explicitExt string) (base, ext string, err error) {
	if file == "" {
		return "", "", fmt.Errorf("file must not be empty: %w", ErrEmptyFilename)
	}

	dir, stem := filepath.Split(file)
	if stem == "" {
		stem = "app"
	}

	var peeled string
	if idx := strings.LastIndex(stem, "."); idx > 0 {
		peeled = stem[idx+1:]
		stem = stem[:idx]
	}

	switch {
	case explicitExt != "":
		ext = strings.TrimPrefix(explicitExt, ".")
	case len(peeled) >= 2:
		ext = peeled
	default:
		ext = "log"
	}

	base = filepath.Join(dir, stem)
	// filepath.Join 会清理掉有意义的前导 "./"；保留调用方原始相对/绝对形态。
	if dir == "" {
		base = stem
	} else if strings.HasPrefix(file, "./") && !strings.HasPrefix(base, "./") {
		base = "./" + base
	}

	return base, ext, nil
}

// validateFileName 校验派生出的文件名不含非法字符
//
// 剥离一个可能存在的 Windows 盘符（"[A-Za-z]:"）后，检查剩余部分
// 不含 < > " | ? * NUL，以及任何残留的 ":"。
func validateFileName(name string) error {
	rest := name
	if len(rest) >= 2 && isASCIILetter(rest[0]) && rest[1] == ':' {
		rest = rest[2:]
	}
	if strings.ContainsAny(rest, forbiddenFileNameChars) {
		return fmt.Errorf("file name %q contains forbidden characters: %w", name, ErrInvalidFileName)
	}
	if strings.Contains(rest, ":") {
		return fmt.Errorf("file name %q contains forbidden characters: %w", name, ErrInvalidFileName)
	}
	return nil
}

// validateDateFormat 校验 dateFormat 图案不含非法字符
func validateDateFormat(pattern string) error {
	if strings.ContainsAny(pattern, forbiddenDateFormatChars) {
		return fmt.Errorf("dateFormat %q contains forbidden characters: %w", pattern, ErrInvalidDateFormat)
	}
	return nil
}

func isASCIILetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}
