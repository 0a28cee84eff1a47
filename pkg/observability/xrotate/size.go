package xrotate

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	sizeUnitKB = 1024
	sizeUnitMB = sizeUnitKB * 1024
	sizeUnitGB = sizeUnitMB * 1024
)

// ParseSize 解析 size 选项为字节数
//
// 空字符串返回 (0, false) 表示禁用大小轮转。纯数字按 MB 解释。
// 带单位的字符串形如 "<n>[b|k|m|g]"（大小写不敏感）: b=1, k=1024,
// m 或无单位=1024², g=1024³。
func ParseSize(input string) (bytes int64, enabled bool, err error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, false, nil
	}

	if n, convErr := strconv.ParseFloat(input, 64); convErr == nil {
		return int64(n * sizeUnitMB), true, nil
	}

	unit := input[len(input)-1]
	numPart := input
	var multiplier float64 = sizeUnitMB

	switch unit {
	case 'b', 'B':
		multiplier = 1
		numPart = input[:len(input)-1]
	case 'k', 'K':
		multiplier = sizeUnitKB
		numPart = input[:len(input)-1]
	case 'm', 'M':
		multiplier = sizeUnitMB
		numPart = input[:len(input)-1]
	case 'g', 'G':
		multiplier = sizeUnitGB
		numPart = input[:len(input)-1]
	default:
		return 0, false, fmt.Errorf("%q is not a valid size (expected <n>[b|k|m|g]): %w", input, ErrInvalidSize)
	}

	n, convErr := strconv.ParseFloat(numPart, 64)
	if convErr != nil || n < 0 {
		return 0, false, fmt.Errorf("%q is not a valid size (expected <n>[b|k|m|g]): %w", input, ErrInvalidSize)
	}

	return int64(n * multiplier), true, nil
}
