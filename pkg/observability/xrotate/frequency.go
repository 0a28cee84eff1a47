package xrotate

import (
	"fmt"
	"strconv"
	"time"
)

// FrequencyKind 标识时间策略的种类
type FrequencyKind int

const (
	// FrequencyNone 未配置时间策略
	FrequencyNone FrequencyKind = iota
	// FrequencyDaily 每日边界（本地午夜）
	FrequencyDaily
	// FrequencyHourly 每小时边界（整点）
	FrequencyHourly
	// FrequencyEvery 固定毫秒间隔
	FrequencyEvery
)

// FrequencySpec 描述时间轮转策略及当前周期的边界
//
// start/next 均为 epoch-ms。构造时刻必须满足 start ≤ now < next；
// 之后每次边界触发后通过 GetNext 重新计算，保持该不变式。
type FrequencySpec struct {
	Kind   FrequencyKind
	Millis int64 // FrequencyEvery 时的间隔；其余 kind 忽略
	Start  int64
	Next   int64
}

// ParseFrequency 解析 frequency 选项
//
// 支持: "daily"、"hourly"、十进制表示的正整数毫秒数（0 与负数返回错误）。
// 空字符串返回 FrequencyNone 且不报错（表示禁用时间轮转）。
func ParseFrequency(input string, now time.Time) (FrequencySpec, error) {
	switch input {
	case "":
		return FrequencySpec{Kind: FrequencyNone}, nil
	case "daily":
		start := startOfLocalDay(now)
		return FrequencySpec{
			Kind:  FrequencyDaily,
			Start: start.UnixMilli(),
			Next:  start.AddDate(0, 0, 1).UnixMilli(),
		}, nil
	case "hourly":
		start := startOfHour(now)
		return FrequencySpec{
			Kind:  FrequencyHourly,
			Start: start.UnixMilli(),
			Next:  start.Add(time.Hour).UnixMilli(),
		}, nil
	}

	millis, err := strconv.ParseInt(input, 10, 64)
	if err != nil || millis <= 0 {
		return FrequencySpec{}, fmt.Errorf("%q is not \"daily\", \"hourly\", or a positive millisecond count: %w", input, ErrInvalidFrequency)
	}
	nowMs := now.UnixMilli()
	start := (nowMs / millis) * millis
	return FrequencySpec{
		Kind:   FrequencyEvery,
		Millis: millis,
		Start:  start,
		Next:   start + millis,
	}, nil
}

// GetNext 在当前 spec 到达 Next 边界后，重新计算下一个边界
//
// Daily/Hourly 使用日历加法（time.AddDate/时分秒清零重算），正确
// 穿越夏令时的 23/25 小时日与缺失/重复的整点。Every(f) 简单地加 f。
func (s FrequencySpec) GetNext(now time.Time) FrequencySpec {
	switch s.Kind {
	case FrequencyDaily:
		start := startOfLocalDay(now)
		return FrequencySpec{
			Kind:  FrequencyDaily,
			Start: start.UnixMilli(),
			Next:  start.AddDate(0, 0, 1).UnixMilli(),
		}
	case FrequencyHourly:
		start := startOfHour(now)
		return FrequencySpec{
			Kind:  FrequencyHourly,
			Start: start.UnixMilli(),
			Next:  start.Add(time.Hour).UnixMilli(),
		}
	case FrequencyEvery:
		return FrequencySpec{
			Kind:   FrequencyEvery,
			Millis: s.Millis,
			Start:  s.Next,
			Next:   s.Next + s.Millis,
		}
	default:
		return s
	}
}

func startOfLocalDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func startOfHour(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, t.Hour(), 0, 0, 0, t.Location())
}
