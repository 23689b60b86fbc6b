package rotation

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// Days 从起始日期起连续展开 n 天
func Days(start string, n int) ([]string, error) {
	first, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil, fmt.Errorf("开始日期格式错误: %v", err)
	}
	if n < 1 {
		return nil, fmt.Errorf("天数必须大于 0")
	}

	days := make([]string, n)
	for i := 0; i < n; i++ {
		days[i] = first.AddDate(0, 0, i).Format("2006-01-02")
	}
	return days, nil
}

// DateRangeDays 展开闭区间内的全部日期
func DateRangeDays(start, end string) ([]string, error) {
	first, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil, fmt.Errorf("开始日期格式错误: %v", err)
	}
	last, err := time.Parse("2006-01-02", end)
	if err != nil {
		return nil, fmt.Errorf("结束日期格式错误: %v", err)
	}
	if last.Before(first) {
		return nil, fmt.Errorf("结束日期不能早于开始日期")
	}

	var days []string
	for current := first; !current.After(last); current = current.AddDate(0, 0, 1) {
		days = append(days, current.Format("2006-01-02"))
	}
	return days, nil
}

// FromRRule 按 RFC 5545 重复规则从起始日期展开排班日期，最多 limit 天。
// 规则里的 DTSTART 被 start 覆盖，保证相同输入展开结果一致。
func FromRRule(rule, start string, limit int) ([]string, error) {
	first, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil, fmt.Errorf("开始日期格式错误: %v", err)
	}
	if limit < 1 {
		return nil, fmt.Errorf("展开上限必须大于 0")
	}

	r, err := rrule.StrToRRule(rule)
	if err != nil {
		return nil, fmt.Errorf("重复规则解析失败: %v", err)
	}
	r.DTStart(first.UTC())

	days := make([]string, 0, limit)
	next := r.Iterator()
	for len(days) < limit {
		occurrence, ok := next()
		if !ok {
			break
		}
		days = append(days, occurrence.Format("2006-01-02"))
	}
	return days, nil
}
