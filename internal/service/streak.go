package service

import "time"

// streakFrom 基于活跃日集合计算截至 today 的连续活跃天数。
// 从 today 往回逐日回溯，遇到第一个缺失日即停；today 本身不活跃则为 0。
// 结果只取决于活跃日集合，与当天记了什么类别无关。
func streakFrom(dates []string, today time.Time) int {
	if len(dates) == 0 {
		return 0
	}
	active := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		active[d] = struct{}{}
	}

	streak := 0
	d := today
	for {
		if _, ok := active[d.Format(dateLayout)]; !ok {
			break
		}
		streak++
		d = d.AddDate(0, 0, -1)
	}
	return streak
}
