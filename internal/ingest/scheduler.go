package ingest

import (
	"context"
	"time"

	"carte-elus/internal/logger"
)

// nextMondayAt：计算下一次周一指定小时的时间点（不含当前已过时的当周）
// 约束：基于传入时区 loc 与整点 hour；仅前推至未来时间
func nextMondayAt(now time.Time, loc *time.Location, hour int) time.Time {
	now = now.In(loc)
	for i := 0; i <= 7; i++ {
		d := now.AddDate(0, 0, i)
		if d.Weekday() != time.Monday {
			continue
		}
		t := time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, loc)
		if t.After(now) {
			return t
		}
	}
	d := now.AddDate(0, 0, 7)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, loc)
}

// StartWeekly：在巴黎时间每周一 hour 点运行 job
// 背景：议员与市长表按周发布更新；错误由日志记录，任务继续调度
// 约束：hour<0 时不启动；ctx 取消后退出
func StartWeekly(ctx context.Context, name string, hour int, job func(context.Context) error) {
	if hour < 0 {
		return
	}
	l := logger.L()
	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		loc = time.UTC
	}
	go func() {
		for {
			next := nextMondayAt(time.Now(), loc, hour)
			l.Debug("refresh_scheduled", "job", name, "next", next)
			t := time.NewTimer(time.Until(next))
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
			l.Info("refresh_start", "job", name)
			if err := job(ctx); err != nil {
				l.Error("refresh_error", "job", name, "err", err)
			} else {
				l.Info("refresh_done", "job", name)
			}
		}
	}()
}
