// Package localday вычисляет границы календарных суток в заданном часовом поясе.
// Дневные счётчики обнуляются в полночь по местному времени, а не по UTC.
package localday

import "time"

// Start возвращает начало местных суток, в которые попадает t.
func Start(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// Next возвращает ближайшую местную полночь после t.
func Next(t time.Time, loc *time.Location) time.Time {
	s := Start(t, loc)
	return time.Date(s.Year(), s.Month(), s.Day()+1, 0, 0, 0, 0, loc)
}

// Key возвращает местную дату в формате 2006-01-02.
func Key(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(time.DateOnly)
}

// NeedsReset сообщает, начались ли новые местные сутки с момента lastReset.
// Отсутствие отметки означает, что сброс нужен.
func NeedsReset(lastReset *time.Time, now time.Time, loc *time.Location) bool {
	if lastReset == nil {
		return true
	}
	return Start(*lastReset, loc).Before(Start(now, loc))
}
