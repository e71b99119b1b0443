package service

import "time"

// Clock источник текущего времени; в тестах подменяется управляемыми часами.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// RealClock возвращает системные часы
func RealClock() Clock {
	return realClock{}
}
