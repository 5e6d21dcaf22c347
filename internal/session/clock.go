package session

import "time"

// Timer is a cancellable scheduled callback. Stop reports whether the
// callback was prevented from running.
type Timer interface {
	Stop() bool
}

// Clock abstracts wall time and timer scheduling so the phase machine
// can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

type realClock struct{}

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
