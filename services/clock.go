package services

import "time"

// Clock abstracts "now" so lifecycle transitions are deterministic in
// tests. Services never read time.Now directly.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func NewSystemClock() Clock { return systemClock{} }
