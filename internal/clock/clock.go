// Package clock abstracts "now" so balance math stays reproducible in tests.
package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock yields the current instant. Engine entry points take explicit
// timestamps; surfaces (HTTP, CLI, scheduler) resolve them through a Clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

var Module = fx.Module("clock",
	fx.Provide(func() Clock { return SystemClock{} }),
)
