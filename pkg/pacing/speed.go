package pacing

import (
	"fmt"
	"time"

	"github.com/aretw0/ratmaze/pkg/domain"
)

const (
	MinSpeed     = 1
	MaxSpeed     = 10
	DefaultSpeed = MinSpeed

	// MaxDelay and DelayUnit define the linear speed scale:
	// delay = MaxDelay - level*DelayUnit, i.e. 270ms at level 1 down to 0 at level 10.
	MaxDelay  = 300 * time.Millisecond
	DelayUnit = 30 * time.Millisecond
)

// DelayForSpeed maps a speed level to the per-step delay.
func DelayForSpeed(level int) (time.Duration, error) {
	if level < MinSpeed || level > MaxSpeed {
		return 0, fmt.Errorf("%w: %d (want %d-%d)", domain.ErrInvalidSpeed, level, MinSpeed, MaxSpeed)
	}
	return MaxDelay - time.Duration(level)*DelayUnit, nil
}
