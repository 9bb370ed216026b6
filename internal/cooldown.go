package internal

import "time"

// CooldownInterval is the fixed restart delay of spec §4.6's Cooldown state.
const CooldownInterval = 10 * time.Second

// cooldownTick bounds how often SleepInterruptible rechecks cancel, so a
// signal arriving mid-sleep is noticed promptly instead of after the full
// interval.
const cooldownTick = 100 * time.Millisecond

// SleepInterruptible sleeps for d, or until cancel reports true, whichever
// comes first. It polls cancel every cooldownTick instead of blocking for
// the whole interval so a signal delivered mid-sleep shortens the wait.
func SleepInterruptible(d time.Duration, cancel func() bool) {
	deadline := time.Now().Add(d)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return
		}
		if cancel != nil && cancel() {
			return
		}
		step := cooldownTick
		if remaining < step {
			step = remaining
		}
		time.Sleep(step)
	}
}
