package course

import "time"

// MockSleep replaces the purge backoff sleep; the returned func restores it.
func MockSleep(fn func(time.Duration)) func() {
	orig := sleepFunc
	sleepFunc = fn
	return func() { sleepFunc = orig }
}
