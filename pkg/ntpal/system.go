package ntpal

import (
	"time"

	"golang.org/x/sys/unix"
)

// GetSystemTime reads CLOCK_REALTIME directly, without Go's monotonic reading.
func GetSystemTime() time.Time {
	var now unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_REALTIME, &now); err != nil {
		return time.Now().Round(0)
	}
	return time.Unix(now.Unix())
}
