package util

import "time"

// TimeOperationMicroseconds runs op and reports how long it took.
func TimeOperationMicroseconds(op func()) int64 {
	start := time.Now()
	op()
	return time.Since(start).Microseconds()
}
