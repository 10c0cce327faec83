// File: threadpool/goid.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Goroutine identity for the thread registry. The runtime does not expose
// goroutine ids; the stack header ("goroutine 123 [running]:") is the only
// stable source. The parse runs on worker start/stop, on registry queries
// and on every CurrentThreadData call; the tasking package makes that call
// once per task execution and once per submission.

package threadpool

import "runtime"

const goroutinePrefix = "goroutine "

// currentGoroutineID returns the id of the calling goroutine.
func currentGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for _, c := range buf[len(goroutinePrefix):n] {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}
