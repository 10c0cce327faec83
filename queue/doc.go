// File: queue/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package queue provides task queue substrates satisfying api.TaskQueue.
// BinQueue is the default: per-worker bins with stealing on miss,
// backed by deques. RingQueue is a bounded lock-free MPMC alternative
// for latency-sensitive submitters.
package queue
