// File: api/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package api defines the public contracts of taskpool: the task queue
// substrate the pool drains, the task and group ownership contract, the
// pool lifecycle surface, and structured error types shared across the
// library. Implementations live in queue/, tasking/ and threadpool/.
package api
