// File: control/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package control carries the runtime plumbing around the pool core:
// environment-driven configuration, a runtime-tunable config store with
// reload listeners, and a debug probe reflector for internal
// inspection.
package control
