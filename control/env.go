// File: control/env.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package control

import (
	"os"
	"strconv"
)

// EnvVerbose is the only environment input the pool core reads: an
// integer verbosity level controlling diagnostic emission, default 0.
const EnvVerbose = "PTL_VERBOSE"

// EnvInt reads an integer environment variable, falling back to def on
// absence or parse failure.
func EnvInt(key string, def int) int {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
