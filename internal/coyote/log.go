package coyote

import "github.com/btcsuite/btclog/v2"

// log is the package-wide logger for the coyote runtime. It defaults to a
// disabled logger so importing this package has no logging side effects
// until a caller wires one in via UseLogger.
var log = btclog.Disabled

// UseLogger sets the logger used by this package. Callers that want
// structured scheduling-point, actor-lifecycle, and monitor-transition
// logging should call this once at program start, the same way cmd/coyote
// wires it during initialization.
func UseLogger(logger btclog.Logger) {
	log = logger
}
