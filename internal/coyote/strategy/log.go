package strategy

import "github.com/btcsuite/btclog/v2"

// log is the package-wide logger for exploration strategies. It defaults to
// a disabled logger so importing this package has no logging side effects
// until a caller wires one in via UseLogger.
var log = btclog.Disabled

// UseLogger sets the logger used by this package.
func UseLogger(logger btclog.Logger) {
	log = logger
}
