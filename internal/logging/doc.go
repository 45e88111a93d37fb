// Package logging configures santabot's structured logging.
//
// The configuration is declarative: named formatters, named sinks
// (console + size-rotating file) and hierarchical logger channels with
// per-channel severity thresholds. It is validated and installed once at
// process startup; a record reaches a sink only when its severity passes
// both the channel's and the sink's threshold.
//
// Channels are cheap handles (logging.Logger) that resolve the installed
// registry on every call, so they can be created before Apply() and stay
// valid across it.
package logging
