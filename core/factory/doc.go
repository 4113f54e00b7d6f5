// Package factory provides a small generic registry used to instantiate
// modules from configuration. Modules are identified by a type string plus a
// map of raw settings; factories decode the settings into typed structs and
// return the concrete implementation. Both the portfolio model catalog and
// the metrics sinks are built through it.
package factory
