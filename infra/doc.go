// Package infra contains technical adapters such as metrics sinks and the
// logging backend. These packages should depend only on the interfaces
// defined in the core packages.
package infra
