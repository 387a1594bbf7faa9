// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration, metrics and debug introspection for hioload-stream.
//
// Provides:
//   - Config decoding from files (viper over afero) with size strings such
//     as "256KB", and a ConfigStore that propagates reloads
//   - A Prometheus collector exporting pool accounting
//   - Debug probes for live state dumps
package control
