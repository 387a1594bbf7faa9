// Package stream
// Author: momentics <momentics@gmail.com>
//
// Push-model pipeline protocol for hioload-stream.
//
// An Emitter pushes buffer chains to the data callback registered on it; it
// never gets pulled. The callback may consume all, part or none of the chain;
// whatever it leaves stays with the emitter and is offered again later. A Sink
// accepts chains, exposes writability and reports closure. A filter is both:
// it registers itself as the data callback of its upstream emitter, transforms
// what it receives and pushes the result to its own downstream.
//
// Includes:
//   - Emitter / Sink contracts and EmitAll delivery loop
//   - FilteredEmitter and FilteredSink bases for codec filters
//   - BufferedSink for back-pressure, LineEmitter for line framing
//   - WriteAll and Pump helpers
//
// Everything here runs on the goroutine that drives the pipeline and takes
// no locks.
package stream
