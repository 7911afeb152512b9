// Package sink delivers finished scene segments to their destinations.
// A sink receives the encoded WAV buffer together with its metadata and
// is responsible for persisting or forwarding it. Sinks are invoked
// sequentially from the capture scheduler's completion callback, which
// runs between segments: a slow sink delays the start of the next
// segment by the same amount.
package sink
