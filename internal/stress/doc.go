// Package stress owns the run loop: a bounded worker pool fed by a
// backpressure-throttled dispatcher, a watchdog monitor that ends the run on
// duration or sequence exhaustion, and a reporter printing periodic and
// final metrics.
package stress
