// Package workload turns a validated workload description into the stream of
// executable queries the dispatcher consumes: a frequency-expanded query
// pool, random or sequential index selection, parameter and sequence
// resolution, and replay-log ingestion.
package workload
