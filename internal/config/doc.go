// Package config defines the workload description consumed by the stress
// engine: weighted query templates, reusable query groups, parameter
// candidate lists, and sequence expansions. It loads workloads from JSON or
// YAML files and validates them before any query executes.
package config
