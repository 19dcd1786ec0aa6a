// Package stats counts monitor outcomes and renders them as a JSON summary
// or in the Prometheus text exposition format.
package stats
