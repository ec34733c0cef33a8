// Package metrics defines and registers the relay's Prometheus metrics:
// session/room gauges, update/snapshot counters, fragmentation and auth
// counters, and a Timer helper for histogram observations. Handler
// exposes them for scraping.
package metrics
