// Package api is the read API: paginated HTTP endpoints over channels,
// recordings, segments, transcripts, and visual events/screenshots, plus
// a health check and a Prometheus metrics endpoint. Routing and
// middleware chaining follow a standard chi-based layering: CORS, rate
// limiting, auth, then the route table.
package api
