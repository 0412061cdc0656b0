// Package httpapi exposes result search over HTTP.
//
// Routes:
//
//	GET /api/results                  search (structured filter + metadata_search)
//	GET /api/results/{id}             one result
//	GET /api/results/{id}/metadata    traverse metadata with ?path=a:b
//	GET /metrics                      Prometheus exposition
package httpapi
