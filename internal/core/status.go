package core

import "context"

// upstreamHosts are the fixed upstreams whose circuit state is
// reported by Status (spec §6).
var upstreamHosts = map[string]string{
	"flutter_docs": "api.flutter.dev",
	"dart_docs":    "api.dart.dev",
	"pub_dev":      "pub.dev",
}

// Status reports cache health and per-upstream circuit state (spec
// component L).
func (c *Core) Status(ctx context.Context) (*StatusResponse, error) {
	stats, err := c.Cache.Stats(ctx)
	if err != nil {
		stats = CacheStats{}
	}

	upstreams := make(map[string]string, len(upstreamHosts))
	degraded := false
	down := false
	for name, host := range upstreamHosts {
		switch c.Breaker.State(host) {
		case BreakerOpen:
			upstreams[name] = "down"
			down = true
		case BreakerHalfOpen:
			upstreams[name] = "degraded"
			degraded = true
		default:
			upstreams[name] = "operational"
		}
	}

	status := "healthy"
	switch {
	case down:
		status = "unhealthy"
	case degraded:
		status = "degraded"
	}

	return &StatusResponse{
		Status:    status,
		Cache:     stats,
		Upstreams: upstreams,
		UptimeMs:  c.UptimeMs(),
	}, nil
}
