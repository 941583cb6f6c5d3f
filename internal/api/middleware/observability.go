package middleware

import (
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/zatekoja/artisan-discovery/backend/internal/infrastructure/observability"
)

// routeLabel maps a request path onto its route template so item ids do
// not end up as span names or metric labels.
func routeLabel(path string) string {
	if rest, ok := strings.CutPrefix(path, "/api/items/"); ok {
		if id, tail, found := strings.Cut(rest, "/"); found && id != "" && tail == "recommendations" {
			return "/api/items/{id}/recommendations"
		}
	}
	return path
}

// recommendationKind names the recommendation family a route serves, or
// "" for routes outside the recommendation API.
func recommendationKind(route string) string {
	switch route {
	case "/api/items/{id}/recommendations", "/api/recommendations/items":
		return "items"
	case "/api/recommendations/users":
		return "users"
	case "/api/recommendations/seasonal":
		return "seasonal"
	case "/api/recommendations/batch":
		return "batch"
	}
	return ""
}

// ObservabilityMiddleware opens a server span per request and records the
// request counter and latency histogram against the route template.
func ObservabilityMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := routeLabel(r.URL.Path)
			ctx, span := observability.StartSpan(r.Context(), r.Method+" "+route)
			defer span.End()

			attrs := []attribute.KeyValue{
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
			}
			if kind := recommendationKind(route); kind != "" {
				attrs = append(attrs, attribute.String("recommendation.kind", kind))
			}
			if id := observability.RequestIDFromContext(ctx); id != "" {
				attrs = append(attrs, attribute.String("request.id", id))
			}
			observability.SetSpanAttributes(span, attrs...)

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(sw, r.WithContext(ctx))

			observability.RecordRequestMetric(ctx, metrics, r.Method, route, sw.status, time.Since(start))
			observability.SetSpanAttributes(span, attribute.Int("http.status_code", sw.status))
			if sw.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(sw.status))
			}
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}
