package middleware

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
)

// Cache-Control values by route class.
const (
	policyCatalogSearch  = "public, max-age=120, must-revalidate"
	policySeasonal       = "public, max-age=300, must-revalidate"
	policyItemSimilar    = "public, max-age=60, must-revalidate"
	policyNoStore        = "no-store"
	policyPrivateRevisit = "private, no-cache, must-revalidate"
)

// cachePolicy picks the Cache-Control header for a request. Only anonymous
// GET routes may be shared; anything that mutates state or returns
// per-user recommendations is never stored.
func cachePolicy(r *http.Request) string {
	path := r.URL.Path
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return policyNoStore
	}
	switch {
	case path == "/health", strings.HasPrefix(path, "/api/admin/"):
		return policyNoStore
	case path == "/api/search":
		return policyCatalogSearch
	case path == "/api/recommendations/seasonal":
		return policySeasonal
	case strings.HasPrefix(path, "/api/items/") && strings.HasSuffix(path, "/recommendations"):
		return policyItemSimilar
	default:
		return policyPrivateRevisit
	}
}

// CacheControl sets the route's Cache-Control policy before the handler runs.
func CacheControl(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", cachePolicy(r))
		next.ServeHTTP(w, r)
	})
}

var gzipPool = sync.Pool{
	New: func() any {
		gz, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return gz
	},
}

// Compression gzips response bodies for clients that accept it. The
// encoding is chosen when the status is written, so bodiless responses
// such as 204 and 304 are passed through untouched.
func Compression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead || !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Add("Vary", "Accept-Encoding")

		gw := &gzipWriter{ResponseWriter: w}
		defer gw.finish()
		next.ServeHTTP(gw, r)
	})
}

type gzipWriter struct {
	http.ResponseWriter
	gz          *gzip.Writer
	wroteHeader bool
}

func (g *gzipWriter) WriteHeader(status int) {
	if g.wroteHeader {
		return
	}
	g.wroteHeader = true
	if bodyAllowed(status) && g.Header().Get("Content-Encoding") == "" {
		g.Header().Set("Content-Encoding", "gzip")
		g.Header().Del("Content-Length")
		g.gz = gzipPool.Get().(*gzip.Writer)
		g.gz.Reset(g.ResponseWriter)
	}
	g.ResponseWriter.WriteHeader(status)
}

func (g *gzipWriter) Write(b []byte) (int, error) {
	if !g.wroteHeader {
		g.WriteHeader(http.StatusOK)
	}
	if g.gz == nil {
		return g.ResponseWriter.Write(b)
	}
	return g.gz.Write(b)
}

func (g *gzipWriter) finish() {
	if g.gz == nil {
		return
	}
	_ = g.gz.Close()
	gzipPool.Put(g.gz)
	g.gz = nil
}

func (g *gzipWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := g.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, errors.New("response writer does not support hijacking")
}

func bodyAllowed(status int) bool {
	return status >= http.StatusOK && status != http.StatusNoContent && status != http.StatusNotModified
}

// ETag buffers successful GET responses on cacheable routes, tags them
// with a content hash and answers matching If-None-Match with 304.
func ETag(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || strings.Contains(w.Header().Get("Cache-Control"), policyNoStore) {
			next.ServeHTTP(w, r)
			return
		}

		rec := &bufferedWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		body := rec.buf.Bytes()
		if rec.status != http.StatusOK {
			w.WriteHeader(rec.status)
			_, _ = w.Write(body)
			return
		}

		sum := sha256.Sum256(body)
		tag := `"` + hex.EncodeToString(sum[:16]) + `"`
		w.Header().Set("ETag", tag)
		if r.Header.Get("If-None-Match") == tag {
			w.Header().Del("Content-Encoding")
			w.WriteHeader(http.StatusNotModified)
			return
		}
		_, _ = w.Write(body)
	})
}

type bufferedWriter struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	return b.buf.Write(p)
}

func (b *bufferedWriter) WriteHeader(status int) {
	b.status = status
}

// ResponseOptimization applies the cache policy, ETags and compression,
// outermost first.
func ResponseOptimization(next http.Handler) http.Handler {
	return CacheControl(ETag(Compression(next)))
}
