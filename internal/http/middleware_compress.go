package httpx

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// DefaultCompressionMinSize is the smallest body worth compressing; htmx
// fragments and 204 actions are usually below it.
const DefaultCompressionMinSize = 1024

// CompressionConfig holds configuration for the compression middleware.
type CompressionConfig struct {
	Level   int // 1-9; 0 means gzip.DefaultCompression
	MinSize int // bodies shorter than this go out uncompressed; 0 uses the default, negative always compresses
	Logger  *slog.Logger
}

// gzipWriterPool reuses writers of a single compression level.
type gzipWriterPool struct {
	pool sync.Pool
}

func newGzipWriterPool(level int) *gzipWriterPool {
	p := &gzipWriterPool{}
	p.pool.New = func() any {
		w, err := gzip.NewWriterLevel(io.Discard, level)
		if err != nil {
			return gzip.NewWriter(io.Discard)
		}
		return w
	}
	return p
}

func (p *gzipWriterPool) get(dst io.Writer) *gzip.Writer {
	w, ok := p.pool.Get().(*gzip.Writer)
	if !ok {
		w = gzip.NewWriter(io.Discard)
	}
	w.Reset(dst)
	return w
}

func (p *gzipWriterPool) put(w *gzip.Writer) {
	w.Reset(io.Discard)
	p.pool.Put(w)
}

//nolint:gochecknoglobals // read-only lookup table
var compressibleTypes = map[string]bool{
	"text/html":              true,
	"text/css":               true,
	"text/plain":             true,
	"text/javascript":        true,
	"text/csv":               true,
	"application/javascript": true,
	"application/json":       true,
	"application/xml":        true,
	"image/svg+xml":          true,
}

// Compression returns a middleware that gzips responses when the client
// accepts gzip, the request is neither HEAD nor a byte range, the status
// carries a full body, the Content-Type is textual and the body reaches MinSize.
func Compression(cfg CompressionConfig) func(http.Handler) http.Handler {
	if cfg.Level == 0 {
		cfg.Level = gzip.DefaultCompression
	}
	if cfg.MinSize == 0 {
		cfg.MinSize = DefaultCompressionMinSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	pool := newGzipWriterPool(cfg.Level)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Accept-Encoding")
			// byte ranges index the identity encoding
			if r.Method == http.MethodHead || r.Header.Get("Range") != "" || !acceptsGzip(r.Header.Get("Accept-Encoding")) {
				next.ServeHTTP(w, r)
				return
			}

			gzw := &gzipResponseWriter{ResponseWriter: w, pool: pool, minSize: cfg.MinSize}
			next.ServeHTTP(gzw, r)
			if err := gzw.finish(); err != nil {
				cfg.Logger.WarnContext(r.Context(), "finishing compressed response failed", "path", r.URL.Path, "error", err)
			}
		})
	}
}

// acceptsGzip reports whether an Accept-Encoding header allows gzip,
// honouring q=0 and the "*" wildcard.
func acceptsGzip(header string) bool {
	wildcard := false
	for _, part := range strings.Split(header, ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		coding = strings.ToLower(strings.TrimSpace(coding))
		if coding != "gzip" && coding != "*" {
			continue
		}
		allowed := qValue(params) > 0
		if coding == "gzip" {
			return allowed
		}
		wildcard = allowed
	}
	return wildcard
}

func qValue(params string) float64 {
	for _, p := range strings.Split(params, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(k), "q") {
			continue
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return q
	}
	return 1
}

func isCompressibleContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return compressibleTypes[mediaType]
}

// gzipResponseWriter holds back the status line until it knows whether the
// body will be compressed: the first MinSize bytes are buffered, and a body
// that ends before that goes out as is.
type gzipResponseWriter struct {
	http.ResponseWriter
	pool    *gzipWriterPool
	minSize int

	status   int
	decided  bool
	eligible bool
	buf      []byte
	gz       *gzip.Writer
}

// WriteHeader records the status; eligibility is settled here because
// handlers set Content-Type before it.
func (w *gzipResponseWriter) WriteHeader(status int) {
	if w.status != 0 {
		return
	}
	if status < http.StatusOK {
		w.ResponseWriter.WriteHeader(status)
		return
	}
	w.status = status
	h := w.Header()
	switch {
	case status == http.StatusNoContent, status == http.StatusNotModified, status == http.StatusPartialContent:
	case h.Get("Content-Encoding") != "":
	case h.Get("Content-Type") != "" && !isCompressibleContentType(h.Get("Content-Type")):
	default:
		w.eligible = true
	}
	if !w.eligible {
		w.decide(false)
	}
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", http.DetectContentType(b))
		}
		w.WriteHeader(http.StatusOK)
	}
	if w.decided {
		if w.gz != nil {
			return w.gz.Write(b)
		}
		return w.ResponseWriter.Write(b)
	}

	w.buf = append(w.buf, b...)
	if len(w.buf) < w.minSize {
		return len(b), nil
	}
	// sniffed types are only known once some body has arrived
	if !isCompressibleContentType(w.Header().Get("Content-Type")) {
		w.decide(false)
	} else {
		w.decide(true)
	}
	if err := w.flushBuffer(); err != nil {
		return 0, err
	}
	return len(b), nil
}

// decide commits the headers and the status line.
func (w *gzipResponseWriter) decide(compress bool) {
	w.decided = true
	if compress {
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")
		w.gz = w.pool.get(w.ResponseWriter)
	}
	w.ResponseWriter.WriteHeader(w.status)
}

func (w *gzipResponseWriter) flushBuffer() error {
	if len(w.buf) == 0 {
		return nil
	}
	var err error
	if w.gz != nil {
		_, err = w.gz.Write(w.buf)
	} else {
		_, err = w.ResponseWriter.Write(w.buf)
	}
	w.buf = nil
	return err
}

// finish writes whatever is still buffered and returns the writer to the pool.
func (w *gzipResponseWriter) finish() error {
	if w.status == 0 {
		// handler wrote nothing; net/http sends 200 on return
		return nil
	}
	if !w.decided {
		w.decide(false)
	}
	err := w.flushBuffer()
	if w.gz != nil {
		err = errors.Join(err, w.gz.Close())
		w.pool.put(w.gz)
		w.gz = nil
	}
	return err
}

// Flush implements http.Flusher; a buffered body is committed compressed.
func (w *gzipResponseWriter) Flush() {
	if w.status != 0 && !w.decided {
		w.decide(w.eligible && isCompressibleContentType(w.Header().Get("Content-Type")))
		_ = w.flushBuffer()
	}
	if w.gz != nil {
		_ = w.gz.Flush()
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack implements http.Hijacker.
func (w *gzipResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hj, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hj.Hijack()
	}
	return nil, nil, errors.New("http.Hijacker not supported")
}

func (w *gzipResponseWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
