package middleware

import (
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
)

// Brotli compresses text responses for clients that accept br. Responses that
// already carry a Content-Encoding, such as proxied backend bodies, are left
// untouched.
func Brotli(level int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodHead || !acceptsBrotli(c.GetHeader("Accept-Encoding")) {
			c.Next()
			return
		}
		w := &brotliWriter{ResponseWriter: c.Writer, level: level}
		c.Writer = w
		defer w.close()
		c.Header("Vary", "Accept-Encoding")
		c.Next()
	}
}

func acceptsBrotli(header string) bool {
	for _, part := range strings.Split(header, ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(coding), "br") {
			continue
		}
		q := strings.ReplaceAll(strings.TrimSpace(params), " ", "")
		return q != "q=0" && q != "q=0.0" && q != "q=0.00" && q != "q=0.000"
	}
	return false
}

func compressible(contentType string) bool {
	ct, _, _ := strings.Cut(contentType, ";")
	ct = strings.TrimSpace(strings.ToLower(ct))
	switch {
	case strings.HasPrefix(ct, "text/"):
		return true
	case ct == "application/json", ct == "application/javascript", ct == "application/xml",
		ct == "image/svg+xml", strings.HasSuffix(ct, "+json"), strings.HasSuffix(ct, "+xml"):
		return true
	}
	return false
}

type brotliWriter struct {
	gin.ResponseWriter
	level   int
	bw      *brotli.Writer
	decided bool
}

func (w *brotliWriter) decide() {
	if w.decided {
		return
	}
	w.decided = true
	h := w.Header()
	status := w.Status()
	if h.Get("Content-Encoding") != "" || !compressible(h.Get("Content-Type")) ||
		status == http.StatusNoContent || status == http.StatusNotModified {
		return
	}
	h.Set("Content-Encoding", "br")
	h.Del("Content-Length")
	w.bw = brotli.NewWriterLevel(w.ResponseWriter, w.level)
}

func (w *brotliWriter) Write(b []byte) (int, error) {
	w.decide()
	if w.bw == nil {
		return w.ResponseWriter.Write(b)
	}
	w.ResponseWriter.WriteHeaderNow()
	return w.bw.Write(b)
}

func (w *brotliWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func (w *brotliWriter) Flush() {
	if w.bw != nil {
		_ = w.bw.Flush()
	}
	w.ResponseWriter.Flush()
}

func (w *brotliWriter) close() {
	if w.bw != nil {
		_ = w.bw.Close()
	}
}
