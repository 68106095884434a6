// Package gzippedhttp makes gzip transparent for the handlers: request
// bodies arriving with Content-Encoding gzip are decompressed, and responses
// are compressed when the client advertises support for it.
package gzippedhttp

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(nil, gzip.BestSpeed)
		return w
	},
}

type decompressingReader struct {
	body io.ReadCloser
	zr   *gzip.Reader
}

func newDecompressingReader(body io.ReadCloser) (*decompressingReader, error) {
	zr, err := gzip.NewReader(body)
	if err != nil {
		return nil, err
	}

	return &decompressingReader{body: body, zr: zr}, nil
}

func (r *decompressingReader) Read(p []byte) (int, error) {
	return r.zr.Read(p)
}

func (r *decompressingReader) Close() error {
	if err := r.body.Close(); err != nil {
		return err
	}
	return r.zr.Close()
}

type compressingResponseWriter struct {
	w  http.ResponseWriter
	zw *gzip.Writer
}

func newCompressingResponseWriter(w http.ResponseWriter) *compressingResponseWriter {
	zw := gzipWriterPool.Get().(*gzip.Writer)
	zw.Reset(w)
	// Every write goes through the gzip writer, error statuses included, so
	// the header must be set before the first byte regardless of the status.
	w.Header().Set("Content-Encoding", "gzip")
	return &compressingResponseWriter{w: w, zw: zw}
}

func (c *compressingResponseWriter) Header() http.Header {
	return c.w.Header()
}

func (c *compressingResponseWriter) WriteHeader(statusCode int) {
	c.w.WriteHeader(statusCode)
}

func (c *compressingResponseWriter) Write(p []byte) (int, error) {
	return c.zw.Write(p)
}

func (c *compressingResponseWriter) Close() error {
	if err := c.zw.Close(); err != nil {
		return err
	}
	gzipWriterPool.Put(c.zw)
	return nil
}

// UngzipRequest decompresses gzip-encoded request bodies before passing the
// request down the chain.
func UngzipRequest(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		if strings.Contains(request.Header.Get("Content-Encoding"), "gzip") {
			decompressedBody, err := newDecompressingReader(request.Body)
			if err != nil {
				response.WriteHeader(http.StatusInternalServerError)
				return
			}
			request.Body = decompressedBody
			defer decompressedBody.Close()
		}

		h.ServeHTTP(response, request)
	}

	return http.HandlerFunc(middleware)
}

// GzipResponse compresses the response body when the client's
// Accept-Encoding header allows it.
func GzipResponse(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		finalResponse := response

		if strings.Contains(request.Header.Get("Accept-Encoding"), "gzip") {
			compressedResponse := newCompressingResponseWriter(response)
			finalResponse = compressedResponse
			defer compressedResponse.Close()
		}

		h.ServeHTTP(finalResponse, request)
	}

	return http.HandlerFunc(middleware)
}
