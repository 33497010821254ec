package transport

import (
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
	"google.golang.org/grpc/encoding"
)

// gzipCompressor implements grpc/encoding.Compressor using klauspost's
// faster gzip rather than the stdlib one grpc's own built-in "gzip"
// compressor uses, per spec §4.5 ("request and response streams
// advertise gzip"). Registering under the same "gzip" name replaces
// grpc's default for any process that imports this package.
type gzipCompressor struct {
	writerPool sync.Pool
	readerPool sync.Pool
}

func init() {
	encoding.RegisterCompressor(&gzipCompressor{})
}

func (*gzipCompressor) Name() string { return "gzip" }

func (c *gzipCompressor) Compress(w io.Writer) (io.WriteCloser, error) {
	if zw, ok := c.writerPool.Get().(*gzip.Writer); ok {
		zw.Reset(w)
		return &pooledWriter{Writer: zw, pool: &c.writerPool}, nil
	}
	return &pooledWriter{Writer: gzip.NewWriter(w), pool: &c.writerPool}, nil
}

func (c *gzipCompressor) Decompress(r io.Reader) (io.Reader, error) {
	if zr, ok := c.readerPool.Get().(*gzip.Reader); ok {
		if err := zr.Reset(r); err != nil {
			return nil, err
		}
		return &pooledReader{Reader: zr, pool: &c.readerPool}, nil
	}
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &pooledReader{Reader: zr, pool: &c.readerPool}, nil
}

type pooledWriter struct {
	*gzip.Writer
	pool *sync.Pool
}

func (w *pooledWriter) Close() error {
	err := w.Writer.Close()
	w.pool.Put(w.Writer)
	return err
}

type pooledReader struct {
	*gzip.Reader
	pool *sync.Pool
}

func (r *pooledReader) Read(p []byte) (int, error) {
	n, err := r.Reader.Read(p)
	if err == io.EOF {
		r.pool.Put(r.Reader)
	}
	return n, err
}
