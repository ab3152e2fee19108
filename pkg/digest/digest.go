// Package digest computes content fingerprints and decides whether two files
// hold identical bytes.
package digest

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"sync"

	"github.com/sdejongh/syncmirror/pkg/models"
	"github.com/sdejongh/syncmirror/pkg/storage"
)

// MinBufferSize is the smallest chunk used to read files
const MinBufferSize = 4096

// Provider computes a fixed-length fingerprint of a file's contents
type Provider interface {
	// Sum reads the whole file in bounded chunks and returns its hex digest
	Sum(ctx context.Context, backend storage.Backend, path string) (string, error)

	// Name returns the digest algorithm name
	Name() string
}

// Hasher is a streaming Provider backed by a hash.Hash constructor
type Hasher struct {
	name           string
	newHash        func() hash.Hash
	bufferPool     *sync.Pool
	progressReport func(path string, current, total int64) // Called once per digested file
}

// New returns the provider for a digest method
func New(method models.DigestMethod, bufferSize int) (*Hasher, error) {
	switch method {
	case models.DigestSHA256, "":
		return NewSHA256(bufferSize), nil
	case models.DigestMD5:
		return NewMD5(bufferSize), nil
	default:
		return nil, fmt.Errorf("unsupported digest method: %s (use: sha256, md5)", method)
	}
}

// NewSHA256 creates a SHA-256 provider
func NewSHA256(bufferSize int) *Hasher {
	return newHasher(string(models.DigestSHA256), sha256.New, bufferSize)
}

// NewMD5 creates an MD5 provider.
// MD5 is faster than SHA-256 but not collision resistant.
func NewMD5(bufferSize int) *Hasher {
	return newHasher(string(models.DigestMD5), md5.New, bufferSize)
}

func newHasher(name string, newHash func() hash.Hash, bufferSize int) *Hasher {
	if bufferSize < MinBufferSize {
		bufferSize = MinBufferSize
	}
	return &Hasher{
		name:    name,
		newHash: newHash,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				buf := make([]byte, bufferSize)
				return &buf
			},
		},
	}
}

// SetProgressCallback sets a callback invoked after each file is digested
// with the number of bytes read. It may be called concurrently.
func (h *Hasher) SetProgressCallback(callback func(path string, current, total int64)) {
	h.progressReport = callback
}

// Sum computes the digest of a file using streaming reads
func (h *Hasher) Sum(ctx context.Context, backend storage.Backend, path string) (string, error) {
	reader, err := backend.Read(ctx, path)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	hasher := h.newHash()

	bufPtr := h.bufferPool.Get().(*[]byte)
	defer h.bufferPool.Put(bufPtr)
	buf := *bufPtr

	var total int64
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := reader.Read(buf)
		if n > 0 {
			hasher.Write(buf[:n])
			total += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", &models.IOError{Op: "digest", Path: backend.Path(path), Err: err}
		}
	}

	if h.progressReport != nil {
		h.progressReport(path, total, total)
	}

	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}

// Name returns the digest algorithm name
func (h *Hasher) Name() string {
	return h.name
}
