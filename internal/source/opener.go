package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"fjacquet/stmt-ingest/internal/logging"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const gcsScheme = "gs://"

// Opener returns a reader for an input URI.
type Opener interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// FileOpener opens local paths.
type FileOpener struct{}

// Open opens a local file for reading.
func (FileOpener) Open(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return f, nil
}

// IsRemote reports whether uri names a Cloud Storage object.
func IsRemote(uri string) bool {
	return strings.HasPrefix(uri, gcsScheme)
}

// ParseGCSURI splits gs://bucket/object into its parts.
func ParseGCSURI(uri string) (bucket, object string, err error) {
	if !IsRemote(uri) {
		return "", "", fmt.Errorf("not a gs:// URI: %s", uri)
	}
	rest := strings.TrimPrefix(uri, gcsScheme)
	bucket, object, found := strings.Cut(rest, "/")
	if !found || bucket == "" || object == "" {
		return "", "", fmt.Errorf("invalid gs:// URI %q: want gs://bucket/object", uri)
	}
	return bucket, object, nil
}

// GCSOpener reads objects from Cloud Storage.
type GCSOpener struct {
	client *storage.Client
}

// NewGCSOpener creates a storage client. Without options it uses
// application default credentials.
func NewGCSOpener(ctx context.Context, opts ...option.ClientOption) (*GCSOpener, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	return &GCSOpener{client: client}, nil
}

// Open streams a gs://bucket/object URI.
func (g *GCSOpener) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	bucket, object, err := ParseGCSURI(uri)
	if err != nil {
		return nil, err
	}
	r, err := g.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", uri, err)
	}
	return r, nil
}

// Close releases the storage client.
func (g *GCSOpener) Close() error {
	return g.client.Close()
}

// MultiOpener routes gs:// URIs to Cloud Storage and everything else to
// the local filesystem. The storage client is created on first use.
type MultiOpener struct {
	Local  Opener
	logger logging.Logger
	opts   []option.ClientOption

	mu     sync.Mutex
	remote Opener
}

// NewMultiOpener returns a MultiOpener using opts for the storage client.
func NewMultiOpener(logger logging.Logger, opts ...option.ClientOption) *MultiOpener {
	return &MultiOpener{Local: FileOpener{}, logger: logging.OrDefault(logger), opts: opts}
}

// Open dispatches gs:// URIs to the storage opener and everything else
// to the local filesystem.
func (m *MultiOpener) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	if !IsRemote(uri) {
		return m.Local.Open(ctx, uri)
	}
	remote, err := m.remoteOpener(ctx)
	if err != nil {
		return nil, err
	}
	return remote.Open(ctx, uri)
}

func (m *MultiOpener) remoteOpener(ctx context.Context) (Opener, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.remote != nil {
		return m.remote, nil
	}
	g, err := NewGCSOpener(ctx, m.opts...)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("Cloud Storage client created")
	m.remote = g
	return g, nil
}

// Close releases the storage client when one was created.
func (m *MultiOpener) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.remote.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// LoadDelimited opens uri with o and reads it using comma as the field
// delimiter.
func LoadDelimited(ctx context.Context, o Opener, uri string, comma rune) (*Table, error) {
	rc, err := o.Open(ctx, uri)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	table, err := ReadDelimited(rc, comma)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", uri, err)
	}
	table.Path = uri
	return table, nil
}
