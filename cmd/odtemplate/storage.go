package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// errObjectExists is returned when -no-clobber meets an existing output.
var errObjectExists = errors.New("output already exists")

// parseGCSURL splits gs://bucket/object. ok is false for anything else,
// including a gs:// URL without an object name.
func parseGCSURL(path string) (bucket, object string, ok bool) {
	rest, found := strings.CutPrefix(path, "gs://")
	if !found {
		return "", "", false
	}
	bucket, object, found = strings.Cut(rest, "/")
	if !found || bucket == "" || object == "" {
		return "", "", false
	}
	return bucket, object, true
}

// storage resolves paths to local files or Cloud Storage objects. The client
// is created on first remote access.
type storage struct {
	mu     sync.Mutex
	client *gcs.Client
}

func newStorage() *storage {
	return &storage{}
}

func (s *storage) gcsClient(ctx context.Context) (*gcs.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	s.client = client
	return client, nil
}

func (s *storage) open(ctx context.Context, path string) (io.ReadCloser, error) {
	bucket, object, remote := parseGCSURL(path)
	if !remote {
		if strings.HasPrefix(path, "gs://") {
			return nil, fmt.Errorf("invalid storage URL: %s", path)
		}
		return os.Open(path)
	}
	client, err := s.gcsClient(ctx)
	if err != nil {
		return nil, err
	}
	r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return r, nil
}

// output is a destination that is either committed by Close or discarded by
// Abort.
type output interface {
	io.Writer
	Close() error
	Abort()
}

func (s *storage) create(ctx context.Context, path string, noClobber bool) (output, error) {
	bucket, object, remote := parseGCSURL(path)
	if !remote {
		if strings.HasPrefix(path, "gs://") {
			return nil, fmt.Errorf("invalid storage URL: %s", path)
		}
		return createFile(path, noClobber)
	}
	client, err := s.gcsClient(ctx)
	if err != nil {
		return nil, err
	}
	handle := client.Bucket(bucket).Object(object)
	if noClobber {
		handle = handle.If(gcs.Conditions{DoesNotExist: true})
	}
	ctx, cancel := context.WithCancel(ctx)
	w := handle.NewWriter(ctx)
	w.ContentType = contentTypeFor(object)
	return &objectOutput{w: w, cancel: cancel}, nil
}

func (s *storage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

type objectOutput struct {
	w      *gcs.Writer
	cancel context.CancelFunc
}

func (o *objectOutput) Write(p []byte) (int, error) {
	return o.w.Write(p)
}

func (o *objectOutput) Close() error {
	defer o.cancel()
	if err := o.w.Close(); err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed {
			return errObjectExists
		}
		return err
	}
	return nil
}

// Abort cancels the upload; the object is never created.
func (o *objectOutput) Abort() {
	o.cancel()
	_ = o.w.Close()
}

type fileOutput struct {
	f *os.File
}

func createFile(path string, noClobber bool) (*fileOutput, error) {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if noClobber {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if errors.Is(err, os.ErrExist) {
		return nil, errObjectExists
	}
	if err != nil {
		return nil, err
	}
	return &fileOutput{f: f}, nil
}

func (o *fileOutput) Write(p []byte) (int, error) {
	return o.f.Write(p)
}

func (o *fileOutput) Close() error {
	return o.f.Close()
}

// Abort closes and removes the partial file.
func (o *fileOutput) Abort() {
	_ = o.f.Close()
	_ = os.Remove(o.f.Name())
}

var contentTypes = map[string]string{
	".odt": "application/vnd.oasis.opendocument.text",
	".ods": "application/vnd.oasis.opendocument.spreadsheet",
	".odp": "application/vnd.oasis.opendocument.presentation",
	".odg": "application/vnd.oasis.opendocument.graphics",
	".ott": "application/vnd.oasis.opendocument.text-template",
	".ots": "application/vnd.oasis.opendocument.spreadsheet-template",
}

func contentTypeFor(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		if ct, ok := contentTypes[strings.ToLower(name[i:])]; ok {
			return ct
		}
	}
	return "application/octet-stream"
}
