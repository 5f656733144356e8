package odtemplate

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/benjaminschreck/go-odtemplate/pkg/odtemplate/content"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// State is the lifecycle position of a Template run.
type State int32

const (
	// StateIdle: source available, waiting for the first handler.
	StateIdle State = iota
	// StateReading: the source stream is still being buffered.
	StateReading
	// StateProcessing: entries are being written.
	StateProcessing
	// StateSealed: every entry has been written, the archive is being closed.
	StateSealed
	// StateFinalized: the archive is complete and its size is known.
	StateFinalized
	// StateErrored: the run failed; the output is invalid.
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReading:
		return "reading"
	case StateProcessing:
		return "processing"
	case StateSealed:
		return "sealed"
	case StateFinalized:
		return "finalized"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Template is one fill run of a template archive. Register handlers with the
// Apply methods, then read the filled archive from the Template itself.
//
// Processing starts once the source is ready, at least one handler is
// registered and the output is first consumed through Read, WriteTo or Wait,
// so every handler applied before that takes part. Output is produced through
// a pipe: the run only advances while the caller reads, so always consume the
// output (Read, WriteTo) before or while calling Wait.
type Template struct {
	ctx    context.Context
	config *Config
	log    *zap.Logger
	state  atomic.Int32

	mu       sync.Mutex
	src      *source
	handlers []Handler
	demanded bool
	started  bool
	closed   bool

	bar  atomic.Pointer[barrier]
	app  *appender
	pr   *io.PipeReader
	pw   *io.PipeWriter
	size atomic.Int64
	err  error

	ready     chan struct{}
	end       chan struct{}
	finalized chan struct{}
	failed    chan struct{}
	readyOnce sync.Once
	endOnce   sync.Once
	errOnce   sync.Once
}

func newTemplate(ctx context.Context, config *Config, log *zap.Logger) *Template {
	if ctx == nil {
		ctx = context.Background()
	}
	pr, pw := io.Pipe()
	t := &Template{
		ctx:       ctx,
		config:    config,
		log:       log.With(zap.String("run", uuid.Must(uuid.NewV7()).String())),
		app:       newAppender(pw, config.CompressionLevel),
		pr:        pr,
		pw:        pw,
		ready:     make(chan struct{}),
		end:       make(chan struct{}),
		finalized: make(chan struct{}),
		failed:    make(chan struct{}),
	}
	return t
}

// setSource marks the source as ready and starts processing if a handler is
// already waiting.
func (t *Template) setSource(src *source) {
	t.mu.Lock()
	t.src = src
	closed := t.closed
	t.mu.Unlock()
	if closed {
		src.Close()
	}

	t.state.CompareAndSwap(int32(StateReading), int32(StateIdle))
	t.readyOnce.Do(func() {
		close(t.ready)
	})
	t.log.Debug("source ready", zap.String("path", src.path), zap.Int("entries", len(src.entries())))
	t.maybeStart()
}

// Apply registers a content handler. Handlers run in registration order.
// Handlers registered after processing has started are dropped.
func (t *Template) Apply(h Handler) *Template {
	if h == nil {
		return t
	}
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		t.log.Warn("handler registered after processing started, dropped")
		return t
	}
	t.handlers = append(t.handlers, h)
	t.mu.Unlock()

	t.maybeStart()
	return t
}

// ApplyFunc registers fn as a content handler.
func (t *Template) ApplyFunc(fn func(ctx context.Context, doc *content.Document) error) *Template {
	return t.Apply(HandlerFunc(fn))
}

// ApplyValues registers a value substitution handler for values.
func (t *Template) ApplyValues(values Values) *Template {
	return t.Apply(ValuesHandler(values))
}

// ApplyFields registers a value substitution handler for an untyped map; the
// category of each value is inferred from its Go type.
func (t *Template) ApplyFields(fields map[string]any) *Template {
	return t.Apply(ValuesHandler(FlatValues(fields)))
}

// ApplyTable registers a table expansion handler for data.
func (t *Template) ApplyTable(data TableData) *Template {
	return t.Apply(TableHandler(data))
}

// demand marks the output as consumed and starts processing if possible.
func (t *Template) demand() {
	t.mu.Lock()
	if t.demanded {
		t.mu.Unlock()
		return
	}
	t.demanded = true
	t.mu.Unlock()

	t.maybeStart()
}

func (t *Template) maybeStart() {
	t.mu.Lock()
	if t.started || t.closed || !t.demanded || t.src == nil || len(t.handlers) == 0 {
		t.mu.Unlock()
		return
	}
	t.started = true
	t.mu.Unlock()

	if !t.state.CompareAndSwap(int32(StateIdle), int32(StateProcessing)) {
		return
	}
	go t.process()
}

func (t *Template) process() {
	src := t.src
	entry := src.find(t.config.ContentEntry)
	if entry == nil {
		t.fail(&SourceReadError{Path: src.path, Cause: ErrNoContent})
		src.Close()
		return
	}

	t.mu.Lock()
	handlers := append([]Handler(nil), t.handlers...)
	t.mu.Unlock()

	entries := src.entries()
	t.bar.Store(newBarrier(len(entries), t.onEnd))
	t.log.Debug("processing started", zap.Int("entries", len(entries)), zap.Int("handlers", len(handlers)))

	// the uncompressed entry must be the first member of the output
	first := src.find(t.config.UncompressedEntry)
	if first != nil {
		if err := t.writeEntry(first); err != nil {
			t.fail(err)
			src.Close()
			return
		}
	}

	g, ctx := errgroup.WithContext(t.ctx)
	g.Go(func() error {
		if err := t.passThrough(ctx, entries, entry, first); err != nil {
			t.fail(err)
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := t.transform(ctx, entry, handlers); err != nil {
			t.fail(err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		src.Close()
		return
	}
	if bar := t.bar.Load(); !bar.satisfied() {
		t.fail(ErrBarrierUnsatisfied)
		src.Close()
	}
}

// passThrough copies every entry except the ones in skip.
func (t *Template) passThrough(ctx context.Context, entries []*zip.File, skip ...*zip.File) error {
	for _, f := range entries {
		if slices.Contains(skip, f) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.writeEntry(f); err != nil {
			return err
		}
	}
	return nil
}

// writeEntry appends a source entry unchanged, or stored when it is the
// uncompressed entry, and counts it against the barrier.
func (t *Template) writeEntry(f *zip.File) error {
	var err error
	if f.Name == t.config.UncompressedEntry {
		err = t.app.store(f)
	} else {
		err = t.app.copyRaw(f)
	}
	if err != nil {
		if !IsSourceReadError(err) {
			err = &AppendError{Entry: f.Name, Cause: err}
		}
		return err
	}
	t.log.Debug("entry written", zap.String("entry", f.Name))
	t.bar.Load().done()
	return nil
}

// transform parses the content entry, runs the handler chain and writes the
// result back under the same name.
func (t *Template) transform(ctx context.Context, f *zip.File, handlers []Handler) error {
	limit := t.config.MaxContentSize
	if limit > 0 && f.UncompressedSize64 > uint64(limit) {
		return &ParseError{Entry: f.Name, Cause: fmt.Errorf("content is %d bytes, limit is %d", f.UncompressedSize64, limit)}
	}

	rc, err := f.Open()
	if err != nil {
		return &SourceReadError{Path: f.Name, Cause: err}
	}
	var r io.Reader = rc
	if limit > 0 {
		r = io.LimitReader(rc, limit)
	}
	doc, err := content.Parse(r)
	rc.Close()
	if err != nil {
		return &ParseError{Entry: f.Name, Cause: err}
	}

	if err := runChain(ctx, doc, handlers, t.log); err != nil {
		return err
	}

	data, err := doc.Bytes()
	if err != nil {
		return &AppendError{Entry: f.Name, Cause: err}
	}
	if err := t.app.deflate(f.Name, f, data); err != nil {
		return &AppendError{Entry: f.Name, Cause: err}
	}
	t.log.Debug("content written", zap.String("entry", f.Name), zap.Int("bytes", len(data)))
	t.bar.Load().done()
	return nil
}

func (t *Template) onEnd() {
	t.endOnce.Do(func() {
		t.state.Store(int32(StateSealed))
		close(t.end)
		t.log.Info("all entries written")
		go t.finalize()
	})
}

func (t *Template) finalize() {
	n, err := t.app.close()
	if err != nil {
		t.fail(&FinalizeError{Cause: err})
		return
	}
	if !t.state.CompareAndSwap(int32(StateSealed), int32(StateFinalized)) {
		return
	}
	t.size.Store(n)
	close(t.finalized)
	t.log.Info("archive finalized", zap.Int64("bytes", n))
	t.pw.Close()
	t.src.Close()
}

// fail records the first terminal error. It disarms the barrier and closes the
// output with err so that blocked writers and readers return.
func (t *Template) fail(err error) {
	t.errOnce.Do(func() {
		if t.State() == StateFinalized {
			return
		}
		if bar := t.bar.Load(); bar != nil {
			bar.disarm()
		}
		t.err = err
		t.state.Store(int32(StateErrored))
		close(t.failed)
		t.pw.CloseWithError(err)
		t.log.Error("template run failed", zap.Error(err))
	})
}

// Read reads the filled archive.
func (t *Template) Read(p []byte) (int, error) {
	t.demand()
	return t.pr.Read(p)
}

// WriteTo copies the filled archive to w. It returns the run error if the run
// fails.
func (t *Template) WriteTo(w io.Writer) (int64, error) {
	t.demand()
	return io.Copy(w, t.pr)
}

// Close abandons the output. A run that has not finalized fails; a run that
// never started fails with ErrClosed and releases its source.
func (t *Template) Close() error {
	t.mu.Lock()
	t.closed = true
	started := t.started
	src := t.src
	t.mu.Unlock()

	err := t.pr.Close()
	if !started {
		t.fail(ErrClosed)
		if src != nil {
			src.Close()
		}
	}
	return err
}

// Wait blocks until the archive is finalized and returns its size, or returns
// the run error.
func (t *Template) Wait(ctx context.Context) (int64, error) {
	t.demand()
	select {
	case <-t.finalized:
		return t.size.Load(), nil
	case <-t.failed:
		return 0, t.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Ready is closed once the source entries are known.
func (t *Template) Ready() <-chan struct{} { return t.ready }

// End is closed once every entry has been written to the output.
func (t *Template) End() <-chan struct{} { return t.end }

// Finalized is closed once the output archive is sealed; Size is valid from then on.
func (t *Template) Finalized() <-chan struct{} { return t.finalized }

// Failed is closed when the run fails; Err returns the cause.
func (t *Template) Failed() <-chan struct{} { return t.failed }

// Err returns the run error, or nil while the run has not failed.
func (t *Template) Err() error {
	select {
	case <-t.failed:
		return t.err
	default:
		return nil
	}
}

// Size returns the byte size of the finalized archive.
func (t *Template) Size() int64 {
	return t.size.Load()
}

// State returns the current lifecycle state.
func (t *Template) State() State {
	return State(t.state.Load())
}
