package odtemplate

import (
	"context"

	"github.com/benjaminschreck/go-odtemplate/pkg/odtemplate/content"
	"go.uber.org/zap"
)

// Handler transforms the content document of a template in place.
//
// Handlers run one after another in registration order, never concurrently.
// The document is only valid for the duration of the call.
type Handler interface {
	Handle(ctx context.Context, doc *content.Document) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, doc *content.Document) error

// Handle calls f(ctx, doc).
func (f HandlerFunc) Handle(ctx context.Context, doc *content.Document) error {
	return f(ctx, doc)
}

// runChain applies handlers in order. The first failure stops the chain and is
// returned as a HandlerError.
func runChain(ctx context.Context, doc *content.Document, handlers []Handler, log *zap.Logger) error {
	for i, h := range handlers {
		if err := ctx.Err(); err != nil {
			return &HandlerError{Index: i, Cause: err}
		}
		if err := safeHandle(ctx, h, doc); err != nil {
			return &HandlerError{Index: i, Cause: err}
		}
		log.Debug("handler applied", zap.Int("index", i))
	}
	return nil
}

func safeHandle(ctx context.Context, h Handler, doc *content.Document) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = RecoverError(r)
		}
	}()
	return h.Handle(ctx, doc)
}

// ValuesHandler returns a handler that writes values into the matching field
// declarations. Declarations without a resolvable value keep their authored
// value.
func ValuesHandler(values Values) Handler {
	return HandlerFunc(func(ctx context.Context, doc *content.Document) error {
		applied := 0
		for _, decl := range doc.FieldDeclarations() {
			res, ok := Resolve(decl.Name, decl.ValueType, values)
			if !ok {
				continue
			}
			doc.SetFieldValue(decl.Name, res.String())
			applied++
		}
		GetLogger().Debug("field values applied", zap.Int("fields", applied))
		return nil
	})
}
