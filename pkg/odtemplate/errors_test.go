package odtemplate

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorTypes(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name    string
		err     error
		wantMsg string
		is      func(error) bool
	}{
		{
			name:    "SourceReadError",
			err:     &SourceReadError{Path: "in.ott", Cause: cause},
			wantMsg: "source read error for 'in.ott': boom",
			is:      IsSourceReadError,
		},
		{
			name:    "SourceReadError without path",
			err:     &SourceReadError{Cause: cause},
			wantMsg: "source read error: boom",
			is:      IsSourceReadError,
		},
		{
			name:    "ParseError",
			err:     &ParseError{Entry: "content.xml", Cause: cause},
			wantMsg: "parse error in 'content.xml': boom",
			is:      IsParseError,
		},
		{
			name:    "HandlerError",
			err:     &HandlerError{Index: 2, Cause: cause},
			wantMsg: "handler 2 failed: boom",
			is:      IsHandlerError,
		},
		{
			name:    "StyleNameError",
			err:     &StyleNameError{Table: "items", Style: "cell"},
			wantMsg: "style name 'cell' in table 'items' does not match <prefix><digits>",
			is:      IsStyleNameError,
		},
		{
			name:    "AppendError",
			err:     &AppendError{Entry: "styles.xml", Cause: cause},
			wantMsg: "append error for 'styles.xml': boom",
			is:      IsAppendError,
		},
		{
			name:    "FinalizeError",
			err:     &FinalizeError{Cause: cause},
			wantMsg: "finalize error: boom",
			is:      IsFinalizeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !tt.is(tt.err) {
				t.Error("type check failed on the error itself")
			}
			if !tt.is(fmt.Errorf("wrapped: %w", tt.err)) {
				t.Error("type check failed through wrapping")
			}
			if _, ok := tt.err.(*StyleNameError); !ok && !errors.Is(tt.err, cause) {
				t.Error("cause not reachable through Unwrap")
			}
		})
	}
}

func TestErrorTypes_NestedHandlerError(t *testing.T) {
	err := &HandlerError{Index: 1, Cause: &StyleNameError{Table: "t", Style: "x"}}
	if !IsHandlerError(err) || !IsStyleNameError(err) {
		t.Error("expected both HandlerError and StyleNameError")
	}
	if IsParseError(err) {
		t.Error("unexpected ParseError match")
	}
}

func TestRecoverError(t *testing.T) {
	cause := errors.New("nil map")

	tests := []struct {
		value any
		want  string
	}{
		{cause, "panic recovered: nil map"},
		{"bad state", "panic recovered: bad state"},
		{42, "panic recovered: 42"},
	}
	for _, tt := range tests {
		err := RecoverError(tt.value)
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("RecoverError(%v) = %q, want %q", tt.value, err, tt.want)
		}
	}
	if !errors.Is(RecoverError(cause), cause) {
		t.Error("RecoverError should wrap error values")
	}
}
