package wordfill

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "ConfigurationError",
			err:     NewConfigurationError("table 2, row 3", "row binds %d list roots", 3),
			wantMsg: "configuration error at table 2, row 3: row binds 3 list roots",
		},
		{
			name:    "ConfigurationError without location",
			err:     NewConfigurationError("", "bad template"),
			wantMsg: "configuration error: bad template",
		},
		{
			name:    "DocumentError",
			err:     NewDocumentError("save", "output.docx", errors.New("permission denied")),
			wantMsg: "document error during save of 'output.docx': permission denied",
		},
		{
			name:    "DocumentError without path",
			err:     NewDocumentError("open package", "", errors.New("zip: not a valid zip file")),
			wantMsg: "document error during open package: zip: not a valid zip file",
		},
		{
			name:    "DocumentError without cause",
			err:     NewDocumentError("write", "out.docx", nil),
			wantMsg: "document error during write of 'out.docx'",
		},
		{
			name:    "ContextError",
			err:     WithContext(errors.New("boom"), "render", map[string]any{"template": "a.docx", "data": "b.json"}),
			wantMsg: "render [data=b.json, template=a.docx]: boom",
		},
		{
			name:    "ContextError without context",
			err:     WithContext(errors.New("boom"), "render", nil),
			wantMsg: "render: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	err := WithContext(NewDocumentError("read", "x.docx", os.ErrNotExist), "prepare", nil)

	assert.True(t, IsDocumentError(err))
	assert.False(t, IsConfigurationError(err))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	wrapped := fmt.Errorf("outer: %w", NewConfigurationError("row 1", "x"))
	assert.True(t, IsConfigurationError(wrapped))

	assert.NoError(t, WithContext(nil, "noop", nil))
}

func TestMultiError(t *testing.T) {
	m := NewMultiError()
	assert.NoError(t, m.Err())
	assert.Equal(t, "no errors", m.Error())

	first := errors.New("first")
	m.Add(first)
	m.Add(nil)
	assert.Equal(t, 1, m.Len())
	assert.Same(t, first, m.Err())

	m.Add(NewDocumentError("write", "b.docx", os.ErrPermission))
	err := m.Err()
	assert.Equal(t, 2, m.Len())
	assert.True(t, strings.HasPrefix(err.Error(), "2 errors occurred:"))
	assert.Contains(t, err.Error(), "[1] first")
	assert.Contains(t, err.Error(), "[2] document error during write of 'b.docx'")
	assert.True(t, errors.Is(err, first))
	assert.True(t, errors.Is(err, os.ErrPermission))
	assert.True(t, IsDocumentError(err))
}

func TestMultiErrorConcurrentAdd(t *testing.T) {
	m := NewMultiError()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Add(fmt.Errorf("error %d", i))
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, m.Len())
}

func TestRecoverError(t *testing.T) {
	cause := errors.New("nil map")
	err := RecoverError(cause)
	assert.EqualError(t, err, "panic recovered: nil map")
	assert.True(t, errors.Is(err, cause))

	assert.EqualError(t, RecoverError("oops"), "panic recovered: oops")
	assert.EqualError(t, RecoverError(42), "panic recovered: 42")
}
