package plaintext

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/rag-chat/internal/core/domain"
	"github.com/kirillkom/rag-chat/internal/infrastructure/storage/localfs"
)

func newStoredDocument(t *testing.T, key, body string) *Extractor {
	t.Helper()
	store, err := localfs.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), key, strings.NewReader(body)))
	return NewExtractor(store)
}

func TestExtractKeepsWhitespace(t *testing.T) {
	body := "  Leave policy\n\n  25 days.  \n"
	extractor := newStoredDocument(t, "doc.txt", body)

	text, err := extractor.Extract(context.Background(), "doc.txt")
	require.NoError(t, err)
	assert.Equal(t, body, text)
}

func TestExtractEmptyDocumentReturnsEmptyText(t *testing.T) {
	extractor := newStoredDocument(t, "empty.txt", "")

	text, err := extractor.Extract(context.Background(), "empty.txt")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExtractRejectsBinary(t *testing.T) {
	extractor := newStoredDocument(t, "blob.bin", string([]byte{0xff, 0xfe, 0x00}))

	_, err := extractor.Extract(context.Background(), "blob.bin")
	assert.True(t, domain.IsKind(err, domain.ErrBadRequest), "got %v", err)
}

func TestExtractMissingDocument(t *testing.T) {
	extractor := newStoredDocument(t, "doc.txt", "x")

	_, err := extractor.Extract(context.Background(), "other.txt")
	assert.True(t, domain.IsKind(err, domain.ErrNotFound), "got %v", err)
}
