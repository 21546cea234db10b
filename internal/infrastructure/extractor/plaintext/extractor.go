package plaintext

import (
	"context"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/kirillkom/rag-chat/internal/core/domain"
	"github.com/kirillkom/rag-chat/internal/core/ports"
)

// Extractor returns a stored document's bytes as text. The content is kept
// verbatim: chunk boundaries depend on every character, whitespace included.
type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, key string) (string, error) {
	reader, err := e.storage.Open(ctx, key)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}

	if !utf8.Valid(raw) {
		return "", domain.NewError(domain.ErrBadRequest, "extract text", "document is not UTF-8 text: "+key)
	}
	return string(raw), nil
}
