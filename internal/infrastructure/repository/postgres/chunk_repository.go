package postgres

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"

	"github.com/kirillkom/rag-chat/internal/core/domain"
)

type ChunkRepository struct {
	db *sql.DB
}

func NewChunkRepository(db *sql.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func (r *ChunkRepository) InsertChunk(ctx context.Context, chunk domain.DocumentChunk) error {
	result, err := r.db.ExecContext(ctx, `
INSERT INTO document_chunks (id, content, embedding)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO NOTHING
`, chunk.ID, chunk.Content, pgvector.NewVector(chunk.Embedding))
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "insert chunk", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return domain.WrapError(domain.ErrPersistence, "insert chunk rows affected", err)
	}
	if affected == 0 {
		return domain.NewError(domain.ErrDuplicateID, "insert chunk", "id="+chunk.ID)
	}
	return nil
}

// ScanChunks reads every chunk. Rows of a native vector column come back as
// decoded vectors; a legacy text column keeps its stored JSON for the caller
// to decode.
func (r *ChunkRepository) ScanChunks(ctx context.Context) ([]domain.StoredChunk, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, content, pg_typeof(embedding) = 'vector'::regtype AS native, embedding::text
FROM document_chunks
`)
	if err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "scan chunks", err)
	}
	defer rows.Close()

	out := make([]domain.StoredChunk, 0)
	for rows.Next() {
		var (
			chunk  domain.StoredChunk
			native bool
			text   string
		)
		if err := rows.Scan(&chunk.ID, &chunk.Content, &native, &text); err != nil {
			return nil, domain.WrapError(domain.ErrPersistence, "scan chunk row", err)
		}
		chunk.Embedding = storedEmbedding(native, text)
		out = append(out, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrPersistence, "iterate chunks", err)
	}
	return out, nil
}

// storedEmbedding parses the pgvector text form of native rows. A value that
// does not parse is passed on encoded so ranking can score it 0.
func storedEmbedding(native bool, text string) domain.StoredEmbedding {
	if !native || len(text) < 2 {
		return domain.StoredEmbedding{Encoded: text}
	}
	var vec pgvector.Vector
	if err := vec.Scan(text); err != nil {
		return domain.StoredEmbedding{Encoded: text}
	}
	return domain.StoredEmbedding{Vector: vec.Slice()}
}

func (r *ChunkRepository) DeleteAllChunks(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM document_chunks`)
	if err != nil {
		return 0, domain.WrapError(domain.ErrPersistence, "delete chunks", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, domain.WrapError(domain.ErrPersistence, "delete chunks rows affected", err)
	}
	return removed, nil
}
