package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/rag-chat/internal/core/domain"
)

func newChunkRepoWithMock(t *testing.T) (*ChunkRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return NewChunkRepository(db), mock, func() { _ = db.Close() }
}

func TestInsertChunkWritesNativeVector(t *testing.T) {
	repo, mock, done := newChunkRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO document_chunks").
		WithArgs("chunk_1_0", "hello", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.InsertChunk(context.Background(), domain.DocumentChunk{
		ID:        "chunk_1_0",
		Content:   "hello",
		Embedding: []float32{0.5, 1, 2},
	})
	if err != nil {
		t.Fatalf("InsertChunk() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertChunkReportsDuplicateID(t *testing.T) {
	repo, mock, done := newChunkRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO document_chunks").
		WithArgs("chunk_1_0", "hello", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.InsertChunk(context.Background(), domain.DocumentChunk{ID: "chunk_1_0", Content: "hello", Embedding: []float32{1}})
	if !domain.IsKind(err, domain.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestInsertChunkWrapsDriverError(t *testing.T) {
	repo, mock, done := newChunkRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO document_chunks").
		WillReturnError(errors.New("connection reset"))

	err := repo.InsertChunk(context.Background(), domain.DocumentChunk{ID: "x", Content: "y", Embedding: []float32{1}})
	if !domain.IsKind(err, domain.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestScanChunksDecodesNativeAndKeepsLegacyEncoded(t *testing.T) {
	repo, mock, done := newChunkRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows([]string{"id", "content", "native", "embedding"}).
		AddRow("chunk_1_0", "first", true, "[1,2,3]").
		AddRow("legacy", "second", false, `"[4,5,6]"`).
		AddRow("broken", "third", true, "not a vector")
	mock.ExpectQuery("SELECT id, content, pg_typeof\\(embedding\\)").WillReturnRows(rows)

	chunks, err := repo.ScanChunks(context.Background())
	if err != nil {
		t.Fatalf("ScanChunks() error = %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if got := chunks[0].Embedding; len(got.Vector) != 3 || got.Vector[2] != 3 || got.Encoded != "" {
		t.Fatalf("native row not decoded: %+v", got)
	}
	if got := chunks[1].Embedding; got.Vector != nil || got.Encoded != `"[4,5,6]"` {
		t.Fatalf("legacy row not kept encoded: %+v", got)
	}
	if got := chunks[2].Embedding; got.Vector != nil || got.Encoded != "not a vector" {
		t.Fatalf("unparsable native row should stay encoded: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteAllChunksReturnsRemovedCount(t *testing.T) {
	repo, mock, done := newChunkRepoWithMock(t)
	defer done()

	mock.ExpectExec("DELETE FROM document_chunks").WillReturnResult(sqlmock.NewResult(0, 7))

	removed, err := repo.DeleteAllChunks(context.Background())
	if err != nil {
		t.Fatalf("DeleteAllChunks() error = %v", err)
	}
	if removed != 7 {
		t.Fatalf("expected 7 removed, got %d", removed)
	}
}
