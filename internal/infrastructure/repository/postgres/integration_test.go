//go:build integration

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kirillkom/rag-chat/internal/core/domain"
	"github.com/kirillkom/rag-chat/internal/core/ports"
)

func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "pgvector/pgvector:0.8.1-pg18",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "ragchat",
				"POSTGRES_PASSWORD": "ragchat",
				"POSTGRES_DB":       "ragchat",
			},
			WaitingFor: wait.ForAll(
				wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
				wait.ForListeningPort("5432/tcp"),
			).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		_ = testcontainers.TerminateContainer(container)
	})

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("container port: %v", err)
	}

	dsn := fmt.Sprintf("postgres://ragchat:ragchat@%s:%s/ragchat?sslmode=disable", host, port.Port())
	db, err := OpenDB(dsn)
	if err != nil {
		t.Fatalf("OpenDB() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := EnsureSchema(ctx, db); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	return db
}

func TestIntegrationEditTruncateAndSessionIsolation(t *testing.T) {
	db := startPostgres(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	appendMsg := func(session string, role domain.Role, text string) *domain.Message {
		msg, err := repo.Append(ctx, domain.NewMessage{SessionID: session, Role: role, Text: text})
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		return msg
	}

	u1 := appendMsg("s3", domain.RoleUser, "U1")
	appendMsg("s3", domain.RoleModel, "A1")
	appendMsg("other", domain.RoleUser, "elsewhere")
	appendMsg("s3", domain.RoleUser, "U2")
	appendMsg("s3", domain.RoleModel, "A2")

	err := repo.WithinTx(ctx, func(log ports.MessageLog) error {
		if _, err := log.DeleteAfter(ctx, "s3", u1.CreatedAt); err != nil {
			return err
		}
		_, err := log.UpdateText(ctx, u1.ID, "rephrased U1")
		return err
	})
	if err != nil {
		t.Fatalf("WithinTx() error = %v", err)
	}

	msgs, err := repo.ListBySession(ctx, "s3")
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != u1.ID || msgs[0].Text != "rephrased U1" || !msgs[0].CreatedAt.Equal(u1.CreatedAt) {
		t.Fatalf("unexpected transcript after edit: %+v", msgs)
	}

	other, err := repo.ListBySession(ctx, "other")
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(other) != 1 || other[0].Text != "elsewhere" {
		t.Fatalf("edit leaked into another session: %+v", other)
	}
}

func TestIntegrationChunkRoundTripAndLegacyColumn(t *testing.T) {
	db := startPostgres(t)
	repo := NewChunkRepository(db)
	ctx := context.Background()

	if err := repo.InsertChunk(ctx, domain.DocumentChunk{ID: "chunk_1_0", Content: "alpha", Embedding: []float32{0.5, 1, -2}}); err != nil {
		t.Fatalf("InsertChunk() error = %v", err)
	}
	err := repo.InsertChunk(ctx, domain.DocumentChunk{ID: "chunk_1_0", Content: "alpha", Embedding: []float32{0.5, 1, -2}})
	if !domain.IsKind(err, domain.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	chunks, err := repo.ScanChunks(ctx)
	if err != nil {
		t.Fatalf("ScanChunks() error = %v", err)
	}
	if len(chunks) != 1 || len(chunks[0].Embedding.Vector) != 3 || chunks[0].Embedding.Vector[2] != -2 {
		t.Fatalf("unexpected chunks %+v", chunks)
	}

	if _, err := db.ExecContext(ctx, `
CREATE TABLE legacy_chunks (id TEXT PRIMARY KEY, content TEXT NOT NULL, embedding TEXT NOT NULL);
INSERT INTO legacy_chunks VALUES ('old', 'beta', '[1,2,3]');
ALTER TABLE document_chunks RENAME TO document_chunks_native;
ALTER TABLE legacy_chunks RENAME TO document_chunks;
`); err != nil {
		t.Fatalf("prepare legacy table: %v", err)
	}

	legacy, err := repo.ScanChunks(ctx)
	if err != nil {
		t.Fatalf("ScanChunks() on legacy table error = %v", err)
	}
	if len(legacy) != 1 || legacy[0].Embedding.Vector != nil || legacy[0].Embedding.Encoded != "[1,2,3]" {
		t.Fatalf("unexpected legacy chunks %+v", legacy)
	}
}
