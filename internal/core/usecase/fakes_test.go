package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kirillkom/rag-chat/internal/core/domain"
	"github.com/kirillkom/rag-chat/internal/core/ports"
)

// memoryMessageLog mimics the store: ids and strictly increasing timestamps
// are assigned on append, and WithinTx restores a snapshot on error.
type memoryMessageLog struct {
	mu    sync.Mutex
	msgs  []domain.Message
	clock time.Time
	seq   int

	appendErrForRole map[domain.Role]error
	updateErr        error
	txCalls          int
}

func newMemoryMessageLog() *memoryMessageLog {
	return &memoryMessageLog{
		clock:            time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
		appendErrForRole: map[domain.Role]error{},
	}
}

func (m *memoryMessageLog) Append(_ context.Context, msg domain.NewMessage) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.appendErrForRole[msg.Role]; err != nil {
		return nil, err
	}
	m.seq++
	m.clock = m.clock.Add(time.Millisecond)
	stored := domain.Message{
		ID:        fmt.Sprintf("m%d", m.seq),
		SessionID: msg.SessionID,
		Role:      msg.Role,
		Text:      msg.Text,
		CreatedAt: m.clock,
	}
	m.msgs = append(m.msgs, stored)
	out := stored
	return &out, nil
}

func (m *memoryMessageLog) FindByID(_ context.Context, id string) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.msgs {
		if msg.ID == id {
			out := msg
			return &out, nil
		}
	}
	return nil, nil
}

func (m *memoryMessageLog) ListBySession(_ context.Context, sessionID string) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Message, 0)
	for _, msg := range m.msgs {
		if msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memoryMessageLog) UpdateText(_ context.Context, id, text string) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	for i := range m.msgs {
		if m.msgs[i].ID == id {
			m.msgs[i].Text = text
			out := m.msgs[i]
			return &out, nil
		}
	}
	return nil, domain.NewError(domain.ErrNotFound, "update", id)
}

func (m *memoryMessageLog) DeleteAfter(_ context.Context, sessionID string, createdAt time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.msgs[:0]
	var removed int64
	for _, msg := range m.msgs {
		if msg.SessionID == sessionID && msg.CreatedAt.After(createdAt) {
			removed++
			continue
		}
		kept = append(kept, msg)
	}
	m.msgs = kept
	return removed, nil
}

func (m *memoryMessageLog) WithinTx(ctx context.Context, fn func(log ports.MessageLog) error) error {
	m.mu.Lock()
	m.txCalls++
	snapshot := append([]domain.Message(nil), m.msgs...)
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.msgs = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memoryMessageLog) snapshot() []domain.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Message(nil), m.msgs...)
}

type routerFake struct {
	result domain.Classification
	calls  []string
}

func (f *routerFake) Classify(_ context.Context, text string) domain.Classification {
	f.calls = append(f.calls, text)
	if f.result.Intent == "" {
		return domain.Classification{Intent: domain.IntentQuery}
	}
	return f.result
}

type embedderFake struct {
	vector  []float32
	vectors map[string][]float32
	err     error
	failAt  int
	calls   int
}

func (f *embedderFake) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil && (f.failAt == 0 || f.calls == f.failAt) {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return f.vector, nil
}

type chunkStoreFake struct {
	stored    []domain.DocumentChunk
	scan      []domain.StoredChunk
	scanCalls int
	scanErr   error
	insertErr error
	removed   int64
	events    []string
}

func (f *chunkStoreFake) InsertChunk(_ context.Context, chunk domain.DocumentChunk) error {
	f.events = append(f.events, "insert")
	if f.insertErr != nil {
		return f.insertErr
	}
	for _, existing := range f.stored {
		if existing.ID == chunk.ID {
			return domain.NewError(domain.ErrDuplicateID, "insert", chunk.ID)
		}
	}
	f.stored = append(f.stored, chunk)
	return nil
}

func (f *chunkStoreFake) ScanChunks(context.Context) ([]domain.StoredChunk, error) {
	f.scanCalls++
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	return f.scan, nil
}

func (f *chunkStoreFake) DeleteAllChunks(context.Context) (int64, error) {
	f.events = append(f.events, "reset")
	removed := int64(len(f.stored)) + f.removed
	f.stored = nil
	return removed, nil
}

type generatorCall struct {
	prompt            string
	systemInstruction string
}

type generatorFake struct {
	reply string
	err   error
	calls []generatorCall
}

func (f *generatorFake) Generate(_ context.Context, prompt, systemInstruction string) (string, error) {
	f.calls = append(f.calls, generatorCall{prompt: prompt, systemInstruction: systemInstruction})
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

var errUpstream = domain.WrapError(domain.ErrUpstreamUnavailable, "fake", errors.New("503"))
