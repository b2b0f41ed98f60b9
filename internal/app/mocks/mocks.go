package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/stretchr/testify/mock"

	"seller_escalation_bot/internal/domain/mail"
	"seller_escalation_bot/internal/domain/quality"
	"seller_escalation_bot/internal/domain/tracking"
	idb "seller_escalation_bot/internal/infra/database"
)

// MockSender is a mock implementation of mail.Sender
type MockSender struct {
	mock.Mock
}

func NewMockSender() *MockSender {
	return &MockSender{}
}

func (m *MockSender) Send(ctx context.Context, msg mail.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockSnapshotSource is a mock implementation of app.SnapshotSource
type MockSnapshotSource struct {
	mock.Mock
}

func NewMockSnapshotSource() *MockSnapshotSource {
	return &MockSnapshotSource{}
}

func (m *MockSnapshotSource) LoadSnapshots(ctx context.Context) (*quality.Batch, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*quality.Batch), args.Error(1)
}

// MemoryTrackingRepository is an in-memory tracking.Repository that returns
// the same sentinel errors as the Postgres implementation.
type MemoryTrackingRepository struct {
	mu        sync.Mutex
	records   map[string]tracking.Record
	responses []tracking.Response
}

var _ tracking.Repository = (*MemoryTrackingRepository)(nil)

func NewMemoryTrackingRepository() *MemoryTrackingRepository {
	return &MemoryTrackingRepository{records: make(map[string]tracking.Record)}
}

func (m *MemoryTrackingRepository) CreateRecord(_ context.Context, r *tracking.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[r.TrackingID]; ok {
		return idb.ErrDuplicateTrackingID
	}
	m.records[r.TrackingID] = *r
	return nil
}

func (m *MemoryTrackingRepository) GetRecord(_ context.Context, trackingID string) (*tracking.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[trackingID]
	if !ok {
		return nil, idb.ErrTrackingNotFound
	}
	return &r, nil
}

func (m *MemoryTrackingRepository) UpdateRecord(_ context.Context, r *tracking.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[r.TrackingID]; !ok {
		return idb.ErrTrackingNotFound
	}
	m.records[r.TrackingID] = *r
	return nil
}

func (m *MemoryTrackingRepository) ListRecordsBySeller(_ context.Context, sellerID string) ([]*tracking.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*tracking.Record, 0)
	for _, r := range m.records {
		if r.SellerID == sellerID {
			r := r
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SentAt.Equal(out[j].SentAt) {
			return out[i].TrackingID < out[j].TrackingID
		}
		return out[i].SentAt.Before(out[j].SentAt)
	})
	return out, nil
}

func (m *MemoryTrackingRepository) CreateResponse(_ context.Context, r *tracking.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = int64(len(m.responses) + 1)
	m.responses = append(m.responses, *r)
	return nil
}

func (m *MemoryTrackingRepository) GetLatestResponse(_ context.Context, sellerID, emailType string) (*tracking.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *tracking.Response
	for i := range m.responses {
		r := m.responses[i]
		if r.SellerID != sellerID || r.EmailType != emailType {
			continue
		}
		if latest == nil || !r.SentAt.Before(latest.SentAt) {
			latest = &r
		}
	}
	if latest == nil {
		return nil, idb.ErrResponseNotFound
	}
	return latest, nil
}

func (m *MemoryTrackingRepository) UpdateResponse(_ context.Context, r *tracking.Response) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.responses {
		if m.responses[i].ID == r.ID {
			m.responses[i] = *r
			return nil
		}
	}
	return idb.ErrResponseNotFound
}

func (m *MemoryTrackingRepository) ListResponsesBySeller(_ context.Context, sellerID string) ([]*tracking.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*tracking.Response, 0)
	for _, r := range m.responses {
		if r.SellerID == sellerID {
			r := r
			out = append(out, &r)
		}
	}
	return out, nil
}

// Records returns a copy of every stored tracking record.
func (m *MemoryTrackingRepository) Records() []tracking.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]tracking.Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	return out
}

// Responses returns a copy of every stored response record.
func (m *MemoryTrackingRepository) Responses() []tracking.Response {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]tracking.Response(nil), m.responses...)
}
