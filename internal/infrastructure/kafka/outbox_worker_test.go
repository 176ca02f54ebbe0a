package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutboxRepo struct {
	pending   []*usecase.OutboxEvent
	processed []int64
	returned  map[int64]string
}

func (f *fakeOutboxRepo) Create(context.Context, *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	return nil, errors.New("not used")
}

func (f *fakeOutboxRepo) GetAndMarkAsProcessing(_ context.Context, limit int) ([]*usecase.OutboxEvent, error) {
	n := min(limit, len(f.pending))
	batch := f.pending[:n]
	f.pending = f.pending[n:]
	return batch, nil
}

func (f *fakeOutboxRepo) MarkAsProcessed(_ context.Context, id int64) error {
	f.processed = append(f.processed, id)
	return nil
}

func (f *fakeOutboxRepo) ReturnToPending(_ context.Context, id int64, lastErr string) error {
	if f.returned == nil {
		f.returned = make(map[int64]string)
	}
	f.returned[id] = lastErr
	return nil
}

func (f *fakeOutboxRepo) ReleaseStale(context.Context, time.Duration) (int64, error) {
	return 0, nil
}

type fakeProducer struct {
	failKey string
	sent    []*usecase.WriteRawMessageReq
}

func (p *fakeProducer) WriteRawMessage(_ context.Context, req *usecase.WriteRawMessageReq) error {
	if req.Key == p.failKey {
		return errors.New("dial tcp: connection refused")
	}
	p.sent = append(p.sent, req)
	return nil
}

func event(id, orderID int64) *usecase.OutboxEvent {
	ev := usecase.NewOutboxEvent("evt-"+string(rune('a'+id)), usecase.EventOrderConfirmation, orderID, []byte(`{}`))
	ev.ID = id
	return ev
}

func TestProcessBatch_PublishesAndMarks(t *testing.T) {
	repo := &fakeOutboxRepo{pending: []*usecase.OutboxEvent{event(1, 100), event(2, 200)}}
	producer := &fakeProducer{}
	w := NewOutboxWorker(repo, logger.NewNop(), producer, "")

	hasMore, err := w.processBatch(context.Background())
	require.NoError(t, err)
	assert.False(t, hasMore)
	assert.Equal(t, []int64{1, 2}, repo.processed)

	require.Len(t, producer.sent, 2)
	assert.Equal(t, "100", producer.sent[0].Key)
	assert.Equal(t, usecase.EventOrderConfirmation, producer.sent[0].Headers[headerEventType])
	assert.Equal(t, "evt-b", producer.sent[0].Headers[headerEventID])
}

func TestProcessBatch_FailureReturnsToPending(t *testing.T) {
	repo := &fakeOutboxRepo{pending: []*usecase.OutboxEvent{event(1, 100), event(2, 200)}}
	w := NewOutboxWorker(repo, logger.NewNop(), &fakeProducer{failKey: "100"}, "")

	hasMore, err := w.processBatch(context.Background())
	require.NoError(t, err)
	assert.False(t, hasMore)
	assert.Equal(t, []int64{2}, repo.processed)
	require.Contains(t, repo.returned, int64(1))
	assert.Contains(t, repo.returned[1], "connection refused")
}

func TestDrain_ProcessesFullBatches(t *testing.T) {
	var pending []*usecase.OutboxEvent
	for i := int64(1); i <= batchSize+3; i++ {
		pending = append(pending, event(i, i))
	}
	repo := &fakeOutboxRepo{pending: pending}
	w := NewOutboxWorker(repo, logger.NewNop(), &fakeProducer{}, "")

	w.drain(context.Background())
	assert.Len(t, repo.processed, batchSize+3)
}

func TestToMessage(t *testing.T) {
	msg := toMessage(usecase.NewWriteRawMessageReq("42", []byte("x"), map[string]string{"event_type": "order.confirmation"}))

	assert.Equal(t, []byte("42"), msg.Key)
	assert.Equal(t, []byte("x"), msg.Value)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
}

func TestIsRetryableError(t *testing.T) {
	assert.True(t, isRetryableError(errors.New("read: connection reset by peer")))
	assert.False(t, isRetryableError(errors.New("message too large")))
	assert.False(t, isRetryableError(nil))
}
