package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat/internal/app"
)

type fakeIngestor struct {
	err   error
	calls int
}

func (f *fakeIngestor) Ingest(_ context.Context, fileName string, _ []byte) (*app.IngestResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &app.IngestResult{FileName: fileName}, nil
}

type nackCall struct {
	requeue bool
}

type fakeAcknowledger struct {
	acks  int
	nacks []nackCall
}

func (f *fakeAcknowledger) Ack(_ uint64, _ bool) error {
	f.acks++
	return nil
}

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacks = append(f.nacks, nackCall{requeue: requeue})
	return nil
}

func (f *fakeAcknowledger) Reject(_ uint64, _ bool) error {
	return nil
}

func delivery(ack amqp.Acknowledger, body string) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, Body: []byte(body)}
}

func testWorker(ingestor Ingestor) *IngestWorker {
	w := NewIngestWorker(nil, ingestor, "ingest")
	w.requeueDelay = 20 * time.Millisecond
	return w
}

func TestHandleAcksSuccessfulJob(t *testing.T) {
	ing := &fakeIngestor{}
	ack := &fakeAcknowledger{}
	w := testWorker(ing)

	w.handle(context.Background(), delivery(ack, `{"file_name":"doc.pdf","pdf":"JVBERg=="}`))

	assert.Equal(t, 1, ing.calls)
	assert.Equal(t, 1, ack.acks)
	assert.Empty(t, ack.nacks)
}

func TestHandleDropsUndecodableJob(t *testing.T) {
	ing := &fakeIngestor{}
	ack := &fakeAcknowledger{}
	w := testWorker(ing)

	w.handle(context.Background(), delivery(ack, "not json"))

	assert.Zero(t, ing.calls)
	require.Len(t, ack.nacks, 1)
	assert.False(t, ack.nacks[0].requeue)
}

func TestHandleDropsFailedJob(t *testing.T) {
	ing := &fakeIngestor{err: errors.New("bad document")}
	ack := &fakeAcknowledger{}
	w := testWorker(ing)

	w.handle(context.Background(), delivery(ack, `{"file_name":"doc.pdf","pdf":"JVBERg=="}`))

	require.Len(t, ack.nacks, 1)
	assert.False(t, ack.nacks[0].requeue)
	assert.Zero(t, ack.acks)
}

func TestHandleBusyRequeuesAfterDelay(t *testing.T) {
	ing := &fakeIngestor{err: app.ErrBusy}
	ack := &fakeAcknowledger{}
	w := testWorker(ing)

	start := time.Now()
	w.handle(context.Background(), delivery(ack, `{"file_name":"doc.pdf","pdf":"JVBERg=="}`))
	elapsed := time.Since(start)

	require.Len(t, ack.nacks, 1)
	assert.True(t, ack.nacks[0].requeue)
	assert.GreaterOrEqual(t, elapsed, w.requeueDelay)
}

func TestHandleBusyCancelledContextSkipsDelay(t *testing.T) {
	ing := &fakeIngestor{err: app.ErrBusy}
	ack := &fakeAcknowledger{}
	w := testWorker(ing)
	w.requeueDelay = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	w.handle(ctx, delivery(ack, `{"file_name":"doc.pdf","pdf":"JVBERg=="}`))

	assert.Less(t, time.Since(start), time.Second)
	require.Len(t, ack.nacks, 1)
	assert.True(t, ack.nacks[0].requeue)
}
