package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"docchat/internal/app"
	"docchat/internal/logger"
	"docchat/internal/model"
)

// Ingestor runs the ingest pipeline for one document.
type Ingestor interface {
	Ingest(ctx context.Context, fileName string, pdf []byte) (*app.IngestResult, error)
}

// busyRequeueDelay spaces out redeliveries while the pipeline is
// occupied, so a queued job does not spin at full speed against the
// busy guard.
const busyRequeueDelay = 2 * time.Second

// IngestWorker consumes queued ingest jobs and runs the ingest pipeline
// for each. Jobs that fail for document-specific reasons are dropped;
// a busy pipeline requeues the job after a short delay.
type IngestWorker struct {
	conn         *amqp.Connection
	ingestor     Ingestor
	queueName    string
	requeueDelay time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewIngestWorker(conn *amqp.Connection, ingestor Ingestor, queueName string) *IngestWorker {
	return &IngestWorker{
		conn:         conn,
		ingestor:     ingestor,
		queueName:    queueName,
		requeueDelay: busyRequeueDelay,
	}
}

func (w *IngestWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				w.handle(workerCtx, d)
			}
		}
	}()

	return nil
}

func (w *IngestWorker) handle(ctx context.Context, d amqp.Delivery) {
	var job model.IngestJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		logger.Error("worker decode ingest job failed", "error", err)
		_ = d.Nack(false, false)
		return
	}

	if _, err := w.ingestor.Ingest(ctx, job.FileName, job.PDF); err != nil {
		if errors.Is(err, app.ErrBusy) {
			// Pipeline is occupied; back off before the requeue so the
			// job does not spin redeliver/nack against the busy guard.
			select {
			case <-ctx.Done():
			case <-time.After(w.requeueDelay):
			}
			_ = d.Nack(false, true)
			return
		}
		logger.Error("worker ingest failed", "file", job.FileName, "error", err)
		_ = d.Nack(false, false)
		return
	}

	_ = d.Ack(false)
}

func (w *IngestWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
