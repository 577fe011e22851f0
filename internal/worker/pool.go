package worker

// pool.go — Redis-backed job queue (LPUSH / BRPOP) with a fixed pool of
// goroutine workers. The Dispatcher side is what services see through the
// Encolador interface; the pool side decodes job envelopes and hands them to
// the handler registered for each job type.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueComprobantes = "jobs:comprobantes"
	QueueEmail        = "jobs:email"

	brpopTimeout = 5 * time.Second
)

// Job is the envelope stored in the Redis lists.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Handler processes a decoded job payload. Handlers own their error handling:
// a handler that returns normally is considered done with the job.
type Handler interface {
	Process(ctx context.Context, payload json.RawMessage)
}

// Dispatcher enqueues jobs. It satisfies service.Encolador.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// ComprobanteJobPayload tells the comprobante worker which document to emit
// and where to mail the PDF afterwards (nil = no email).
type ComprobanteJobPayload struct {
	ComprobanteID uuid.UUID `json:"comprobante_id"`
	Email         *string   `json:"email,omitempty"`
}

// EncolarComprobante pushes an emission job for an already-persisted
// comprobante. Called inline from the sale flow, so a Redis outage must not
// fail the sale: the retry cron picks up anything that never got enqueued.
func (d *Dispatcher) EncolarComprobante(ctx context.Context, comprobanteID uuid.UUID, email *string) error {
	payload, err := json.Marshal(ComprobanteJobPayload{ComprobanteID: comprobanteID, Email: email})
	if err != nil {
		return err
	}
	return d.enqueue(ctx, QueueComprobantes, Job{Type: "comprobante", Payload: payload})
}

// EncolarEmail pushes an email job with the rendered subject/body and the
// path of the PDF attachment.
func (d *Dispatcher) EncolarEmail(ctx context.Context, payload EmailJobPayload) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return d.enqueue(ctx, QueueEmail, Job{Type: "email", Payload: raw})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue string, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := d.rdb.LPush(ctx, queue, data).Err(); err != nil {
		return err
	}
	log.Debug().Str("queue", queue).Str("type", job.Type).Msg("pool: job enqueued")
	return nil
}

// StartWorkerPool launches size goroutines consuming queue and dispatching
// each job to the handler registered for its type. Unknown types go to the
// DLQ rather than being silently dropped. Respects ctx for shutdown.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, queue string, size int, handlers map[string]Handler) {
	for i := 0; i < size; i++ {
		go workerLoop(ctx, rdb, queue, i, handlers)
	}
	log.Info().Str("queue", queue).Int("workers", size).Msg("pool: worker pool started")
}

func workerLoop(ctx context.Context, rdb *redis.Client, queue string, id int, handlers map[string]Handler) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("queue", queue).Int("worker", id).Msg("pool: worker shutting down")
			return
		default:
		}

		// BRPOP with timeout so the ctx check above runs periodically
		result, err := rdb.BRPop(ctx, brpopTimeout, queue).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			log.Error().Err(err).Str("queue", queue).Msg("pool: BRPOP failed")
			time.Sleep(time.Second)
			continue
		}
		if len(result) < 2 {
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			SendToDLQ(ctx, rdb, queue, "unknown", json.RawMessage(result[1]), "malformed job envelope", 0)
			continue
		}

		handler, ok := handlers[job.Type]
		if !ok {
			SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, "no handler registered for job type", 0)
			continue
		}

		handler.Process(ctx, job.Payload)
	}
}
