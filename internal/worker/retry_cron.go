package worker

// retry_cron.go
// Background goroutine that periodically sweeps comprobantes stuck in
// pendiente/rechazado with an elapsed backoff window and re-enqueues them.
// Skips the tick entirely while the circuit breaker is open.

import (
	"context"
	"fmt"
	"time"

	"ferreteria/internal/infra"
	"ferreteria/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// RetryCronConfig holds the dependencies of the retry goroutine.
type RetryCronConfig struct {
	Comprobantes repository.ComprobanteRepository
	CB           *infra.CircuitBreaker
	Dispatcher   *Dispatcher
	RDB          *redis.Client
}

// StartRetryCron launches the sweep goroutine. Respects ctx for shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	// No point re-enqueueing work the workers will fast-fail
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker open, skipping tick")
		return
	}

	pendientes, err := cfg.Comprobantes.ListPendientesRetry(ctx, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: query failed")
		return
	}
	if len(pendientes) == 0 {
		return
	}

	log.Info().Int("count", len(pendientes)).Msg("retry_cron: re-enqueueing pending comprobantes")

	for i := range pendientes {
		comp := &pendientes[i]

		if comp.RetryCount >= MaxComprobanteRetries {
			// Exhausted: park it in the DLQ and stop the cron from seeing it
			payload := fmt.Sprintf(`{"comprobante_id":"%s","venta_id":"%s"}`, comp.ID, comp.VentaID)
			reason := fmt.Sprintf("max retries (%d) exceeded", MaxComprobanteRetries)
			if comp.LastError != nil {
				reason = fmt.Sprintf("%s: %s", reason, *comp.LastError)
			}
			SendToDLQ(ctx, cfg.RDB, QueueComprobantes, "comprobante", []byte(payload), reason, comp.RetryCount)

			comp.Estado = "error"
			comp.NextRetryAt = nil
			if err := cfg.Comprobantes.Update(ctx, comp); err != nil {
				log.Error().Err(err).Str("comprobante_id", comp.ID.String()).
					Msg("retry_cron: failed to park exhausted comprobante")
			}
			continue
		}

		if err := cfg.Dispatcher.EncolarComprobante(ctx, comp.ID, nil); err != nil {
			log.Error().Err(err).Str("comprobante_id", comp.ID.String()).
				Msg("retry_cron: enqueue failed")
			continue
		}

		// Push next_retry_at forward so the next tick does not double-enqueue
		// while the job sits in the queue
		next := time.Now().Add(computeRetryBackoff(comp.RetryCount + 1))
		comp.NextRetryAt = &next
		if err := cfg.Comprobantes.Update(ctx, comp); err != nil {
			log.Error().Err(err).Str("comprobante_id", comp.ID.String()).
				Msg("retry_cron: failed to advance retry window")
		}
	}
}
