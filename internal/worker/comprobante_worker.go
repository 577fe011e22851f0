package worker

// comprobante_worker.go
// Emits a Comprobante through the SUNAT sidecar: retry with backoff inside
// the call, circuit breaker around it, estado transitions in the DB, then
// PDF generation and an email job when the customer left an address.

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ferreteria/internal/infra"
	"ferreteria/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	// MaxComprobanteRetries is the cap applied by the retry cron; the inline
	// withRetry below is per-call and much shorter.
	MaxComprobanteRetries = 5

	inlineRetries = 3
)

// ComprobanteWorker handles jobs from QueueComprobantes.
type ComprobanteWorker struct {
	comprobantes repository.ComprobanteRepository
	fiscal       repository.FiscalRepository
	sunat        *infra.SUNATClient
	cb           *infra.CircuitBreaker
	dispatcher   *Dispatcher
	pdfPath      string
}

func NewComprobanteWorker(
	comprobantes repository.ComprobanteRepository,
	fiscal repository.FiscalRepository,
	sunat *infra.SUNATClient,
	cb *infra.CircuitBreaker,
	dispatcher *Dispatcher,
	pdfPath string,
) *ComprobanteWorker {
	return &ComprobanteWorker{
		comprobantes: comprobantes,
		fiscal:       fiscal,
		sunat:        sunat,
		cb:           cb,
		dispatcher:   dispatcher,
		pdfPath:      pdfPath,
	}
}

// Process emits one comprobante. Failures never panic the pool: the row keeps
// its retry metadata and the cron re-attempts later.
func (w *ComprobanteWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ComprobanteJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("comprobante_worker: invalid payload")
		return
	}

	comp, err := w.comprobantes.FindByID(ctx, payload.ComprobanteID)
	if err != nil {
		log.Error().Err(err).
			Str("comprobante_id", payload.ComprobanteID.String()).
			Msg("comprobante_worker: comprobante not found")
		return
	}
	if comp.Estado == "emitido" || comp.Estado == "anulado" {
		log.Debug().
			Str("comprobante_id", comp.ID.String()).
			Str("estado", comp.Estado).
			Msg("comprobante_worker: nothing to do")
		return
	}

	fiscalCfg, err := w.fiscal.GetConfig(ctx)
	if err != nil {
		log.Error().Err(err).Msg("comprobante_worker: fiscal config unavailable")
		return
	}

	sunatPayload := infra.SUNATPayload{
		Tipo:        comp.Tipo,
		Serie:       comp.Serie,
		Correlativo: comp.Correlativo,
		RUCEmisor:   fiscalCfg.RUC,
		MontoNeto:   comp.MontoNeto.InexactFloat64(),
		MontoIGV:    comp.MontoIGV.InexactFloat64(),
		MontoTotal:  comp.MontoTotal.InexactFloat64(),
		VentaID:     comp.VentaID.String(),
	}

	var resp *infra.SUNATResponse
	cbErr := w.cb.Execute(func() error {
		return withRetry(ctx, inlineRetries, func() error {
			r, err := w.sunat.Emitir(ctx, sunatPayload)
			if err != nil {
				return err
			}
			resp = r
			return nil
		})
	})

	if cbErr != nil {
		// Sidecar unreachable or CB open: keep pendiente, schedule the cron
		nextRetry := time.Now().Add(computeRetryBackoff(comp.RetryCount + 1))
		if err := w.comprobantes.MarcarRechazado(ctx, comp.ID, cbErr.Error(), nextRetry); err != nil {
			log.Error().Err(err).Str("comprobante_id", comp.ID.String()).
				Msg("comprobante_worker: failed to record retry state")
			return
		}
		log.Warn().Err(cbErr).
			Str("comprobante_id", comp.ID.String()).
			Time("next_retry_at", nextRetry).
			Msg("comprobante_worker: emission failed, scheduled retry")
		return
	}

	if resp.Resultado != "A" {
		// SUNAT rejected the document itself. Retrying the same payload is
		// pointless, so no next_retry_at in the near past: the cron will still
		// pick it up but operators are expected to fix the cause first.
		causa := formatObservaciones(resp)
		nextRetry := time.Now().Add(computeRetryBackoff(MaxComprobanteRetries))
		if err := w.comprobantes.MarcarRechazado(ctx, comp.ID, causa, nextRetry); err != nil {
			log.Error().Err(err).Str("comprobante_id", comp.ID.String()).
				Msg("comprobante_worker: failed to record rejection")
			return
		}
		log.Warn().
			Str("comprobante_id", comp.ID.String()).
			Str("causa", causa).
			Msg("comprobante_worker: SUNAT rejected comprobante")
		return
	}

	if err := w.comprobantes.MarcarEmitido(ctx, comp.ID, resp.Hash); err != nil {
		log.Error().Err(err).Str("comprobante_id", comp.ID.String()).
			Msg("comprobante_worker: failed to mark emitido")
		return
	}
	log.Info().
		Str("comprobante_id", comp.ID.String()).
		Str("hash", resp.Hash).
		Msgf("comprobante_worker: %s-%d emitido", comp.Serie, comp.Correlativo)

	// PDF + email are best-effort: the comprobante is already emitido
	if comp.Venta == nil {
		log.Warn().Str("comprobante_id", comp.ID.String()).
			Msg("comprobante_worker: venta not preloaded, skipping PDF")
		return
	}

	pdfFile, err := infra.GenerateComprobantePDF(comp.Venta, fiscalCfg.RazonSocial, fiscalCfg.RUC, w.pdfPath)
	if err != nil {
		log.Error().Err(err).Str("comprobante_id", comp.ID.String()).
			Msg("comprobante_worker: PDF generation failed")
		return
	}
	if err := w.comprobantes.SetPDFPath(ctx, comp.ID, pdfFile); err != nil {
		log.Error().Err(err).Str("comprobante_id", comp.ID.String()).
			Msg("comprobante_worker: failed to save PDF path")
	}

	if payload.Email != nil && *payload.Email != "" {
		emailJob := EmailJobPayload{
			ToEmail: *payload.Email,
			Subject: fmt.Sprintf("Tu comprobante %s-%08d", comp.Serie, comp.Correlativo),
			Body: fmt.Sprintf("Gracias por tu compra en %s.\n\nAdjuntamos tu comprobante %s-%08d por S/ %s.",
				fiscalCfg.RazonSocial, comp.Serie, comp.Correlativo, comp.MontoTotal.StringFixed(2)),
			PDFPath: pdfFile,
		}
		if err := w.dispatcher.EncolarEmail(ctx, emailJob); err != nil {
			log.Error().Err(err).Str("to", *payload.Email).
				Msg("comprobante_worker: failed to enqueue email")
		}
	}
}

// withRetry runs fn up to attempts times with exponential backoff (1s, 2s).
// Aborts early if ctx is cancelled.
func withRetry(ctx context.Context, attempts int, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err = fn(); err == nil {
			return nil
		}
	}
	return err
}

// computeRetryBackoff spaces cron retries further apart on each failure:
// 1m, 2m, 4m, 8m... capped at 30m.
func computeRetryBackoff(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	backoff := time.Duration(1<<(retryCount-1)) * time.Minute
	if backoff > 30*time.Minute {
		backoff = 30 * time.Minute
	}
	return backoff
}

func formatObservaciones(resp *infra.SUNATResponse) string {
	if len(resp.Observaciones) == 0 {
		return "SUNAT rechazó el comprobante sin observaciones"
	}
	parts := make([]string, 0, len(resp.Observaciones))
	for _, obs := range resp.Observaciones {
		parts = append(parts, fmt.Sprintf("%s: %s", obs.Codigo, obs.Mensaje))
	}
	return strings.Join(parts, "; ")
}
