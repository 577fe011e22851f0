package repository

import (
	"context"
	"time"

	"ferreteria/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ComprobanteRepository interface {
	Create(ctx context.Context, c *model.Comprobante) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Comprobante, error)
	FindByVentaID(ctx context.Context, ventaID uuid.UUID) (*model.Comprobante, error)
	Update(ctx context.Context, c *model.Comprobante) error
	// ListPendientesRetry returns rejected-or-pending comprobantes whose
	// backoff window has elapsed, oldest first, capped at limit.
	ListPendientesRetry(ctx context.Context, limit int) ([]model.Comprobante, error)
	MarcarEmitido(ctx context.Context, id uuid.UUID, hash string) error
	MarcarRechazado(ctx context.Context, id uuid.UUID, causa string, nextRetry time.Time) error
	SetPDFPath(ctx context.Context, id uuid.UUID, path string) error
}

type comprobanteRepo struct{ db *gorm.DB }

func NewComprobanteRepository(db *gorm.DB) ComprobanteRepository { return &comprobanteRepo{db: db} }

func (r *comprobanteRepo) Create(ctx context.Context, c *model.Comprobante) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *comprobanteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Comprobante, error) {
	var c model.Comprobante
	err := r.db.WithContext(ctx).Preload("Venta").First(&c, "id = ?", id).Error
	return &c, err
}

func (r *comprobanteRepo) FindByVentaID(ctx context.Context, ventaID uuid.UUID) (*model.Comprobante, error) {
	var c model.Comprobante
	err := r.db.WithContext(ctx).First(&c, "venta_id = ?", ventaID).Error
	return &c, err
}

func (r *comprobanteRepo) Update(ctx context.Context, c *model.Comprobante) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *comprobanteRepo) ListPendientesRetry(ctx context.Context, limit int) ([]model.Comprobante, error) {
	var pendientes []model.Comprobante
	err := r.db.WithContext(ctx).
		Where("estado IN ? AND (next_retry_at IS NULL OR next_retry_at <= now())",
			[]string{"pendiente", "rechazado"}).
		Order("created_at ASC").
		Limit(limit).
		Find(&pendientes).Error
	return pendientes, err
}

func (r *comprobanteRepo) MarcarEmitido(ctx context.Context, id uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).Model(&model.Comprobante{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"estado":        "emitido",
			"hash_sunat":    hash,
			"last_error":    nil,
			"next_retry_at": nil,
		}).Error
}

func (r *comprobanteRepo) MarcarRechazado(ctx context.Context, id uuid.UUID, causa string, nextRetry time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Comprobante{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"estado":        "rechazado",
			"last_error":    causa,
			"retry_count":   gorm.Expr("retry_count + 1"),
			"next_retry_at": nextRetry,
		}).Error
}

func (r *comprobanteRepo) SetPDFPath(ctx context.Context, id uuid.UUID, path string) error {
	return r.db.WithContext(ctx).Model(&model.Comprobante{}).
		Where("id = ?", id).Update("pdf_path", path).Error
}
