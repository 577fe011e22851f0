package repository

import (
	"context"
	"time"

	"ferreteria/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VentaRepository interface {
	// DB exposes the underlying handle so the service can open a transaction
	// spanning venta + stock + caja writes. Nil in unit tests.
	DB() *gorm.DB
	CreateTx(tx *gorm.DB, v *model.Venta) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error)
	FindByClaveIdempotencia(ctx context.Context, clave string) (*model.Venta, error)
	List(ctx context.Context, fecha, estado string, page, limit int) ([]model.Venta, int64, error)
	UpdateEstadoTx(tx *gorm.DB, id uuid.UUID, estado string) error
	// NextCorrelativoTx advances the series counter under a row lock so
	// correlative numbering per serie is gapless and race-free.
	NextCorrelativoTx(tx *gorm.DB, serie string) (int, error)
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) DB() *gorm.DB { return r.db }

func (r *ventaRepo) CreateTx(tx *gorm.DB, v *model.Venta) error {
	return tx.Create(v).Error
}

func (r *ventaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).
		Preload("Items").Preload("Items.Producto").Preload("Pagos").Preload("Cliente").
		First(&v, "id = ?", id).Error
	return &v, err
}

func (r *ventaRepo) FindByClaveIdempotencia(ctx context.Context, clave string) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).
		Preload("Items").Preload("Items.Producto").Preload("Pagos").
		First(&v, "clave_idempotencia = ?", clave).Error
	return &v, err
}

func (r *ventaRepo) List(ctx context.Context, fecha, estado string, page, limit int) ([]model.Venta, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Venta{}).
		Preload("Items").Preload("Items.Producto").Preload("Pagos")

	if estado != "" && estado != "all" {
		q = q.Where("estado = ?", estado)
	}
	dia := fecha
	if dia == "" {
		dia = time.Now().Format("2006-01-02")
	}
	q = q.Where("created_at::date = ?", dia)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ventas []model.Venta
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&ventas).Error
	return ventas, total, err
}

func (r *ventaRepo) UpdateEstadoTx(tx *gorm.DB, id uuid.UUID, estado string) error {
	return tx.Model(&model.Venta{}).Where("id = ?", id).Update("estado", estado).Error
}

func (r *ventaRepo) NextCorrelativoTx(tx *gorm.DB, serie string) (int, error) {
	var correlativo int
	err := tx.Raw(`
		UPDATE serie_comprobantes
		   SET correlativo = correlativo + 1, updated_at = now()
		 WHERE serie = ? AND activa
		 RETURNING correlativo`, serie).Scan(&correlativo).Error
	if err != nil {
		return 0, err
	}
	if correlativo == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return correlativo, nil
}
