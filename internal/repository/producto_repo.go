package repository

import (
	"context"

	"ferreteria/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductoRepository interface {
	Create(ctx context.Context, p *model.Producto) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Producto, error)
	FindByBarcode(ctx context.Context, barcode string) (*model.Producto, error)
	List(ctx context.Context, busqueda, categoria string, soloActivos bool, page, limit int) ([]model.Producto, int64, error)
	Update(ctx context.Context, p *model.Producto) error
	SetActivo(ctx context.Context, id uuid.UUID, activo bool) error
	// AjustarStock applies a signed delta. The WHERE guard keeps stock from
	// going negative under concurrent writes. Used by manual corrections.
	AjustarStock(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error
	// AjustarStockTx is the in-transaction variant for the sale flow.
	AjustarStockTx(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error
	ListBajoStock(ctx context.Context) ([]model.Producto, error)

	CreateMovimientoStockTx(tx *gorm.DB, m *model.MovimientoStock) error
	CreateMovimientoStock(ctx context.Context, m *model.MovimientoStock) error
	ListMovimientosStock(ctx context.Context, productoID *uuid.UUID, page, limit int) ([]model.MovimientoStock, int64, error)
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) Create(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productoRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := tx.First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productoRepo) FindByBarcode(ctx context.Context, barcode string) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).Where("codigo_barras = ? AND activo", barcode).First(&p).Error
	return &p, err
}

func (r *productoRepo) List(ctx context.Context, busqueda, categoria string, soloActivos bool, page, limit int) ([]model.Producto, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Producto{})
	if soloActivos {
		q = q.Where("activo")
	}
	if categoria != "" {
		q = q.Where("categoria = ?", categoria)
	}
	if busqueda != "" {
		like := "%" + busqueda + "%"
		q = q.Where("nombre ILIKE ? OR codigo_barras = ?", like, busqueda)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var productos []model.Producto
	err := q.Order("nombre ASC").Offset((page - 1) * limit).Limit(limit).Find(&productos).Error
	return productos, total, err
}

func (r *productoRepo) Update(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productoRepo) SetActivo(ctx context.Context, id uuid.UUID, activo bool) error {
	return r.db.WithContext(ctx).Model(&model.Producto{}).
		Where("id = ?", id).Update("activo", activo).Error
}

func (r *productoRepo) AjustarStock(ctx context.Context, id uuid.UUID, delta decimal.Decimal) error {
	return ajustarStock(r.db.WithContext(ctx), id, delta)
}

func (r *productoRepo) AjustarStockTx(tx *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	if tx == nil {
		tx = r.db
	}
	return ajustarStock(tx, id, delta)
}

func ajustarStock(db *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	res := db.Model(&model.Producto{}).
		Where("id = ? AND stock + ? >= 0", id, delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productoRepo) ListBajoStock(ctx context.Context) ([]model.Producto, error) {
	var productos []model.Producto
	err := r.db.WithContext(ctx).
		Where("activo AND stock <= stock_minimo").
		Order("stock ASC").
		Find(&productos).Error
	return productos, err
}

func (r *productoRepo) CreateMovimientoStockTx(tx *gorm.DB, m *model.MovimientoStock) error {
	return tx.Create(m).Error
}

func (r *productoRepo) CreateMovimientoStock(ctx context.Context, m *model.MovimientoStock) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *productoRepo) ListMovimientosStock(ctx context.Context, productoID *uuid.UUID, page, limit int) ([]model.MovimientoStock, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.MovimientoStock{})
	if productoID != nil {
		q = q.Where("producto_id = ?", *productoID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var movs []model.MovimientoStock
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&movs).Error
	return movs, total, err
}
