package repository

import (
	"context"

	"ferreteria/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrdenCompraRepository interface {
	DB() *gorm.DB
	Create(ctx context.Context, o *model.OrdenCompra) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.OrdenCompra, error)
	List(ctx context.Context, estado string, page, limit int) ([]model.OrdenCompra, int64, error)
	// MarcarRecibidaTx flips PENDIENTE -> RECIBIDA with an estado guard so a
	// double reception cannot move stock twice.
	MarcarRecibidaTx(tx *gorm.DB, id uuid.UUID) error
	MarcarAnulada(ctx context.Context, id uuid.UUID) error

	CreateProveedor(ctx context.Context, p *model.Proveedor) error
	FindProveedorByID(ctx context.Context, id uuid.UUID) (*model.Proveedor, error)
	ListProveedores(ctx context.Context) ([]model.Proveedor, error)
	UpdateProveedor(ctx context.Context, p *model.Proveedor) error
}

type ordenCompraRepo struct{ db *gorm.DB }

func NewOrdenCompraRepository(db *gorm.DB) OrdenCompraRepository { return &ordenCompraRepo{db: db} }

func (r *ordenCompraRepo) DB() *gorm.DB { return r.db }

func (r *ordenCompraRepo) Create(ctx context.Context, o *model.OrdenCompra) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *ordenCompraRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.OrdenCompra, error) {
	var o model.OrdenCompra
	err := r.db.WithContext(ctx).
		Preload("Items").Preload("Items.Producto").Preload("Proveedor").
		First(&o, "id = ?", id).Error
	return &o, err
}

func (r *ordenCompraRepo) List(ctx context.Context, estado string, page, limit int) ([]model.OrdenCompra, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.OrdenCompra{}).Preload("Proveedor")
	if estado != "" {
		q = q.Where("estado = ?", estado)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ordenes []model.OrdenCompra
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&ordenes).Error
	return ordenes, total, err
}

func (r *ordenCompraRepo) MarcarRecibidaTx(tx *gorm.DB, id uuid.UUID) error {
	res := tx.Model(&model.OrdenCompra{}).
		Where("id = ? AND estado = ?", id, model.OrdenPendiente).
		Updates(map[string]interface{}{
			"estado":          model.OrdenRecibida,
			"fecha_recepcion": gorm.Expr("now()"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ordenCompraRepo) MarcarAnulada(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.OrdenCompra{}).
		Where("id = ? AND estado = ?", id, model.OrdenPendiente).
		Update("estado", model.OrdenAnulada)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *ordenCompraRepo) CreateProveedor(ctx context.Context, p *model.Proveedor) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ordenCompraRepo) FindProveedorByID(ctx context.Context, id uuid.UUID) (*model.Proveedor, error) {
	var p model.Proveedor
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *ordenCompraRepo) ListProveedores(ctx context.Context) ([]model.Proveedor, error) {
	var proveedores []model.Proveedor
	err := r.db.WithContext(ctx).Where("activo").Order("razon_social ASC").Find(&proveedores).Error
	return proveedores, err
}

func (r *ordenCompraRepo) UpdateProveedor(ctx context.Context, p *model.Proveedor) error {
	return r.db.WithContext(ctx).Save(p).Error
}
