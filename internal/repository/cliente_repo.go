package repository

import (
	"context"

	"ferreteria/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClienteRepository interface {
	Create(ctx context.Context, c *model.Cliente) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error)
	FindByDocumento(ctx context.Context, numDocumento string) (*model.Cliente, error)
	List(ctx context.Context, busqueda string, page, limit int) ([]model.Cliente, int64, error)
	Update(ctx context.Context, c *model.Cliente) error
	SetActivo(ctx context.Context, id uuid.UUID, activo bool) error
}

type clienteRepo struct{ db *gorm.DB }

func NewClienteRepository(db *gorm.DB) ClienteRepository { return &clienteRepo{db: db} }

func (r *clienteRepo) Create(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *clienteRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *clienteRepo) FindByDocumento(ctx context.Context, numDocumento string) (*model.Cliente, error) {
	var c model.Cliente
	err := r.db.WithContext(ctx).Where("num_documento = ?", numDocumento).First(&c).Error
	return &c, err
}

func (r *clienteRepo) List(ctx context.Context, busqueda string, page, limit int) ([]model.Cliente, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Cliente{}).Where("activo")
	if busqueda != "" {
		like := "%" + busqueda + "%"
		q = q.Where("nombre ILIKE ? OR num_documento = ?", like, busqueda)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var clientes []model.Cliente
	err := q.Order("nombre ASC").Offset((page - 1) * limit).Limit(limit).Find(&clientes).Error
	return clientes, total, err
}

func (r *clienteRepo) Update(ctx context.Context, c *model.Cliente) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *clienteRepo) SetActivo(ctx context.Context, id uuid.UUID, activo bool) error {
	return r.db.WithContext(ctx).Model(&model.Cliente{}).
		Where("id = ?", id).Update("activo", activo).Error
}
