package repository

import (
	"context"
	"errors"

	"ferreteria/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type FiscalRepository interface {
	// GetConfig returns the single fiscal row, creating a default one on
	// first access so the IGV rate is always resolvable.
	GetConfig(ctx context.Context) (*model.ConfiguracionFiscal, error)
	UpdateConfig(ctx context.Context, c *model.ConfiguracionFiscal) error

	CreateSerie(ctx context.Context, s *model.SerieComprobante) error
	ListSeries(ctx context.Context) ([]model.SerieComprobante, error)
	FindSerieActiva(ctx context.Context, tipo string) (*model.SerieComprobante, error)
	SetSerieActiva(ctx context.Context, serie string, activa bool) error
}

type fiscalRepo struct{ db *gorm.DB }

func NewFiscalRepository(db *gorm.DB) FiscalRepository { return &fiscalRepo{db: db} }

func (r *fiscalRepo) GetConfig(ctx context.Context) (*model.ConfiguracionFiscal, error) {
	var c model.ConfiguracionFiscal
	err := r.db.WithContext(ctx).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c = model.ConfiguracionFiscal{
			RUC:           "00000000000",
			RazonSocial:   "FERRETERIA S.A.C.",
			Direccion:     "-",
			IGVPorcentaje: decimal.NewFromInt(18),
		}
		if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
			return nil, err
		}
		return &c, nil
	}
	return &c, err
}

func (r *fiscalRepo) UpdateConfig(ctx context.Context, c *model.ConfiguracionFiscal) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *fiscalRepo) CreateSerie(ctx context.Context, s *model.SerieComprobante) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *fiscalRepo) ListSeries(ctx context.Context) ([]model.SerieComprobante, error) {
	var series []model.SerieComprobante
	err := r.db.WithContext(ctx).Order("serie ASC").Find(&series).Error
	return series, err
}

func (r *fiscalRepo) FindSerieActiva(ctx context.Context, tipo string) (*model.SerieComprobante, error) {
	var s model.SerieComprobante
	err := r.db.WithContext(ctx).
		Where("tipo = ? AND activa", tipo).
		Order("serie ASC").
		First(&s).Error
	return &s, err
}

func (r *fiscalRepo) SetSerieActiva(ctx context.Context, serie string, activa bool) error {
	return r.db.WithContext(ctx).Model(&model.SerieComprobante{}).
		Where("serie = ?", serie).Update("activa", activa).Error
}
