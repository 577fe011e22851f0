package repository

import (
	"context"
	"errors"
	"time"

	"ferreteria/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrSesionYaCerrada is returned by CerrarSesion when the guarded UPDATE
// matched no open row: the session does not exist or was already closed.
// CERRADA is terminal — there is no code path that reopens a session.
var ErrSesionYaCerrada = errors.New("la sesión no existe o ya fue cerrada")

// TotalesSesion are the drawer totals derived from the movement ledger.
// Egresos is a positive magnitude (stored negative, reported absolute).
type TotalesSesion struct {
	TotalVentas   decimal.Decimal
	TotalIngresos decimal.Decimal
	TotalEgresos  decimal.Decimal
}

type CajaRepository interface {
	FindCajaByID(ctx context.Context, id uuid.UUID) (*model.Caja, error)
	ListCajas(ctx context.Context) ([]model.Caja, error)

	CreateSesion(ctx context.Context, s *model.SesionCaja) error
	FindSesionByID(ctx context.Context, id uuid.UUID) (*model.SesionCaja, error)
	FindSesionAbiertaPorCaja(ctx context.Context, cajaID uuid.UUID) (*model.SesionCaja, error)
	FindSesionAbiertaPorUsuario(ctx context.Context, usuarioID uuid.UUID) (*model.SesionCaja, error)
	// CerrarSesion persists the closing snapshot with an estado guard:
	// only an ABIERTA row is updated, so a concurrent double-close loses.
	CerrarSesion(ctx context.Context, s *model.SesionCaja) error
	ListSesiones(ctx context.Context, estado string, page, limit int) ([]model.SesionCaja, int64, error)

	CreateMovimiento(ctx context.Context, m *model.MovimientoCaja) error
	CreateMovimientoTx(tx *gorm.DB, m *model.MovimientoCaja) error
	SumTotales(ctx context.Context, sesionCajaID uuid.UUID) (TotalesSesion, error)
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) FindCajaByID(ctx context.Context, id uuid.UUID) (*model.Caja, error) {
	var c model.Caja
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	return &c, err
}

func (r *cajaRepo) ListCajas(ctx context.Context) ([]model.Caja, error) {
	var cajas []model.Caja
	err := r.db.WithContext(ctx).Order("nombre ASC").Find(&cajas).Error
	return cajas, err
}

func (r *cajaRepo) CreateSesion(ctx context.Context, s *model.SesionCaja) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *cajaRepo) FindSesionByID(ctx context.Context, id uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := r.db.WithContext(ctx).Preload("Caja").First(&s, "id = ?", id).Error
	return &s, err
}

func (r *cajaRepo) FindSesionAbiertaPorCaja(ctx context.Context, cajaID uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := r.db.WithContext(ctx).
		Where("caja_id = ? AND estado = ?", cajaID, model.SesionAbierta).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &s, err
}

func (r *cajaRepo) FindSesionAbiertaPorUsuario(ctx context.Context, usuarioID uuid.UUID) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := r.db.WithContext(ctx).Preload("Caja").
		Where("usuario_id = ? AND estado = ?", usuarioID, model.SesionAbierta).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &s, err
}

func (r *cajaRepo) CerrarSesion(ctx context.Context, s *model.SesionCaja) error {
	res := r.db.WithContext(ctx).Model(&model.SesionCaja{}).
		Where("id = ? AND estado = ?", s.ID, model.SesionAbierta).
		Updates(map[string]interface{}{
			"estado":         model.SesionCerrada,
			"monto_final":    s.MontoFinal,
			"monto_esperado": s.MontoEsperado,
			"diferencia":     s.Diferencia,
			"clasificacion":  s.Clasificacion,
			"tipo_cierre":    s.TipoCierre,
			"motivo_cierre":  s.MotivoCierre,
			"cerrada_por_id": s.CerradaPorID,
			"fecha_cierre":   time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSesionYaCerrada
	}
	return nil
}

func (r *cajaRepo) ListSesiones(ctx context.Context, estado string, page, limit int) ([]model.SesionCaja, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.SesionCaja{}).Preload("Caja")
	if estado != "" {
		q = q.Where("estado = ?", estado)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var sesiones []model.SesionCaja
	err := q.Order("fecha_apertura DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&sesiones).Error
	return sesiones, total, err
}

func (r *cajaRepo) CreateMovimiento(ctx context.Context, m *model.MovimientoCaja) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *cajaRepo) CreateMovimientoTx(tx *gorm.DB, m *model.MovimientoCaja) error {
	return tx.Create(m).Error
}

func (r *cajaRepo) SumTotales(ctx context.Context, sesionCajaID uuid.UUID) (TotalesSesion, error) {
	rows := []struct {
		Tipo string
		Suma decimal.Decimal
	}{}
	err := r.db.WithContext(ctx).Model(&model.MovimientoCaja{}).
		Select("tipo, COALESCE(SUM(monto), 0) AS suma").
		Where("sesion_caja_id = ?", sesionCajaID).
		Group("tipo").
		Scan(&rows).Error
	if err != nil {
		return TotalesSesion{}, err
	}

	t := TotalesSesion{
		TotalVentas:   decimal.Zero,
		TotalIngresos: decimal.Zero,
		TotalEgresos:  decimal.Zero,
	}
	for _, row := range rows {
		switch row.Tipo {
		case model.MovVenta, model.MovAnulacion:
			// anulaciones are inverse (negative) venta entries
			t.TotalVentas = t.TotalVentas.Add(row.Suma)
		case model.MovIngreso:
			t.TotalIngresos = t.TotalIngresos.Add(row.Suma)
		case model.MovEgreso:
			t.TotalEgresos = t.TotalEgresos.Add(row.Suma.Abs())
		}
	}
	return t, nil
}
