package service

import (
	"context"
	"errors"
	"time"

	"ferreteria/internal/apierror"
	"ferreteria/internal/arqueo"
	"ferreteria/internal/dto"
	"ferreteria/internal/model"
	"ferreteria/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CajaService owns the session lifecycle: NO_SESSION -> ABIERTA -> CERRADA.
// CERRADA is terminal; the only way past it is opening a new session.
type CajaService interface {
	ListCajas(ctx context.Context) ([]dto.CajaResponse, error)
	Apertura(ctx context.Context, usuarioID uuid.UUID, req dto.AperturaRequest) (*dto.SesionCajaResponse, error)
	Cierre(ctx context.Context, sesionID, usuarioID uuid.UUID, req dto.CierreRequest) (*dto.SesionCajaResponse, error)
	CierreAdministrativo(ctx context.Context, sesionID, supervisorID uuid.UUID, req dto.CierreAdministrativoRequest) (*dto.SesionCajaResponse, error)
	ArqueoPrevia(ctx context.Context, sesionID uuid.UUID, montoFinal *decimal.Decimal) (*dto.ArqueoResponse, error)
	RegistrarMovimiento(ctx context.Context, usuarioID uuid.UUID, req dto.MovimientoCajaRequest) (*dto.SesionCajaResponse, error)
	Historial(ctx context.Context, estado string, page, limit int) (*dto.HistorialSesionesResponse, error)
	SesionActiva(ctx context.Context, usuarioID uuid.UUID) (*dto.SesionCajaResponse, error)
}

type cajaService struct {
	repo repository.CajaRepository
}

func NewCajaService(repo repository.CajaRepository) CajaService {
	return &cajaService{repo: repo}
}

func (s *cajaService) ListCajas(ctx context.Context) ([]dto.CajaResponse, error) {
	cajas, err := s.repo.ListCajas(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CajaResponse, 0, len(cajas))
	for _, c := range cajas {
		out = append(out, dto.CajaResponse{
			ID:     c.ID.String(),
			Nombre: c.Nombre,
			Activa: c.Activa,
		})
	}
	return out, nil
}

func (s *cajaService) Apertura(ctx context.Context, usuarioID uuid.UUID, req dto.AperturaRequest) (*dto.SesionCajaResponse, error) {
	cajaID, err := uuid.Parse(req.CajaID)
	if err != nil {
		return nil, apierror.BadRequest("caja_id inválido")
	}

	caja, err := s.repo.FindCajaByID(ctx, cajaID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound(apierror.CodeCajaNoDisponible, "La caja no existe o no está disponible")
	}
	if err != nil {
		return nil, err
	}
	if !caja.Activa {
		return nil, apierror.NotFound(apierror.CodeCajaNoDisponible, "La caja no existe o no está disponible")
	}

	ocupada, err := s.repo.FindSesionAbiertaPorCaja(ctx, cajaID)
	if err != nil {
		return nil, err
	}
	if ocupada != nil {
		return nil, apierror.Conflict(apierror.CodeCajaOcupada,
			"La caja está siendo usada por otro usuario")
	}

	duplicada, err := s.repo.FindSesionAbiertaPorUsuario(ctx, usuarioID)
	if err != nil {
		return nil, err
	}
	if duplicada != nil {
		return nil, apierror.Conflict(apierror.CodeSesionDuplicada,
			"No puedes abrir otra caja: ya tienes una sesión abierta")
	}

	sesion := &model.SesionCaja{
		CajaID:        cajaID,
		UsuarioID:     usuarioID,
		Estado:        model.SesionAbierta,
		MontoInicial:  req.MontoInicial,
		FechaApertura: time.Now(),
	}
	if err := s.repo.CreateSesion(ctx, sesion); err != nil {
		return nil, err
	}
	sesion.Caja = *caja

	log.Info().
		Str("sesion_id", sesion.ID.String()).
		Str("caja", caja.Nombre).
		Str("usuario_id", usuarioID.String()).
		Str("monto_inicial", req.MontoInicial.StringFixed(2)).
		Msg("sesión de caja abierta")

	return s.toResponse(ctx, sesion)
}

func (s *cajaService) Cierre(ctx context.Context, sesionID, usuarioID uuid.UUID, req dto.CierreRequest) (*dto.SesionCajaResponse, error) {
	sesion, err := s.findSesion(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	if sesion.UsuarioID != usuarioID {
		return nil, apierror.Forbidden("Solo el dueño de la sesión puede cerrarla")
	}
	return s.cerrar(ctx, sesion, req.MontoFinal, model.CierreNormal, nil, usuarioID)
}

func (s *cajaService) CierreAdministrativo(ctx context.Context, sesionID, supervisorID uuid.UUID, req dto.CierreAdministrativoRequest) (*dto.SesionCajaResponse, error) {
	sesion, err := s.findSesion(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	motivo := req.Motivo
	return s.cerrar(ctx, sesion, req.MontoFinal, model.CierreAdministrativo, &motivo, supervisorID)
}

// cerrar is the single close path. Both the self-service close and the forced
// close compute the snapshot with arqueo.Calcular and persist it through the
// estado-guarded update, so a concurrent double close resolves to exactly one
// winner.
func (s *cajaService) cerrar(ctx context.Context, sesion *model.SesionCaja, montoFinal decimal.Decimal, tipoCierre string, motivo *string, cerradaPor uuid.UUID) (*dto.SesionCajaResponse, error) {
	if sesion.Estado != model.SesionAbierta {
		// Stale client: it thinks the session is still open. 404 tells it to
		// reload instead of retrying the close.
		return nil, apierror.NotFound(apierror.CodeSesionNoEncontrada, "La sesión no existe o ya fue cerrada")
	}

	totales, err := s.repo.SumTotales(ctx, sesion.ID)
	if err != nil {
		return nil, err
	}
	resultado := arqueo.Calcular(arqueo.Totales{
		MontoInicial:  sesion.MontoInicial,
		TotalVentas:   totales.TotalVentas,
		TotalIngresos: totales.TotalIngresos,
		TotalEgresos:  totales.TotalEgresos,
	}, montoFinal)

	sesion.Estado = model.SesionCerrada
	sesion.MontoFinal = &montoFinal
	sesion.MontoEsperado = &resultado.Esperado
	sesion.Diferencia = &resultado.Diferencia
	sesion.Clasificacion = &resultado.Clasificacion
	sesion.TipoCierre = &tipoCierre
	sesion.MotivoCierre = motivo
	sesion.CerradaPorID = &cerradaPor

	if err := s.repo.CerrarSesion(ctx, sesion); err != nil {
		if errors.Is(err, repository.ErrSesionYaCerrada) {
			return nil, apierror.NotFound(apierror.CodeSesionNoEncontrada, "La sesión no existe o ya fue cerrada")
		}
		return nil, err
	}
	now := time.Now()
	sesion.FechaCierre = &now

	log.Info().
		Str("sesion_id", sesion.ID.String()).
		Str("tipo_cierre", tipoCierre).
		Str("esperado", resultado.Esperado.StringFixed(2)).
		Str("diferencia", resultado.Diferencia.StringFixed(2)).
		Str("clasificacion", resultado.Clasificacion).
		Msg("sesión de caja cerrada")

	return s.toResponseConTotales(sesion, totales), nil
}

func (s *cajaService) ArqueoPrevia(ctx context.Context, sesionID uuid.UUID, montoFinal *decimal.Decimal) (*dto.ArqueoResponse, error) {
	sesion, err := s.findSesion(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	if sesion.Estado != model.SesionAbierta {
		return nil, apierror.NotFound(apierror.CodeSesionNoEncontrada, "La sesión no existe o ya fue cerrada")
	}

	totales, err := s.repo.SumTotales(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	esperado, resultado := arqueo.Previa(arqueo.Totales{
		MontoInicial:  sesion.MontoInicial,
		TotalVentas:   totales.TotalVentas,
		TotalIngresos: totales.TotalIngresos,
		TotalEgresos:  totales.TotalEgresos,
	}, montoFinal)

	resp := &dto.ArqueoResponse{MontoEsperado: esperado}
	if resultado != nil {
		resp.Diferencia = &resultado.Diferencia
		resp.Clasificacion = &resultado.Clasificacion
	}
	return resp, nil
}

func (s *cajaService) RegistrarMovimiento(ctx context.Context, usuarioID uuid.UUID, req dto.MovimientoCajaRequest) (*dto.SesionCajaResponse, error) {
	sesionID, err := uuid.Parse(req.SesionCajaID)
	if err != nil {
		return nil, apierror.BadRequest("sesion_caja_id inválido")
	}
	sesion, err := s.findSesion(ctx, sesionID)
	if err != nil {
		return nil, err
	}
	if sesion.Estado != model.SesionAbierta {
		return nil, apierror.Conflict("", "No se pueden registrar movimientos en una sesión cerrada")
	}
	if sesion.UsuarioID != usuarioID {
		return nil, apierror.Forbidden("La sesión pertenece a otro usuario")
	}

	monto := req.Monto
	if req.Tipo == model.MovEgreso {
		// egresos live in the ledger as negative entries
		monto = monto.Neg()
	}
	mov := &model.MovimientoCaja{
		SesionCajaID: sesion.ID,
		Tipo:         req.Tipo,
		Monto:        monto,
		Descripcion:  req.Descripcion,
	}
	if err := s.repo.CreateMovimiento(ctx, mov); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, sesion)
}

func (s *cajaService) Historial(ctx context.Context, estado string, page, limit int) (*dto.HistorialSesionesResponse, error) {
	sesiones, total, err := s.repo.ListSesiones(ctx, estado, page, limit)
	if err != nil {
		return nil, err
	}
	data := make([]dto.SesionCajaResponse, 0, len(sesiones))
	for i := range sesiones {
		resp, err := s.toResponse(ctx, &sesiones[i])
		if err != nil {
			return nil, err
		}
		data = append(data, *resp)
	}
	return &dto.HistorialSesionesResponse{Data: data, Total: total, Page: page, Limit: limit}, nil
}

func (s *cajaService) SesionActiva(ctx context.Context, usuarioID uuid.UUID) (*dto.SesionCajaResponse, error) {
	sesion, err := s.repo.FindSesionAbiertaPorUsuario(ctx, usuarioID)
	if err != nil {
		return nil, err
	}
	if sesion == nil {
		return nil, apierror.NotFound(apierror.CodeSesionNoEncontrada, "No tienes una sesión de caja abierta")
	}
	return s.toResponse(ctx, sesion)
}

func (s *cajaService) findSesion(ctx context.Context, id uuid.UUID) (*model.SesionCaja, error) {
	sesion, err := s.repo.FindSesionByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound(apierror.CodeSesionNoEncontrada, "La sesión de caja no existe")
	}
	if err != nil {
		return nil, err
	}
	return sesion, nil
}

func (s *cajaService) toResponse(ctx context.Context, sesion *model.SesionCaja) (*dto.SesionCajaResponse, error) {
	totales, err := s.repo.SumTotales(ctx, sesion.ID)
	if err != nil {
		return nil, err
	}
	return s.toResponseConTotales(sesion, totales), nil
}

func (s *cajaService) toResponseConTotales(sesion *model.SesionCaja, totales repository.TotalesSesion) *dto.SesionCajaResponse {
	resp := &dto.SesionCajaResponse{
		ID:            sesion.ID.String(),
		CajaID:        sesion.CajaID.String(),
		Caja:          sesion.Caja.Nombre,
		UsuarioID:     sesion.UsuarioID.String(),
		Estado:        sesion.Estado,
		MontoInicial:  sesion.MontoInicial,
		TotalVentas:   totales.TotalVentas,
		TotalIngresos: totales.TotalIngresos,
		TotalEgresos:  totales.TotalEgresos,
		MontoFinal:    sesion.MontoFinal,
		TipoCierre:    sesion.TipoCierre,
		MotivoCierre:  sesion.MotivoCierre,
		FechaApertura: sesion.FechaApertura.Format(time.RFC3339),
	}
	if sesion.FechaCierre != nil {
		fc := sesion.FechaCierre.Format(time.RFC3339)
		resp.FechaCierre = &fc
	}

	if sesion.Estado == model.SesionCerrada && sesion.MontoEsperado != nil {
		resp.Arqueo = dto.ArqueoResponse{
			MontoEsperado: *sesion.MontoEsperado,
			Diferencia:    sesion.Diferencia,
			Clasificacion: sesion.Clasificacion,
		}
	} else {
		esperado := arqueo.Totales{
			MontoInicial:  sesion.MontoInicial,
			TotalVentas:   totales.TotalVentas,
			TotalIngresos: totales.TotalIngresos,
			TotalEgresos:  totales.TotalEgresos,
		}.Esperado()
		resp.Arqueo = dto.ArqueoResponse{MontoEsperado: esperado}
	}
	return resp
}
