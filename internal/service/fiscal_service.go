package service

import (
	"context"

	"ferreteria/internal/dto"
	"ferreteria/internal/model"
	"ferreteria/internal/repository"

	"github.com/rs/zerolog/log"
)

type FiscalService interface {
	ObtenerConfiguracion(ctx context.Context) (*dto.ConfiguracionFiscalResponse, error)
	ActualizarConfiguracion(ctx context.Context, req dto.ConfiguracionFiscalRequest) (*dto.ConfiguracionFiscalResponse, error)
	CrearSerie(ctx context.Context, req dto.CrearSerieRequest) (*dto.SerieResponse, error)
	ListarSeries(ctx context.Context) ([]dto.SerieResponse, error)
}

type fiscalService struct {
	repo repository.FiscalRepository
}

func NewFiscalService(repo repository.FiscalRepository) FiscalService {
	return &fiscalService{repo: repo}
}

func (s *fiscalService) ObtenerConfiguracion(ctx context.Context) (*dto.ConfiguracionFiscalResponse, error) {
	config, err := s.repo.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	return s.toConfigResponse(config), nil
}

func (s *fiscalService) ActualizarConfiguracion(ctx context.Context, req dto.ConfiguracionFiscalRequest) (*dto.ConfiguracionFiscalResponse, error) {
	config, err := s.repo.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	config.RUC = req.RUC
	config.RazonSocial = req.RazonSocial
	config.Direccion = req.Direccion
	config.IGVPorcentaje = req.IGVPorcentaje

	if err := s.repo.UpdateConfig(ctx, config); err != nil {
		return nil, err
	}
	log.Info().
		Str("ruc", config.RUC).
		Str("igv", config.IGVPorcentaje.String()).
		Msg("configuración fiscal actualizada")
	return s.toConfigResponse(config), nil
}

func (s *fiscalService) CrearSerie(ctx context.Context, req dto.CrearSerieRequest) (*dto.SerieResponse, error) {
	serie := &model.SerieComprobante{
		Tipo:   req.Tipo,
		Serie:  req.Serie,
		Activa: true,
	}
	if err := s.repo.CreateSerie(ctx, serie); err != nil {
		return nil, err
	}
	return s.toSerieResponse(serie), nil
}

func (s *fiscalService) ListarSeries(ctx context.Context) ([]dto.SerieResponse, error) {
	series, err := s.repo.ListSeries(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SerieResponse, 0, len(series))
	for i := range series {
		out = append(out, *s.toSerieResponse(&series[i]))
	}
	return out, nil
}

func (s *fiscalService) toConfigResponse(c *model.ConfiguracionFiscal) *dto.ConfiguracionFiscalResponse {
	return &dto.ConfiguracionFiscalResponse{
		RUC:           c.RUC,
		RazonSocial:   c.RazonSocial,
		Direccion:     c.Direccion,
		IGVPorcentaje: c.IGVPorcentaje,
	}
}

func (s *fiscalService) toSerieResponse(serie *model.SerieComprobante) *dto.SerieResponse {
	return &dto.SerieResponse{
		ID:          serie.ID.String(),
		Tipo:        serie.Tipo,
		Serie:       serie.Serie,
		Correlativo: serie.Correlativo,
		Activa:      serie.Activa,
	}
}
