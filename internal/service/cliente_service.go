package service

import (
	"context"
	"errors"

	"ferreteria/internal/apierror"
	"ferreteria/internal/dto"
	"ferreteria/internal/model"
	"ferreteria/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClienteService interface {
	Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error)
	BuscarPorDocumento(ctx context.Context, numDocumento string) (*dto.ClienteResponse, error)
	Listar(ctx context.Context, busqueda string, page, limit int) ([]dto.ClienteResponse, int64, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
}

type clienteService struct {
	repo repository.ClienteRepository
}

func NewClienteService(repo repository.ClienteRepository) ClienteService {
	return &clienteService{repo: repo}
}

func (s *clienteService) Crear(ctx context.Context, req dto.CrearClienteRequest) (*dto.ClienteResponse, error) {
	if existente, err := s.repo.FindByDocumento(ctx, req.NumDocumento); err == nil && existente != nil {
		return nil, apierror.Conflict("", "Ya existe un cliente con ese documento")
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	c := &model.Cliente{
		TipoDocumento: req.TipoDocumento,
		NumDocumento:  req.NumDocumento,
		Nombre:        req.Nombre,
		Email:         req.Email,
		Telefono:      req.Telefono,
		Direccion:     req.Direccion,
		Activo:        true,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return s.toResponse(c), nil
}

func (s *clienteService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("", "El cliente no existe")
	}
	if err != nil {
		return nil, err
	}
	return s.toResponse(c), nil
}

func (s *clienteService) BuscarPorDocumento(ctx context.Context, numDocumento string) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByDocumento(ctx, numDocumento)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("", "El cliente no existe")
	}
	if err != nil {
		return nil, err
	}
	return s.toResponse(c), nil
}

func (s *clienteService) Listar(ctx context.Context, busqueda string, page, limit int) ([]dto.ClienteResponse, int64, error) {
	clientes, total, err := s.repo.List(ctx, busqueda, page, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.ClienteResponse, 0, len(clientes))
	for i := range clientes {
		out = append(out, *s.toResponse(&clientes[i]))
	}
	return out, total, nil
}

func (s *clienteService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarClienteRequest) (*dto.ClienteResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("", "El cliente no existe")
	}
	if err != nil {
		return nil, err
	}

	if req.Nombre != nil {
		c.Nombre = *req.Nombre
	}
	if req.Email != nil {
		c.Email = req.Email
	}
	if req.Telefono != nil {
		c.Telefono = req.Telefono
	}
	if req.Direccion != nil {
		c.Direccion = req.Direccion
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return s.toResponse(c), nil
}

func (s *clienteService) Desactivar(ctx context.Context, id uuid.UUID) error {
	err := s.repo.SetActivo(ctx, id, false)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.NotFound("", "El cliente no existe")
	}
	return err
}

func (s *clienteService) toResponse(c *model.Cliente) *dto.ClienteResponse {
	return &dto.ClienteResponse{
		ID:            c.ID.String(),
		TipoDocumento: c.TipoDocumento,
		NumDocumento:  c.NumDocumento,
		Nombre:        c.Nombre,
		Email:         c.Email,
		Telefono:      c.Telefono,
		Direccion:     c.Direccion,
		Activo:        c.Activo,
	}
}
