package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ferreteria/internal/apierror"
	"ferreteria/internal/dto"
	"ferreteria/internal/model"
	"ferreteria/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const precioCacheTTL = 5 * time.Minute

type ProductoService interface {
	Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, f dto.ProductoFilter) (*dto.ProductoListResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Desactivar(ctx context.Context, id uuid.UUID) error
	// AjustarStock applies a signed manual correction with an audit motivo.
	AjustarStock(ctx context.Context, id uuid.UUID, usuarioID uuid.UUID, req dto.AjusteStockRequest) (*dto.ProductoResponse, error)
	AlertasStock(ctx context.Context) ([]dto.AlertaStockResponse, error)
	// ConsultarPrecio is the public barcode lookup, cached in Redis.
	ConsultarPrecio(ctx context.Context, barcode string) (*dto.PrecioResponse, error)
}

type productoService struct {
	repo repository.ProductoRepository
	rdb  *redis.Client
}

func NewProductoService(repo repository.ProductoRepository, rdb *redis.Client) ProductoService {
	return &productoService{repo: repo, rdb: rdb}
}

func (s *productoService) Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	p := &model.Producto{
		CodigoBarras:     req.CodigoBarras,
		Nombre:           req.Nombre,
		Descripcion:      req.Descripcion,
		Categoria:        req.Categoria,
		PrecioCompra:     req.PrecioCompra,
		PrecioVenta:      req.PrecioVenta,
		Stock:            req.Stock,
		StockMinimo:      req.StockMinimo,
		UnidadMedida:     req.UnidadMedida,
		PermiteDecimales: req.PermiteDecimales,
		Activo:           true,
	}
	if req.ProveedorID != nil {
		id, err := uuid.Parse(*req.ProveedorID)
		if err != nil {
			return nil, apierror.BadRequest("proveedor_id inválido")
		}
		p.ProveedorID = &id
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return s.toResponse(p), nil
}

func (s *productoService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("", "El producto no existe")
	}
	if err != nil {
		return nil, err
	}
	return s.toResponse(p), nil
}

func (s *productoService) Listar(ctx context.Context, f dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	productos, total, err := s.repo.List(ctx, f.Busqueda, f.Categoria, f.Activos, f.Page, f.Limit)
	if err != nil {
		return nil, err
	}
	data := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		data = append(data, *s.toResponse(&productos[i]))
	}
	return &dto.ProductoListResponse{Data: data, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func (s *productoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("", "El producto no existe")
	}
	if err != nil {
		return nil, err
	}

	if req.Nombre != nil {
		p.Nombre = *req.Nombre
	}
	if req.Descripcion != nil {
		p.Descripcion = req.Descripcion
	}
	if req.Categoria != nil {
		p.Categoria = *req.Categoria
	}
	if req.PrecioCompra != nil {
		p.PrecioCompra = *req.PrecioCompra
	}
	if req.PrecioVenta != nil {
		p.PrecioVenta = *req.PrecioVenta
	}
	if req.StockMinimo != nil {
		p.StockMinimo = *req.StockMinimo
	}
	if req.UnidadMedida != nil {
		p.UnidadMedida = *req.UnidadMedida
	}
	if req.PermiteDecimales != nil {
		p.PermiteDecimales = *req.PermiteDecimales
	}
	if req.ProveedorID != nil {
		pid, err := uuid.Parse(*req.ProveedorID)
		if err != nil {
			return nil, apierror.BadRequest("proveedor_id inválido")
		}
		p.ProveedorID = &pid
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	s.invalidarPrecio(ctx, p.CodigoBarras)
	return s.toResponse(p), nil
}

func (s *productoService) Desactivar(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.NotFound("", "El producto no existe")
	}
	if err != nil {
		return err
	}
	if err := s.repo.SetActivo(ctx, id, false); err != nil {
		return err
	}
	s.invalidarPrecio(ctx, p.CodigoBarras)
	return nil
}

func (s *productoService) AjustarStock(ctx context.Context, id uuid.UUID, usuarioID uuid.UUID, req dto.AjusteStockRequest) (*dto.ProductoResponse, error) {
	if req.Cantidad.IsZero() {
		return nil, apierror.BadRequest("El ajuste no puede ser cero")
	}
	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("", "El producto no existe")
	}
	if err != nil {
		return nil, err
	}

	if err := s.repo.AjustarStock(ctx, id, req.Cantidad); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.Conflict("", "El ajuste dejaría el stock en negativo")
		}
		return nil, err
	}
	mov := &model.MovimientoStock{
		ProductoID:    id,
		Tipo:          model.StockAjuste,
		Cantidad:      req.Cantidad,
		StockAnterior: p.Stock,
		StockNuevo:    p.Stock.Add(req.Cantidad),
		Motivo:        req.Motivo,
		ReferenciaID:  &usuarioID,
	}
	if err := s.repo.CreateMovimientoStock(ctx, mov); err != nil {
		return nil, err
	}

	log.Info().
		Str("producto_id", id.String()).
		Str("delta", req.Cantidad.String()).
		Str("motivo", req.Motivo).
		Msg("ajuste de stock")

	p.Stock = mov.StockNuevo
	return s.toResponse(p), nil
}

func (s *productoService) AlertasStock(ctx context.Context) ([]dto.AlertaStockResponse, error) {
	productos, err := s.repo.ListBajoStock(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AlertaStockResponse, 0, len(productos))
	for _, p := range productos {
		out = append(out, dto.AlertaStockResponse{
			ProductoID:  p.ID.String(),
			Nombre:      p.Nombre,
			Stock:       p.Stock,
			StockMinimo: p.StockMinimo,
		})
	}
	return out, nil
}

func precioKey(barcode string) string { return fmt.Sprintf("precio:%s", barcode) }

func (s *productoService) ConsultarPrecio(ctx context.Context, barcode string) (*dto.PrecioResponse, error) {
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, precioKey(barcode)).Result(); err == nil {
			var cached dto.PrecioResponse
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return &cached, nil
			}
		}
	}

	p, err := s.repo.FindByBarcode(ctx, barcode)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("", "Producto no encontrado")
	}
	if err != nil {
		return nil, err
	}
	resp := &dto.PrecioResponse{
		Nombre:       p.Nombre,
		PrecioVenta:  p.PrecioVenta,
		UnidadMedida: p.UnidadMedida,
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(resp); err == nil {
			if err := s.rdb.Set(ctx, precioKey(barcode), raw, precioCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Str("barcode", barcode).Msg("no se pudo cachear el precio")
			}
		}
	}
	return resp, nil
}

func (s *productoService) invalidarPrecio(ctx context.Context, barcode string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, precioKey(barcode)).Err(); err != nil {
		log.Warn().Err(err).Str("barcode", barcode).Msg("no se pudo invalidar el precio cacheado")
	}
}

func (s *productoService) toResponse(p *model.Producto) *dto.ProductoResponse {
	return &dto.ProductoResponse{
		ID:               p.ID.String(),
		CodigoBarras:     p.CodigoBarras,
		Nombre:           p.Nombre,
		Descripcion:      p.Descripcion,
		Categoria:        p.Categoria,
		PrecioCompra:     p.PrecioCompra,
		PrecioVenta:      p.PrecioVenta,
		Stock:            p.Stock,
		StockMinimo:      p.StockMinimo,
		UnidadMedida:     p.UnidadMedida,
		PermiteDecimales: p.PermiteDecimales,
		Activo:           p.Activo,
	}
}
