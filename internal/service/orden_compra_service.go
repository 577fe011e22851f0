package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ferreteria/internal/apierror"
	"ferreteria/internal/dto"
	"ferreteria/internal/model"
	"ferreteria/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrdenCompraService manages purchase orders: PENDIENTE -> RECIBIDA | ANULADA.
// Stock only moves on reception, and reception happens at most once.
type OrdenCompraService interface {
	Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearOrdenCompraRequest) (*dto.OrdenCompraResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.OrdenCompraResponse, error)
	Listar(ctx context.Context, estado string, page, limit int) ([]dto.OrdenCompraResponse, int64, error)
	Recibir(ctx context.Context, id uuid.UUID, usuarioID uuid.UUID) (*dto.OrdenCompraResponse, error)
	Anular(ctx context.Context, id uuid.UUID) error

	CrearProveedor(ctx context.Context, req dto.CrearProveedorRequest) (*dto.ProveedorResponse, error)
	ListarProveedores(ctx context.Context) ([]dto.ProveedorResponse, error)
}

type ordenCompraService struct {
	repo      repository.OrdenCompraRepository
	productos repository.ProductoRepository
	fiscal    repository.FiscalRepository
}

func NewOrdenCompraService(
	repo repository.OrdenCompraRepository,
	productos repository.ProductoRepository,
	fiscal repository.FiscalRepository,
) OrdenCompraService {
	return &ordenCompraService{repo: repo, productos: productos, fiscal: fiscal}
}

func (s *ordenCompraService) Crear(ctx context.Context, usuarioID uuid.UUID, req dto.CrearOrdenCompraRequest) (*dto.OrdenCompraResponse, error) {
	proveedorID, err := uuid.Parse(req.ProveedorID)
	if err != nil {
		return nil, apierror.BadRequest("proveedor_id inválido")
	}
	proveedor, err := s.repo.FindProveedorByID(ctx, proveedorID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("", "El proveedor no existe")
	}
	if err != nil {
		return nil, err
	}
	if !proveedor.Activo {
		return nil, apierror.BadRequest("El proveedor está inactivo")
	}

	orden := &model.OrdenCompra{
		ProveedorID:   proveedorID,
		UsuarioID:     usuarioID,
		Estado:        model.OrdenPendiente,
		Observaciones: req.Observaciones,
	}
	subtotal := decimal.Zero
	for _, it := range req.Items {
		productoID, err := uuid.Parse(it.ProductoID)
		if err != nil {
			return nil, apierror.BadRequest("producto_id inválido")
		}
		if _, err := s.productos.FindByID(ctx, productoID); errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.NotFound("", "Un producto de la orden no existe")
		} else if err != nil {
			return nil, err
		}
		lineaSubtotal := it.Cantidad.Mul(it.PrecioUnitario).Round(2)
		orden.Items = append(orden.Items, model.OrdenCompraItem{
			ProductoID:     productoID,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       lineaSubtotal,
		})
		subtotal = subtotal.Add(lineaSubtotal)
	}

	// purchase prices are pre-tax: IGV is added on top, frozen at creation
	config, err := s.fiscal.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	orden.Subtotal = subtotal
	orden.IGV = subtotal.Mul(config.IGVPorcentaje.Div(decimal.NewFromInt(100))).Round(2)
	orden.Total = orden.Subtotal.Add(orden.IGV)

	if err := s.repo.Create(ctx, orden); err != nil {
		return nil, err
	}
	orden.Proveedor = *proveedor

	log.Info().
		Int("numero", orden.Numero).
		Str("proveedor", proveedor.RazonSocial).
		Str("total", orden.Total.StringFixed(2)).
		Msg("orden de compra creada")

	return s.toResponse(orden), nil
}

func (s *ordenCompraService) Obtener(ctx context.Context, id uuid.UUID) (*dto.OrdenCompraResponse, error) {
	orden, err := s.findOrden(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(orden), nil
}

func (s *ordenCompraService) Listar(ctx context.Context, estado string, page, limit int) ([]dto.OrdenCompraResponse, int64, error) {
	ordenes, total, err := s.repo.List(ctx, estado, page, limit)
	if err != nil {
		return nil, 0, err
	}
	out := make([]dto.OrdenCompraResponse, 0, len(ordenes))
	for i := range ordenes {
		out = append(out, *s.toResponse(&ordenes[i]))
	}
	return out, total, nil
}

// Recibir marks the order received and moves every item into stock, all in
// one transaction. A second reception matches no PENDIENTE row and gets a
// 409, so stock never doubles.
func (s *ordenCompraService) Recibir(ctx context.Context, id uuid.UUID, usuarioID uuid.UUID) (*dto.OrdenCompraResponse, error) {
	orden, err := s.findOrden(ctx, id)
	if err != nil {
		return nil, err
	}
	if orden.Estado != model.OrdenPendiente {
		return nil, apierror.Conflict("", "La orden ya fue recibida o anulada")
	}

	err = runTx(s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.MarcarRecibidaTx(tx, orden.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierror.Conflict("", "La orden ya fue recibida o anulada")
			}
			return err
		}
		for _, it := range orden.Items {
			producto, err := s.productos.FindByIDTx(tx, it.ProductoID)
			if err != nil {
				return err
			}
			if err := s.productos.AjustarStockTx(tx, it.ProductoID, it.Cantidad); err != nil {
				return err
			}
			mov := &model.MovimientoStock{
				ProductoID:    it.ProductoID,
				Tipo:          model.StockRecepcionCompra,
				Cantidad:      it.Cantidad,
				StockAnterior: producto.Stock,
				StockNuevo:    producto.Stock.Add(it.Cantidad),
				Motivo:        fmt.Sprintf("Recepción orden #%d", orden.Numero),
				ReferenciaID:  &orden.ID,
			}
			if err := s.productos.CreateMovimientoStockTx(tx, mov); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	orden.Estado = model.OrdenRecibida
	now := time.Now()
	orden.FechaRecepcion = &now

	log.Info().
		Int("numero", orden.Numero).
		Str("usuario_id", usuarioID.String()).
		Msg("orden de compra recibida")

	return s.toResponse(orden), nil
}

func (s *ordenCompraService) Anular(ctx context.Context, id uuid.UUID) error {
	err := s.repo.MarcarAnulada(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.Conflict("", "La orden no está pendiente")
	}
	return err
}

func (s *ordenCompraService) CrearProveedor(ctx context.Context, req dto.CrearProveedorRequest) (*dto.ProveedorResponse, error) {
	p := &model.Proveedor{
		RazonSocial: req.RazonSocial,
		RUC:         req.RUC,
		Telefono:    req.Telefono,
		Email:       req.Email,
		Direccion:   req.Direccion,
		Activo:      true,
	}
	if err := s.repo.CreateProveedor(ctx, p); err != nil {
		return nil, err
	}
	return s.toProveedorResponse(p), nil
}

func (s *ordenCompraService) ListarProveedores(ctx context.Context) ([]dto.ProveedorResponse, error) {
	proveedores, err := s.repo.ListProveedores(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProveedorResponse, 0, len(proveedores))
	for i := range proveedores {
		out = append(out, *s.toProveedorResponse(&proveedores[i]))
	}
	return out, nil
}

func (s *ordenCompraService) findOrden(ctx context.Context, id uuid.UUID) (*model.OrdenCompra, error) {
	orden, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("", "La orden de compra no existe")
	}
	if err != nil {
		return nil, err
	}
	return orden, nil
}

func (s *ordenCompraService) toResponse(o *model.OrdenCompra) *dto.OrdenCompraResponse {
	resp := &dto.OrdenCompraResponse{
		ID:            o.ID.String(),
		Numero:        o.Numero,
		Proveedor:     o.Proveedor.RazonSocial,
		Subtotal:      o.Subtotal,
		IGV:           o.IGV,
		Total:         o.Total,
		Estado:        o.Estado,
		Observaciones: o.Observaciones,
		CreatedAt:     o.CreatedAt.Format(time.RFC3339),
	}
	for _, it := range o.Items {
		nombre := ""
		if it.Producto != nil {
			nombre = it.Producto.Nombre
		}
		resp.Items = append(resp.Items, dto.ItemOrdenCompraResponse{
			Producto:       nombre,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
		})
	}
	return resp
}

func (s *ordenCompraService) toProveedorResponse(p *model.Proveedor) *dto.ProveedorResponse {
	return &dto.ProveedorResponse{
		ID:          p.ID.String(),
		RazonSocial: p.RazonSocial,
		RUC:         p.RUC,
		Telefono:    p.Telefono,
		Email:       p.Email,
		Direccion:   p.Direccion,
		Activo:      p.Activo,
	}
}
