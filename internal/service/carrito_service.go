package service

import (
	"context"
	"errors"

	"ferreteria/internal/apierror"
	"ferreteria/internal/carrito"
	"ferreteria/internal/dto"
	"ferreteria/internal/model"
	"ferreteria/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CarritoService drives the storefront cart. Every mutation hydrates the cart
// from Redis, applies the shared quantity policy and persists the result, so
// the clamping rules are identical to the POS path.
type CarritoService interface {
	Crear(ctx context.Context) (*dto.CarritoResponse, error)
	Obtener(ctx context.Context, id string) (*dto.CarritoResponse, error)
	AgregarItem(ctx context.Context, id string, req dto.AgregarItemRequest) (*dto.CarritoResponse, error)
	Incrementar(ctx context.Context, id string, productoID uuid.UUID) (*dto.CarritoResponse, error)
	Decrementar(ctx context.Context, id string, productoID uuid.UUID) (*dto.CarritoResponse, error)
	FijarCantidad(ctx context.Context, id string, productoID uuid.UUID, req dto.FijarCantidadRequest) (*dto.CarritoResponse, error)
	QuitarItem(ctx context.Context, id string, productoID uuid.UUID) (*dto.CarritoResponse, error)
	Vaciar(ctx context.Context, id string) (*dto.CarritoResponse, error)
	Checkout(ctx context.Context, req dto.CheckoutRequest) (*dto.VentaResponse, error)
}

type carritoService struct {
	store     repository.CarritoStore
	productos repository.ProductoRepository
	clientes  repository.ClienteRepository
	ventas    VentaService
}

func NewCarritoService(
	store repository.CarritoStore,
	productos repository.ProductoRepository,
	clientes repository.ClienteRepository,
	ventas VentaService,
) CarritoService {
	return &carritoService{store: store, productos: productos, clientes: clientes, ventas: ventas}
}

func (s *carritoService) Crear(ctx context.Context) (*dto.CarritoResponse, error) {
	id := uuid.NewString()
	c := &carrito.Carrito{}
	if err := s.store.Guardar(ctx, id, c); err != nil {
		return nil, err
	}
	return s.toResponse(id, c, nil), nil
}

func (s *carritoService) Obtener(ctx context.Context, id string) (*dto.CarritoResponse, error) {
	c, err := s.cargar(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.toResponse(id, c, nil), nil
}

func (s *carritoService) AgregarItem(ctx context.Context, id string, req dto.AgregarItemRequest) (*dto.CarritoResponse, error) {
	productoID, err := uuid.Parse(req.ProductoID)
	if err != nil {
		return nil, apierror.BadRequest("producto_id inválido")
	}
	c, err := s.cargar(ctx, id)
	if err != nil {
		return nil, err
	}

	producto, err := s.productos.FindByID(ctx, productoID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("", "El producto no existe")
	}
	if err != nil {
		return nil, err
	}
	if !producto.Activo {
		return nil, apierror.NotFound("", "El producto no existe")
	}

	var advertencia *string
	err = c.Agregar(carrito.Articulo{
		ProductoID:       producto.ID,
		Nombre:           producto.Nombre,
		PrecioVenta:      producto.PrecioVenta,
		UnidadMedida:     producto.UnidadMedida,
		PermiteDecimales: producto.PermiteDecimales,
		StockDisponible:  producto.Stock,
	})
	switch {
	case errors.Is(err, carrito.ErrSinStock):
		return nil, apierror.Conflict("", "El producto no tiene stock disponible")
	case errors.Is(err, carrito.ErrStockMaximo):
		msg := "Stock máximo disponible alcanzado"
		advertencia = &msg
	case err != nil:
		return nil, err
	}

	if err := s.store.Guardar(ctx, id, c); err != nil {
		return nil, err
	}
	return s.toResponse(id, c, advertencia), nil
}

func (s *carritoService) Incrementar(ctx context.Context, id string, productoID uuid.UUID) (*dto.CarritoResponse, error) {
	return s.mutar(ctx, id, func(c *carrito.Carrito) (*string, error) {
		err := c.Incrementar(productoID)
		if errors.Is(err, carrito.ErrStockMaximo) {
			msg := "Stock máximo disponible alcanzado"
			return &msg, nil
		}
		return nil, err
	})
}

func (s *carritoService) Decrementar(ctx context.Context, id string, productoID uuid.UUID) (*dto.CarritoResponse, error) {
	return s.mutar(ctx, id, func(c *carrito.Carrito) (*string, error) {
		return nil, c.Decrementar(productoID)
	})
}

func (s *carritoService) FijarCantidad(ctx context.Context, id string, productoID uuid.UUID, req dto.FijarCantidadRequest) (*dto.CarritoResponse, error) {
	return s.mutar(ctx, id, func(c *carrito.Carrito) (*string, error) {
		ajustada, err := c.FijarCantidad(productoID, req.Cantidad)
		if err != nil {
			return nil, err
		}
		if ajustada {
			msg := "Cantidad ajustada al stock disponible"
			return &msg, nil
		}
		return nil, nil
	})
}

func (s *carritoService) QuitarItem(ctx context.Context, id string, productoID uuid.UUID) (*dto.CarritoResponse, error) {
	return s.mutar(ctx, id, func(c *carrito.Carrito) (*string, error) {
		c.Quitar(productoID)
		return nil, nil
	})
}

func (s *carritoService) Vaciar(ctx context.Context, id string) (*dto.CarritoResponse, error) {
	return s.mutar(ctx, id, func(c *carrito.Carrito) (*string, error) {
		c.Vaciar()
		return nil, nil
	})
}

// Checkout turns the cart into a "tienda" sale. The cart is cleared exactly
// once, after the sale committed: a failed checkout leaves the cart intact for
// the customer to retry.
func (s *carritoService) Checkout(ctx context.Context, req dto.CheckoutRequest) (*dto.VentaResponse, error) {
	c, err := s.cargar(ctx, req.CarritoID)
	if err != nil {
		return nil, err
	}
	if len(c.Lineas) == 0 {
		return nil, apierror.BadRequest("El carrito está vacío")
	}

	cliente, err := s.buscarOCrearCliente(ctx, req)
	if err != nil {
		return nil, err
	}

	venta, err := s.ventas.RegistrarTienda(ctx, c.Lineas, &cliente.ID, req.Email)
	if err != nil {
		return nil, err
	}

	if err := s.store.Eliminar(ctx, req.CarritoID); err != nil {
		// the sale is committed; an expired key just means nothing to clear
		log.Warn().Err(err).Str("carrito_id", req.CarritoID).Msg("no se pudo limpiar el carrito")
	}
	return venta, nil
}

func (s *carritoService) buscarOCrearCliente(ctx context.Context, req dto.CheckoutRequest) (*model.Cliente, error) {
	cliente, err := s.clientes.FindByDocumento(ctx, req.NumDocumento)
	if err == nil {
		return cliente, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	tipoDoc := "DNI"
	if len(req.NumDocumento) == 11 {
		tipoDoc = "RUC"
	}
	nuevo := &model.Cliente{
		TipoDocumento: tipoDoc,
		NumDocumento:  req.NumDocumento,
		Nombre:        req.Nombre,
		Email:         req.Email,
		Activo:        true,
	}
	if err := s.clientes.Create(ctx, nuevo); err != nil {
		return nil, err
	}
	return nuevo, nil
}

func (s *carritoService) cargar(ctx context.Context, id string) (*carrito.Carrito, error) {
	c, err := s.store.Obtener(ctx, id)
	if errors.Is(err, repository.ErrCarritoNoExiste) {
		return nil, apierror.NotFound("", "El carrito no existe o expiró")
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *carritoService) mutar(ctx context.Context, id string, fn func(*carrito.Carrito) (*string, error)) (*dto.CarritoResponse, error) {
	c, err := s.cargar(ctx, id)
	if err != nil {
		return nil, err
	}
	advertencia, err := fn(c)
	if errors.Is(err, carrito.ErrLineaNoExiste) {
		return nil, apierror.NotFound("", "El producto no está en el carrito")
	}
	if err != nil {
		return nil, err
	}
	if err := s.store.Guardar(ctx, id, c); err != nil {
		return nil, err
	}
	return s.toResponse(id, c, advertencia), nil
}

func (s *carritoService) toResponse(id string, c *carrito.Carrito, advertencia *string) *dto.CarritoResponse {
	return &dto.CarritoResponse{
		ID:          id,
		Lineas:      c.Lineas,
		Total:       c.Total(),
		Advertencia: advertencia,
	}
}
