package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ferreteria/internal/apierror"
	"ferreteria/internal/carrito"
	"ferreteria/internal/dto"
	"ferreteria/internal/model"
	"ferreteria/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Encolador enqueues background jobs. The worker package implements it; unit
// tests pass nil and the service skips emission.
type Encolador interface {
	EncolarComprobante(ctx context.Context, comprobanteID uuid.UUID, email *string) error
}

type VentaService interface {
	Registrar(ctx context.Context, usuarioID uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	// RegistrarTienda converts normalized storefront cart lines into a sale
	// on the "tienda" channel (no session, no drawer movement).
	RegistrarTienda(ctx context.Context, lineas []carrito.Linea, clienteID *uuid.UUID, clienteEmail *string) (*dto.VentaResponse, error)
	Anular(ctx context.Context, usuarioID uuid.UUID, ventaID uuid.UUID, req dto.AnularVentaRequest) (*dto.VentaResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error)
	Listar(ctx context.Context, f dto.VentaFilter) (*dto.VentaListResponse, error)
}

type ventaService struct {
	ventas       repository.VentaRepository
	cajas        repository.CajaRepository
	productos    repository.ProductoRepository
	fiscal       repository.FiscalRepository
	comprobantes repository.ComprobanteRepository
	encolador    Encolador
}

func NewVentaService(
	ventas repository.VentaRepository,
	cajas repository.CajaRepository,
	productos repository.ProductoRepository,
	fiscal repository.FiscalRepository,
	comprobantes repository.ComprobanteRepository,
	encolador Encolador,
) VentaService {
	return &ventaService{
		ventas:       ventas,
		cajas:        cajas,
		productos:    productos,
		fiscal:       fiscal,
		comprobantes: comprobantes,
		encolador:    encolador,
	}
}

// runTx runs fn inside a transaction. A nil db (unit tests with fake repos)
// runs fn directly with a nil tx.
func runTx(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.Transaction(fn)
}

func (s *ventaService) Registrar(ctx context.Context, usuarioID uuid.UUID, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	if req.ClaveIdempotencia != nil {
		existente, err := s.ventas.FindByClaveIdempotencia(ctx, *req.ClaveIdempotencia)
		if err == nil {
			// replay of an already registered sale
			return s.toResponse(existente), nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	sesionID, err := uuid.Parse(req.SesionCajaID)
	if err != nil {
		return nil, apierror.BadRequest("sesion_caja_id inválido")
	}
	sesion, err := s.cajas.FindSesionByID(ctx, sesionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound(apierror.CodeSesionNoEncontrada, "La sesión de caja no existe")
	}
	if err != nil {
		return nil, err
	}
	if sesion.Estado != model.SesionAbierta {
		return nil, apierror.Conflict("", "No se pueden registrar ventas en una sesión cerrada")
	}
	if sesion.UsuarioID != usuarioID {
		return nil, apierror.Forbidden("La sesión pertenece a otro usuario")
	}

	items, subtotalLineas, err := s.validarItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	config, err := s.fiscal.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	subtotal, igv, total := desglosarIGV(subtotalLineas, config.IGVPorcentaje)

	pagado := decimal.Zero
	for _, p := range req.Pagos {
		pagado = pagado.Add(p.Monto)
	}
	if pagado.LessThan(total) {
		return nil, apierror.BadRequest("El monto pagado no cubre el total de la venta")
	}
	vuelto := pagado.Sub(total)

	serie, err := s.fiscal.FindSerieActiva(ctx, "boleta")
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.BadRequest("No hay una serie de boleta activa configurada")
	}
	if err != nil {
		return nil, err
	}

	var clienteID *uuid.UUID
	if req.ClienteID != nil {
		id, err := uuid.Parse(*req.ClienteID)
		if err != nil {
			return nil, apierror.BadRequest("cliente_id inválido")
		}
		clienteID = &id
	}

	venta := &model.Venta{
		Canal:             model.CanalPOS,
		SesionCajaID:      &sesion.ID,
		UsuarioID:         &usuarioID,
		ClienteID:         clienteID,
		Subtotal:          subtotal,
		IGV:               igv,
		Total:             total,
		Estado:            "completada",
		ClaveIdempotencia: req.ClaveIdempotencia,
	}
	for _, it := range items {
		venta.Items = append(venta.Items, model.VentaItem{
			ProductoID:     it.producto.ID,
			Cantidad:       it.cantidad,
			PrecioUnitario: it.producto.PrecioVenta,
			Subtotal:       it.cantidad.Mul(it.producto.PrecioVenta).Round(2),
		})
	}
	for _, p := range req.Pagos {
		venta.Pagos = append(venta.Pagos, model.VentaPago{Metodo: p.Metodo, Monto: p.Monto})
	}

	// cash that actually enters the drawer: cash tendered minus change
	efectivo := decimal.Zero
	for _, p := range req.Pagos {
		if p.Metodo == "efectivo" {
			efectivo = efectivo.Add(p.Monto)
		}
	}
	efectivoCaja := efectivo.Sub(vuelto)

	err = runTx(s.ventas.DB(), func(tx *gorm.DB) error {
		venta.Serie = serie.Serie
		correlativo, err := s.ventas.NextCorrelativoTx(tx, serie.Serie)
		if err != nil {
			return err
		}
		venta.Correlativo = correlativo

		if err := s.ventas.CreateTx(tx, venta); err != nil {
			return err
		}
		for _, it := range items {
			if err := s.descontarStockTx(tx, it.producto, it.cantidad, venta.ID); err != nil {
				return err
			}
		}
		if efectivoCaja.IsPositive() {
			return s.cajas.CreateMovimientoTx(tx, &model.MovimientoCaja{
				SesionCajaID: sesion.ID,
				Tipo:         model.MovVenta,
				Monto:        efectivoCaja,
				Descripcion:  fmt.Sprintf("Venta %s-%d", venta.Serie, venta.Correlativo),
				ReferenciaID: &venta.ID,
			})
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.Conflict("", "Stock insuficiente para completar la venta")
		}
		return nil, err
	}

	s.emitirComprobante(ctx, venta, "boleta", req.ClienteEmail)

	log.Info().
		Str("venta_id", venta.ID.String()).
		Str("numero", fmt.Sprintf("%s-%d", venta.Serie, venta.Correlativo)).
		Str("total", total.StringFixed(2)).
		Msg("venta registrada")

	resp := s.toResponse(venta)
	resp.Vuelto = vuelto
	return resp, nil
}

func (s *ventaService) RegistrarTienda(ctx context.Context, lineas []carrito.Linea, clienteID *uuid.UUID, clienteEmail *string) (*dto.VentaResponse, error) {
	if len(lineas) == 0 {
		return nil, apierror.BadRequest("El carrito está vacío")
	}

	config, err := s.fiscal.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	bruto := decimal.Zero
	for _, l := range lineas {
		bruto = bruto.Add(l.Subtotal())
	}
	subtotal, igv, total := desglosarIGV(bruto, config.IGVPorcentaje)

	serie, err := s.fiscal.FindSerieActiva(ctx, "ticket")
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.BadRequest("No hay una serie de ticket activa configurada")
	}
	if err != nil {
		return nil, err
	}

	venta := &model.Venta{
		Canal:     model.CanalTienda,
		ClienteID: clienteID,
		Subtotal:  subtotal,
		IGV:       igv,
		Total:     total,
		Estado:    "completada",
	}
	for _, l := range lineas {
		venta.Items = append(venta.Items, model.VentaItem{
			ProductoID:     l.ProductoID,
			Cantidad:       l.Cantidad,
			PrecioUnitario: l.PrecioVenta,
			Subtotal:       l.Subtotal(),
		})
	}

	err = runTx(s.ventas.DB(), func(tx *gorm.DB) error {
		venta.Serie = serie.Serie
		correlativo, err := s.ventas.NextCorrelativoTx(tx, serie.Serie)
		if err != nil {
			return err
		}
		venta.Correlativo = correlativo

		if err := s.ventas.CreateTx(tx, venta); err != nil {
			return err
		}
		for _, l := range lineas {
			producto, err := s.productos.FindByIDTx(tx, l.ProductoID)
			if err != nil {
				return err
			}
			if err := s.descontarStockTx(tx, producto, l.Cantidad, venta.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierror.Conflict("", "Stock insuficiente para completar la venta")
		}
		return nil, err
	}

	s.emitirComprobante(ctx, venta, "ticket", clienteEmail)
	return s.toResponse(venta), nil
}

func (s *ventaService) Anular(ctx context.Context, usuarioID uuid.UUID, ventaID uuid.UUID, req dto.AnularVentaRequest) (*dto.VentaResponse, error) {
	venta, err := s.ventas.FindByID(ctx, ventaID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("", "La venta no existe")
	}
	if err != nil {
		return nil, err
	}
	if venta.Estado != "completada" {
		return nil, apierror.Conflict("", "La venta ya fue anulada")
	}

	err = runTx(s.ventas.DB(), func(tx *gorm.DB) error {
		if err := s.ventas.UpdateEstadoTx(tx, venta.ID, "anulada"); err != nil {
			return err
		}
		for _, it := range venta.Items {
			producto, err := s.productos.FindByIDTx(tx, it.ProductoID)
			if err != nil {
				return err
			}
			if err := s.productos.AjustarStockTx(tx, it.ProductoID, it.Cantidad); err != nil {
				return err
			}
			mov := &model.MovimientoStock{
				ProductoID:    it.ProductoID,
				Tipo:          model.StockRestoreAnulacion,
				Cantidad:      it.Cantidad,
				StockAnterior: producto.Stock,
				StockNuevo:    producto.Stock.Add(it.Cantidad),
				Motivo:        req.Motivo,
				ReferenciaID:  &venta.ID,
			}
			if err := s.productos.CreateMovimientoStockTx(tx, mov); err != nil {
				return err
			}
		}
		// the drawer ledger is append-only: the cancellation is an inverse entry
		if venta.SesionCajaID != nil {
			return s.cajas.CreateMovimientoTx(tx, &model.MovimientoCaja{
				SesionCajaID: *venta.SesionCajaID,
				Tipo:         model.MovAnulacion,
				Monto:        venta.Total.Neg(),
				Descripcion:  fmt.Sprintf("Anulación %s-%d: %s", venta.Serie, venta.Correlativo, req.Motivo),
				ReferenciaID: &venta.ID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	venta.Estado = "anulada"
	log.Info().
		Str("venta_id", venta.ID.String()).
		Str("usuario_id", usuarioID.String()).
		Str("motivo", req.Motivo).
		Msg("venta anulada")
	return s.toResponse(venta), nil
}

func (s *ventaService) Obtener(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error) {
	venta, err := s.ventas.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("", "La venta no existe")
	}
	if err != nil {
		return nil, err
	}
	return s.toResponse(venta), nil
}

func (s *ventaService) Listar(ctx context.Context, f dto.VentaFilter) (*dto.VentaListResponse, error) {
	ventas, total, err := s.ventas.List(ctx, f.Fecha, f.Estado, f.Page, f.Limit)
	if err != nil {
		return nil, err
	}
	data := make([]dto.VentaResponse, 0, len(ventas))
	for i := range ventas {
		data = append(data, *s.toResponse(&ventas[i]))
	}
	return &dto.VentaListResponse{Data: data, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

type itemValidado struct {
	producto *model.Producto
	cantidad decimal.Decimal
}

// validarItems runs each requested quantity through the shared cart policy.
// The POS rejects instead of clamping: a quantity that the policy would have
// adjusted is a client bug, not a user gesture.
func (s *ventaService) validarItems(ctx context.Context, items []dto.ItemVentaRequest) ([]itemValidado, decimal.Decimal, error) {
	out := make([]itemValidado, 0, len(items))
	bruto := decimal.Zero
	for _, it := range items {
		productoID, err := uuid.Parse(it.ProductoID)
		if err != nil {
			return nil, decimal.Zero, apierror.BadRequest("producto_id inválido")
		}
		producto, err := s.productos.FindByID(ctx, productoID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, decimal.Zero, apierror.NotFound("", "El producto no existe")
		}
		if err != nil {
			return nil, decimal.Zero, err
		}
		if !producto.Activo {
			return nil, decimal.Zero, apierror.BadRequest(
				fmt.Sprintf("El producto %q no está disponible", producto.Nombre))
		}

		c := &carrito.Carrito{}
		if err := c.Agregar(carrito.Articulo{
			ProductoID:       producto.ID,
			Nombre:           producto.Nombre,
			PrecioVenta:      producto.PrecioVenta,
			UnidadMedida:     producto.UnidadMedida,
			PermiteDecimales: producto.PermiteDecimales,
			StockDisponible:  producto.Stock,
		}); err != nil {
			return nil, decimal.Zero, apierror.Conflict("",
				fmt.Sprintf("El producto %q no tiene stock disponible", producto.Nombre))
		}
		ajustada, err := c.FijarCantidad(producto.ID, it.Cantidad)
		if err != nil {
			return nil, decimal.Zero, err
		}
		if ajustada {
			return nil, decimal.Zero, apierror.Conflict("",
				fmt.Sprintf("Stock insuficiente para %q (disponible: %s)", producto.Nombre, producto.Stock.String()))
		}
		normalizada := c.Lineas[0].Cantidad
		if !normalizada.Equal(it.Cantidad) {
			return nil, decimal.Zero, apierror.BadRequest(
				fmt.Sprintf("Cantidad inválida para %q (unidad: %s)", producto.Nombre, producto.UnidadMedida))
		}

		out = append(out, itemValidado{producto: producto, cantidad: normalizada})
		bruto = bruto.Add(normalizada.Mul(producto.PrecioVenta).Round(2))
	}
	return out, bruto, nil
}

func (s *ventaService) descontarStockTx(tx *gorm.DB, producto *model.Producto, cantidad decimal.Decimal, ventaID uuid.UUID) error {
	if err := s.productos.AjustarStockTx(tx, producto.ID, cantidad.Neg()); err != nil {
		return err
	}
	return s.productos.CreateMovimientoStockTx(tx, &model.MovimientoStock{
		ProductoID:    producto.ID,
		Tipo:          model.StockVenta,
		Cantidad:      cantidad.Neg(),
		StockAnterior: producto.Stock,
		StockNuevo:    producto.Stock.Sub(cantidad),
		Motivo:        "venta",
		ReferenciaID:  &ventaID,
	})
}

// desglosarIGV splits an IGV-inclusive gross amount into subtotal + IGV.
// Retail prices carry the tax; the comprobante needs the breakdown.
func desglosarIGV(bruto decimal.Decimal, porcentaje decimal.Decimal) (subtotal, igv, total decimal.Decimal) {
	total = bruto.Round(2)
	factor := decimal.NewFromInt(1).Add(porcentaje.Div(decimal.NewFromInt(100)))
	subtotal = total.DivRound(factor, 2)
	igv = total.Sub(subtotal)
	return subtotal, igv, total
}

// emitirComprobante records the pending fiscal document and hands it to the
// worker pool. Emission is best-effort: the sale already committed, and the
// retry cron picks up anything that never got enqueued.
func (s *ventaService) emitirComprobante(ctx context.Context, venta *model.Venta, tipo string, email *string) {
	if s.comprobantes == nil {
		return
	}
	comprobante := &model.Comprobante{
		VentaID:     venta.ID,
		Tipo:        tipo,
		Serie:       venta.Serie,
		Correlativo: venta.Correlativo,
		MontoNeto:   venta.Subtotal,
		MontoIGV:    venta.IGV,
		MontoTotal:  venta.Total,
		Estado:      "pendiente",
		CreatedAt:   time.Now(),
	}
	if err := s.comprobantes.Create(ctx, comprobante); err != nil {
		log.Error().Err(err).Str("venta_id", venta.ID.String()).Msg("no se pudo registrar el comprobante")
		return
	}
	if s.encolador == nil {
		return
	}
	if err := s.encolador.EncolarComprobante(ctx, comprobante.ID, email); err != nil {
		log.Error().Err(err).Str("comprobante_id", comprobante.ID.String()).Msg("no se pudo encolar el comprobante")
	}
}

func (s *ventaService) toResponse(v *model.Venta) *dto.VentaResponse {
	resp := &dto.VentaResponse{
		ID:          v.ID.String(),
		Serie:       v.Serie,
		Correlativo: v.Correlativo,
		Canal:       v.Canal,
		Subtotal:    v.Subtotal,
		IGV:         v.IGV,
		Total:       v.Total,
		Estado:      v.Estado,
		Vuelto:      decimal.Zero,
		CreatedAt:   v.CreatedAt.Format(time.RFC3339),
	}
	for _, it := range v.Items {
		nombre := ""
		unidad := ""
		if it.Producto != nil {
			nombre = it.Producto.Nombre
			unidad = it.Producto.UnidadMedida
		}
		resp.Items = append(resp.Items, dto.ItemVentaResponse{
			Producto:       nombre,
			Cantidad:       it.Cantidad,
			UnidadMedida:   unidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
		})
	}
	for _, p := range v.Pagos {
		resp.Pagos = append(resp.Pagos, dto.PagoRequest{Metodo: p.Metodo, Monto: p.Monto})
	}
	return resp
}
