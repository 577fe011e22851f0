package service

import (
	"context"
	"testing"
	"time"

	"ferreteria/internal/apierror"
	"ferreteria/internal/dto"
	"ferreteria/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeVentaRepo struct {
	ventas      map[uuid.UUID]*model.Venta
	correlativo map[string]int
}

func newFakeVentaRepo() *fakeVentaRepo {
	return &fakeVentaRepo{ventas: map[uuid.UUID]*model.Venta{}, correlativo: map[string]int{}}
}

func (f *fakeVentaRepo) DB() *gorm.DB { return nil }

func (f *fakeVentaRepo) CreateTx(_ *gorm.DB, v *model.Venta) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.CreatedAt = time.Now()
	f.ventas[v.ID] = v
	return nil
}

func (f *fakeVentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	v, ok := f.ventas[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (f *fakeVentaRepo) FindByClaveIdempotencia(_ context.Context, clave string) (*model.Venta, error) {
	for _, v := range f.ventas {
		if v.ClaveIdempotencia != nil && *v.ClaveIdempotencia == clave {
			return v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeVentaRepo) List(_ context.Context, _, estado string, _, _ int) ([]model.Venta, int64, error) {
	out := []model.Venta{}
	for _, v := range f.ventas {
		if estado == "" || estado == "all" || v.Estado == estado {
			out = append(out, *v)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeVentaRepo) UpdateEstadoTx(_ *gorm.DB, id uuid.UUID, estado string) error {
	v, ok := f.ventas[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	v.Estado = estado
	return nil
}

func (f *fakeVentaRepo) NextCorrelativoTx(_ *gorm.DB, serie string) (int, error) {
	f.correlativo[serie]++
	return f.correlativo[serie], nil
}

type fakeProductoRepo struct {
	productos   map[uuid.UUID]*model.Producto
	movimientos []model.MovimientoStock
}

func newFakeProductoRepo() *fakeProductoRepo {
	return &fakeProductoRepo{productos: map[uuid.UUID]*model.Producto{}}
}

func (f *fakeProductoRepo) add(nombre string, stock string, permiteDecimales bool, precio string) *model.Producto {
	p := &model.Producto{
		ID:               uuid.New(),
		CodigoBarras:     uuid.NewString(),
		Nombre:           nombre,
		Categoria:        "general",
		PrecioVenta:      dec(precio),
		Stock:            dec(stock),
		StockMinimo:      dec("5"),
		UnidadMedida:     "unidad",
		PermiteDecimales: permiteDecimales,
		Activo:           true,
	}
	if permiteDecimales {
		p.UnidadMedida = "metro"
	}
	f.productos[p.ID] = p
	return p
}

func (f *fakeProductoRepo) Create(_ context.Context, p *model.Producto) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.productos[p.ID] = p
	return nil
}

func (f *fakeProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	p, ok := f.productos[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductoRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Producto, error) {
	return f.FindByID(context.Background(), id)
}

func (f *fakeProductoRepo) FindByBarcode(_ context.Context, barcode string) (*model.Producto, error) {
	for _, p := range f.productos {
		if p.CodigoBarras == barcode && p.Activo {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProductoRepo) List(_ context.Context, _, _ string, _ bool, _, _ int) ([]model.Producto, int64, error) {
	out := []model.Producto{}
	for _, p := range f.productos {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (f *fakeProductoRepo) Update(_ context.Context, p *model.Producto) error {
	f.productos[p.ID] = p
	return nil
}

func (f *fakeProductoRepo) SetActivo(_ context.Context, id uuid.UUID, activo bool) error {
	p, ok := f.productos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Activo = activo
	return nil
}

func (f *fakeProductoRepo) AjustarStock(_ context.Context, id uuid.UUID, delta decimal.Decimal) error {
	p, ok := f.productos[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	nuevo := p.Stock.Add(delta)
	if nuevo.IsNegative() {
		return gorm.ErrRecordNotFound
	}
	p.Stock = nuevo
	return nil
}

func (f *fakeProductoRepo) AjustarStockTx(_ *gorm.DB, id uuid.UUID, delta decimal.Decimal) error {
	return f.AjustarStock(context.Background(), id, delta)
}

func (f *fakeProductoRepo) ListBajoStock(_ context.Context) ([]model.Producto, error) {
	out := []model.Producto{}
	for _, p := range f.productos {
		if p.Activo && p.Stock.LessThanOrEqual(p.StockMinimo) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProductoRepo) CreateMovimientoStockTx(_ *gorm.DB, m *model.MovimientoStock) error {
	m.ID = uuid.New()
	f.movimientos = append(f.movimientos, *m)
	return nil
}

func (f *fakeProductoRepo) CreateMovimientoStock(_ context.Context, m *model.MovimientoStock) error {
	return f.CreateMovimientoStockTx(nil, m)
}

func (f *fakeProductoRepo) ListMovimientosStock(_ context.Context, productoID *uuid.UUID, _, _ int) ([]model.MovimientoStock, int64, error) {
	out := []model.MovimientoStock{}
	for _, m := range f.movimientos {
		if productoID == nil || m.ProductoID == *productoID {
			out = append(out, m)
		}
	}
	return out, int64(len(out)), nil
}

type fakeFiscalRepo struct {
	config *model.ConfiguracionFiscal
	series []model.SerieComprobante
}

func newFakeFiscalRepo() *fakeFiscalRepo {
	return &fakeFiscalRepo{
		config: &model.ConfiguracionFiscal{
			ID:            uuid.New(),
			RUC:           "20123456789",
			RazonSocial:   "Ferretería El Tornillo S.A.C.",
			Direccion:     "Av. Industrial 123, Lima",
			IGVPorcentaje: decimal.NewFromInt(18),
		},
		series: []model.SerieComprobante{
			{ID: uuid.New(), Tipo: "boleta", Serie: "B001", Activa: true},
			{ID: uuid.New(), Tipo: "ticket", Serie: "T001", Activa: true},
		},
	}
}

func (f *fakeFiscalRepo) GetConfig(_ context.Context) (*model.ConfiguracionFiscal, error) {
	return f.config, nil
}

func (f *fakeFiscalRepo) UpdateConfig(_ context.Context, c *model.ConfiguracionFiscal) error {
	f.config = c
	return nil
}

func (f *fakeFiscalRepo) CreateSerie(_ context.Context, s *model.SerieComprobante) error {
	s.ID = uuid.New()
	f.series = append(f.series, *s)
	return nil
}

func (f *fakeFiscalRepo) ListSeries(_ context.Context) ([]model.SerieComprobante, error) {
	return f.series, nil
}

func (f *fakeFiscalRepo) FindSerieActiva(_ context.Context, tipo string) (*model.SerieComprobante, error) {
	for i := range f.series {
		if f.series[i].Tipo == tipo && f.series[i].Activa {
			return &f.series[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeFiscalRepo) SetSerieActiva(_ context.Context, serie string, activa bool) error {
	for i := range f.series {
		if f.series[i].Serie == serie {
			f.series[i].Activa = activa
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type fakeComprobanteRepo struct {
	comprobantes map[uuid.UUID]*model.Comprobante
}

func newFakeComprobanteRepo() *fakeComprobanteRepo {
	return &fakeComprobanteRepo{comprobantes: map[uuid.UUID]*model.Comprobante{}}
}

func (f *fakeComprobanteRepo) Create(_ context.Context, c *model.Comprobante) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.comprobantes[c.ID] = c
	return nil
}

func (f *fakeComprobanteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Comprobante, error) {
	c, ok := f.comprobantes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (f *fakeComprobanteRepo) FindByVentaID(_ context.Context, ventaID uuid.UUID) (*model.Comprobante, error) {
	for _, c := range f.comprobantes {
		if c.VentaID == ventaID {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeComprobanteRepo) Update(_ context.Context, c *model.Comprobante) error {
	f.comprobantes[c.ID] = c
	return nil
}

func (f *fakeComprobanteRepo) ListPendientesRetry(_ context.Context, limit int) ([]model.Comprobante, error) {
	out := []model.Comprobante{}
	for _, c := range f.comprobantes {
		if c.Estado == "pendiente" || c.Estado == "rechazado" {
			out = append(out, *c)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeComprobanteRepo) MarcarEmitido(_ context.Context, id uuid.UUID, hash string) error {
	c, ok := f.comprobantes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Estado = "emitido"
	c.HashSUNAT = &hash
	return nil
}

func (f *fakeComprobanteRepo) MarcarRechazado(_ context.Context, id uuid.UUID, causa string, nextRetry time.Time) error {
	c, ok := f.comprobantes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Estado = "rechazado"
	c.LastError = &causa
	c.RetryCount++
	c.NextRetryAt = &nextRetry
	return nil
}

func (f *fakeComprobanteRepo) SetPDFPath(_ context.Context, id uuid.UUID, path string) error {
	c, ok := f.comprobantes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.PDFPath = &path
	return nil
}

type ventaFixture struct {
	svc       VentaService
	ventas    *fakeVentaRepo
	cajas     *fakeCajaRepo
	productos *fakeProductoRepo
	fiscal    *fakeFiscalRepo
	comps     *fakeComprobanteRepo
	sesionID  uuid.UUID
	usuarioID uuid.UUID
}

func newVentaFixture(t *testing.T) *ventaFixture {
	t.Helper()
	f := &ventaFixture{
		ventas:    newFakeVentaRepo(),
		cajas:     newFakeCajaRepo(),
		productos: newFakeProductoRepo(),
		fiscal:    newFakeFiscalRepo(),
		comps:     newFakeComprobanteRepo(),
	}
	f.svc = NewVentaService(f.ventas, f.cajas, f.productos, f.fiscal, f.comps, nil)

	cajaSvc := NewCajaService(f.cajas)
	f.sesionID, f.usuarioID = abrirSesion(t, cajaSvc, f.cajas, "100.00")
	return f
}

func TestRegistrarVenta(t *testing.T) {
	f := newVentaFixture(t)
	martillo := f.productos.add("Martillo", "10", false, "25.00")

	resp, err := f.svc.Registrar(context.Background(), f.usuarioID, dto.RegistrarVentaRequest{
		SesionCajaID: f.sesionID.String(),
		Items:        []dto.ItemVentaRequest{{ProductoID: martillo.ID.String(), Cantidad: dec("2")}},
		Pagos:        []dto.PagoRequest{{Metodo: "efectivo", Monto: dec("60.00")}},
	})
	require.NoError(t, err)

	assert.Equal(t, "B001", resp.Serie)
	assert.Equal(t, 1, resp.Correlativo)
	assert.True(t, resp.Total.Equal(dec("50.00")))
	assert.True(t, resp.Vuelto.Equal(dec("10.00")))
	// 50.00 con IGV 18% incluido
	assert.True(t, resp.Subtotal.Equal(dec("42.37")), "subtotal %s", resp.Subtotal)
	assert.True(t, resp.IGV.Equal(dec("7.63")))

	// stock descontado y movimiento registrado
	p, _ := f.productos.FindByID(context.Background(), martillo.ID)
	assert.True(t, p.Stock.Equal(dec("8")))
	require.Len(t, f.productos.movimientos, 1)
	assert.Equal(t, model.StockVenta, f.productos.movimientos[0].Tipo)

	// solo el efectivo neto de vuelto entra a la caja
	require.Len(t, f.cajas.movimientos, 1)
	assert.Equal(t, model.MovVenta, f.cajas.movimientos[0].Tipo)
	assert.True(t, f.cajas.movimientos[0].Monto.Equal(dec("50.00")))

	// comprobante pendiente creado
	assert.Len(t, f.comps.comprobantes, 1)
}

func TestRegistrarVentaIdempotente(t *testing.T) {
	f := newVentaFixture(t)
	martillo := f.productos.add("Martillo", "10", false, "25.00")
	clave := uuid.NewString()

	req := dto.RegistrarVentaRequest{
		SesionCajaID:      f.sesionID.String(),
		Items:             []dto.ItemVentaRequest{{ProductoID: martillo.ID.String(), Cantidad: dec("1")}},
		Pagos:             []dto.PagoRequest{{Metodo: "efectivo", Monto: dec("25.00")}},
		ClaveIdempotencia: &clave,
	}

	primera, err := f.svc.Registrar(context.Background(), f.usuarioID, req)
	require.NoError(t, err)
	segunda, err := f.svc.Registrar(context.Background(), f.usuarioID, req)
	require.NoError(t, err)

	assert.Equal(t, primera.ID, segunda.ID)
	assert.Len(t, f.ventas.ventas, 1)
	// el replay no vuelve a descontar stock
	p, _ := f.productos.FindByID(context.Background(), martillo.ID)
	assert.True(t, p.Stock.Equal(dec("9")))
}

func TestRegistrarVentaSesionCerrada(t *testing.T) {
	f := newVentaFixture(t)
	martillo := f.productos.add("Martillo", "10", false, "25.00")

	cajaSvc := NewCajaService(f.cajas)
	_, err := cajaSvc.Cierre(context.Background(), f.sesionID, f.usuarioID, dto.CierreRequest{MontoFinal: dec("100.00")})
	require.NoError(t, err)

	_, err = f.svc.Registrar(context.Background(), f.usuarioID, dto.RegistrarVentaRequest{
		SesionCajaID: f.sesionID.String(),
		Items:        []dto.ItemVentaRequest{{ProductoID: martillo.ID.String(), Cantidad: dec("1")}},
		Pagos:        []dto.PagoRequest{{Metodo: "efectivo", Monto: dec("25.00")}},
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Status)
}

func TestRegistrarVentaStockInsuficiente(t *testing.T) {
	f := newVentaFixture(t)
	martillo := f.productos.add("Martillo", "3", false, "25.00")

	_, err := f.svc.Registrar(context.Background(), f.usuarioID, dto.RegistrarVentaRequest{
		SesionCajaID: f.sesionID.String(),
		Items:        []dto.ItemVentaRequest{{ProductoID: martillo.ID.String(), Cantidad: dec("5")}},
		Pagos:        []dto.PagoRequest{{Metodo: "efectivo", Monto: dec("200.00")}},
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Status)

	// nada se descontó
	p, _ := f.productos.FindByID(context.Background(), martillo.ID)
	assert.True(t, p.Stock.Equal(dec("3")))
}

func TestRegistrarVentaCantidadFraccionariaEnUnidadEntera(t *testing.T) {
	f := newVentaFixture(t)
	martillo := f.productos.add("Martillo", "10", false, "25.00")

	_, err := f.svc.Registrar(context.Background(), f.usuarioID, dto.RegistrarVentaRequest{
		SesionCajaID: f.sesionID.String(),
		Items:        []dto.ItemVentaRequest{{ProductoID: martillo.ID.String(), Cantidad: dec("2.5")}},
		Pagos:        []dto.PagoRequest{{Metodo: "efectivo", Monto: dec("100.00")}},
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
}

func TestRegistrarVentaCantidadDecimal(t *testing.T) {
	f := newVentaFixture(t)
	cable := f.productos.add("Cable THW", "100", true, "3.50")

	resp, err := f.svc.Registrar(context.Background(), f.usuarioID, dto.RegistrarVentaRequest{
		SesionCajaID: f.sesionID.String(),
		Items:        []dto.ItemVentaRequest{{ProductoID: cable.ID.String(), Cantidad: dec("2.5")}},
		Pagos:        []dto.PagoRequest{{Metodo: "efectivo", Monto: dec("8.75")}},
	})
	require.NoError(t, err)
	assert.True(t, resp.Total.Equal(dec("8.75")))

	p, _ := f.productos.FindByID(context.Background(), cable.ID)
	assert.True(t, p.Stock.Equal(dec("97.5")))
}

func TestRegistrarVentaPagoInsuficiente(t *testing.T) {
	f := newVentaFixture(t)
	martillo := f.productos.add("Martillo", "10", false, "25.00")

	_, err := f.svc.Registrar(context.Background(), f.usuarioID, dto.RegistrarVentaRequest{
		SesionCajaID: f.sesionID.String(),
		Items:        []dto.ItemVentaRequest{{ProductoID: martillo.ID.String(), Cantidad: dec("2")}},
		Pagos:        []dto.PagoRequest{{Metodo: "efectivo", Monto: dec("40.00")}},
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
}

func TestAnularVenta(t *testing.T) {
	f := newVentaFixture(t)
	martillo := f.productos.add("Martillo", "10", false, "25.00")

	resp, err := f.svc.Registrar(context.Background(), f.usuarioID, dto.RegistrarVentaRequest{
		SesionCajaID: f.sesionID.String(),
		Items:        []dto.ItemVentaRequest{{ProductoID: martillo.ID.String(), Cantidad: dec("2")}},
		Pagos:        []dto.PagoRequest{{Metodo: "efectivo", Monto: dec("50.00")}},
	})
	require.NoError(t, err)
	ventaID := uuid.MustParse(resp.ID)

	anulada, err := f.svc.Anular(context.Background(), f.usuarioID, ventaID, dto.AnularVentaRequest{
		Motivo: "cliente devolvió el producto",
	})
	require.NoError(t, err)
	assert.Equal(t, "anulada", anulada.Estado)

	// stock restaurado
	p, _ := f.productos.FindByID(context.Background(), martillo.ID)
	assert.True(t, p.Stock.Equal(dec("10")))

	// entrada inversa en el ledger, nunca se borra la original
	require.Len(t, f.cajas.movimientos, 2)
	assert.Equal(t, model.MovAnulacion, f.cajas.movimientos[1].Tipo)
	assert.True(t, f.cajas.movimientos[1].Monto.Equal(dec("-50.00")))

	// doble anulación rechazada
	_, err = f.svc.Anular(context.Background(), f.usuarioID, ventaID, dto.AnularVentaRequest{
		Motivo: "intento duplicado",
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Status)
}

func TestAnulacionReflejadaEnArqueo(t *testing.T) {
	f := newVentaFixture(t)
	martillo := f.productos.add("Martillo", "10", false, "25.00")

	resp, err := f.svc.Registrar(context.Background(), f.usuarioID, dto.RegistrarVentaRequest{
		SesionCajaID: f.sesionID.String(),
		Items:        []dto.ItemVentaRequest{{ProductoID: martillo.ID.String(), Cantidad: dec("2")}},
		Pagos:        []dto.PagoRequest{{Metodo: "efectivo", Monto: dec("50.00")}},
	})
	require.NoError(t, err)
	_, err = f.svc.Anular(context.Background(), f.usuarioID, uuid.MustParse(resp.ID), dto.AnularVentaRequest{
		Motivo: "producto defectuoso",
	})
	require.NoError(t, err)

	totales, err := f.cajas.SumTotales(context.Background(), f.sesionID)
	require.NoError(t, err)
	assert.True(t, totales.TotalVentas.IsZero(), "venta y anulación deben cancelarse: %s", totales.TotalVentas)
}
