package service

import (
	"context"
	"testing"

	"ferreteria/internal/apierror"
	"ferreteria/internal/dto"
	"ferreteria/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Fake OrdenCompraRepository ───────────────────────────────────────────────

type fakeOrdenCompraRepo struct {
	ordenes     map[uuid.UUID]*model.OrdenCompra
	proveedores map[uuid.UUID]*model.Proveedor
	numeroSeq   int
}

func newFakeOrdenCompraRepo() *fakeOrdenCompraRepo {
	return &fakeOrdenCompraRepo{
		ordenes:     map[uuid.UUID]*model.OrdenCompra{},
		proveedores: map[uuid.UUID]*model.Proveedor{},
	}
}

func (f *fakeOrdenCompraRepo) addProveedor(razonSocial string, activo bool) *model.Proveedor {
	p := &model.Proveedor{
		ID:          uuid.New(),
		RazonSocial: razonSocial,
		RUC:         "20" + uuid.NewString()[:9],
		Activo:      activo,
	}
	f.proveedores[p.ID] = p
	return p
}

func (f *fakeOrdenCompraRepo) DB() *gorm.DB { return nil }

func (f *fakeOrdenCompraRepo) Create(_ context.Context, o *model.OrdenCompra) error {
	o.ID = uuid.New()
	f.numeroSeq++
	o.Numero = f.numeroSeq
	f.ordenes[o.ID] = o
	return nil
}

func (f *fakeOrdenCompraRepo) FindByID(_ context.Context, id uuid.UUID) (*model.OrdenCompra, error) {
	o, ok := f.ordenes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	if p, ok := f.proveedores[o.ProveedorID]; ok {
		cp.Proveedor = *p
	}
	return &cp, nil
}

func (f *fakeOrdenCompraRepo) List(_ context.Context, estado string, _, _ int) ([]model.OrdenCompra, int64, error) {
	out := []model.OrdenCompra{}
	for _, o := range f.ordenes {
		if estado == "" || o.Estado == estado {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeOrdenCompraRepo) MarcarRecibidaTx(_ *gorm.DB, id uuid.UUID) error {
	o, ok := f.ordenes[id]
	if !ok || o.Estado != model.OrdenPendiente {
		return gorm.ErrRecordNotFound
	}
	o.Estado = model.OrdenRecibida
	return nil
}

func (f *fakeOrdenCompraRepo) MarcarAnulada(_ context.Context, id uuid.UUID) error {
	o, ok := f.ordenes[id]
	if !ok || o.Estado != model.OrdenPendiente {
		return gorm.ErrRecordNotFound
	}
	o.Estado = model.OrdenAnulada
	return nil
}

func (f *fakeOrdenCompraRepo) CreateProveedor(_ context.Context, p *model.Proveedor) error {
	p.ID = uuid.New()
	f.proveedores[p.ID] = p
	return nil
}

func (f *fakeOrdenCompraRepo) FindProveedorByID(_ context.Context, id uuid.UUID) (*model.Proveedor, error) {
	p, ok := f.proveedores[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeOrdenCompraRepo) ListProveedores(_ context.Context) ([]model.Proveedor, error) {
	out := []model.Proveedor{}
	for _, p := range f.proveedores {
		if p.Activo {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeOrdenCompraRepo) UpdateProveedor(_ context.Context, p *model.Proveedor) error {
	f.proveedores[p.ID] = p
	return nil
}

// ── Fixture ──────────────────────────────────────────────────────────────────

type ordenFixture struct {
	svc       OrdenCompraService
	repo      *fakeOrdenCompraRepo
	productos *fakeProductoRepo
}

func newOrdenFixture() *ordenFixture {
	repo := newFakeOrdenCompraRepo()
	productos := newFakeProductoRepo()
	return &ordenFixture{
		svc:       NewOrdenCompraService(repo, productos, newFakeFiscalRepo()),
		repo:      repo,
		productos: productos,
	}
}

func crearOrden(t *testing.T, fx *ordenFixture, cantidad, precio string) (*dto.OrdenCompraResponse, *model.Producto) {
	t.Helper()
	proveedor := fx.repo.addProveedor("Distribuidora Norte SAC", true)
	producto := fx.productos.add("Cemento x 42.5kg", "20", false, "32.90")

	orden, err := fx.svc.Crear(context.Background(), uuid.New(), dto.CrearOrdenCompraRequest{
		ProveedorID: proveedor.ID.String(),
		Items: []dto.ItemOrdenCompraRequest{
			{ProductoID: producto.ID.String(), Cantidad: dec(cantidad), PrecioUnitario: dec(precio)},
		},
	})
	require.NoError(t, err)
	return orden, producto
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestCrearOrdenAgregaIGVSobreElSubtotal(t *testing.T) {
	fx := newOrdenFixture()

	// 10 × 24.50 = 245.00 pre-tax, IGV 18% = 44.10, total 289.10
	orden, _ := crearOrden(t, fx, "10", "24.50")

	assert.True(t, orden.Subtotal.Equal(dec("245.00")), "subtotal %s", orden.Subtotal)
	assert.True(t, orden.IGV.Equal(dec("44.10")), "igv %s", orden.IGV)
	assert.True(t, orden.Total.Equal(dec("289.10")), "total %s", orden.Total)
	assert.Equal(t, model.OrdenPendiente, orden.Estado)
	assert.Equal(t, 1, orden.Numero)
}

func TestCrearOrdenProveedorInactivo(t *testing.T) {
	fx := newOrdenFixture()
	proveedor := fx.repo.addProveedor("Proveedor Cerrado EIRL", false)
	producto := fx.productos.add("Clavos 2\"", "50", false, "4.90")

	_, err := fx.svc.Crear(context.Background(), uuid.New(), dto.CrearOrdenCompraRequest{
		ProveedorID: proveedor.ID.String(),
		Items: []dto.ItemOrdenCompraRequest{
			{ProductoID: producto.ID.String(), Cantidad: dec("5"), PrecioUnitario: dec("3.00")},
		},
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
}

func TestRecibirOrdenIngresaStockUnaSolaVez(t *testing.T) {
	fx := newOrdenFixture()
	orden, producto := crearOrden(t, fx, "10", "24.50")
	ordenID := uuid.MustParse(orden.ID)
	usuarioID := uuid.New()

	recibida, err := fx.svc.Recibir(context.Background(), ordenID, usuarioID)
	require.NoError(t, err)
	assert.Equal(t, model.OrdenRecibida, recibida.Estado)

	// Stock went 20 → 30, with one RECEPCION_COMPRA ledger entry
	actualizado, err := fx.productos.FindByID(context.Background(), producto.ID)
	require.NoError(t, err)
	assert.True(t, actualizado.Stock.Equal(dec("30")), "stock %s", actualizado.Stock)
	require.Len(t, fx.productos.movimientos, 1)
	assert.Equal(t, model.StockRecepcionCompra, fx.productos.movimientos[0].Tipo)

	// Second reception conflicts and moves nothing
	_, err = fx.svc.Recibir(context.Background(), ordenID, usuarioID)
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Status)

	actualizado, _ = fx.productos.FindByID(context.Background(), producto.ID)
	assert.True(t, actualizado.Stock.Equal(dec("30")))
	assert.Len(t, fx.productos.movimientos, 1)
}

func TestAnularOrdenRecibidaConflicto(t *testing.T) {
	fx := newOrdenFixture()
	orden, _ := crearOrden(t, fx, "4", "12.00")
	ordenID := uuid.MustParse(orden.ID)

	_, err := fx.svc.Recibir(context.Background(), ordenID, uuid.New())
	require.NoError(t, err)

	err = fx.svc.Anular(context.Background(), ordenID)
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Status)
}
