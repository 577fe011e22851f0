package service

import (
	"context"
	"testing"

	"ferreteria/internal/apierror"
	"ferreteria/internal/carrito"
	"ferreteria/internal/dto"
	"ferreteria/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"ferreteria/internal/repository"
)

type fakeCarritoStore struct {
	carritos map[string]*carrito.Carrito
}

func newFakeCarritoStore() *fakeCarritoStore {
	return &fakeCarritoStore{carritos: map[string]*carrito.Carrito{}}
}

func (f *fakeCarritoStore) Obtener(_ context.Context, id string) (*carrito.Carrito, error) {
	c, ok := f.carritos[id]
	if !ok {
		return nil, repository.ErrCarritoNoExiste
	}
	cp := carrito.Carrito{Lineas: append([]carrito.Linea(nil), c.Lineas...)}
	return &cp, nil
}

func (f *fakeCarritoStore) Guardar(_ context.Context, id string, c *carrito.Carrito) error {
	f.carritos[id] = &carrito.Carrito{Lineas: append([]carrito.Linea(nil), c.Lineas...)}
	return nil
}

func (f *fakeCarritoStore) Eliminar(_ context.Context, id string) error {
	delete(f.carritos, id)
	return nil
}

type fakeClienteRepo struct {
	clientes map[uuid.UUID]*model.Cliente
}

func newFakeClienteRepo() *fakeClienteRepo {
	return &fakeClienteRepo{clientes: map[uuid.UUID]*model.Cliente{}}
}

func (f *fakeClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.clientes[c.ID] = c
	return nil
}

func (f *fakeClienteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	c, ok := f.clientes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return c, nil
}

func (f *fakeClienteRepo) FindByDocumento(_ context.Context, numDocumento string) (*model.Cliente, error) {
	for _, c := range f.clientes {
		if c.NumDocumento == numDocumento {
			return c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeClienteRepo) List(_ context.Context, _ string, _, _ int) ([]model.Cliente, int64, error) {
	out := []model.Cliente{}
	for _, c := range f.clientes {
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (f *fakeClienteRepo) Update(_ context.Context, c *model.Cliente) error {
	f.clientes[c.ID] = c
	return nil
}

func (f *fakeClienteRepo) SetActivo(_ context.Context, id uuid.UUID, activo bool) error {
	c, ok := f.clientes[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Activo = activo
	return nil
}

type carritoFixture struct {
	svc       CarritoService
	store     *fakeCarritoStore
	productos *fakeProductoRepo
	clientes  *fakeClienteRepo
	ventas    *fakeVentaRepo
}

func newCarritoFixture(t *testing.T) *carritoFixture {
	t.Helper()
	f := &carritoFixture{
		store:     newFakeCarritoStore(),
		productos: newFakeProductoRepo(),
		clientes:  newFakeClienteRepo(),
		ventas:    newFakeVentaRepo(),
	}
	ventaSvc := NewVentaService(f.ventas, newFakeCajaRepo(), f.productos, newFakeFiscalRepo(), newFakeComprobanteRepo(), nil)
	f.svc = NewCarritoService(f.store, f.productos, f.clientes, ventaSvc)
	return f
}

func TestCarritoAgregarYObtener(t *testing.T) {
	f := newCarritoFixture(t)
	martillo := f.productos.add("Martillo", "10", false, "25.00")

	resp, err := f.svc.Crear(context.Background())
	require.NoError(t, err)

	resp, err = f.svc.AgregarItem(context.Background(), resp.ID, dto.AgregarItemRequest{
		ProductoID: martillo.ID.String(),
	})
	require.NoError(t, err)
	require.Len(t, resp.Lineas, 1)
	assert.True(t, resp.Lineas[0].Cantidad.Equal(dec("1")))
	assert.True(t, resp.Total.Equal(dec("25.00")))

	// el carrito sobrevive la rehidratación desde el store
	otra, err := f.svc.Obtener(context.Background(), resp.ID)
	require.NoError(t, err)
	require.Len(t, otra.Lineas, 1)
}

func TestCarritoIncrementarHastaStock(t *testing.T) {
	f := newCarritoFixture(t)
	martillo := f.productos.add("Martillo", "2", false, "25.00")

	resp, err := f.svc.Crear(context.Background())
	require.NoError(t, err)
	id := resp.ID

	_, err = f.svc.AgregarItem(context.Background(), id, dto.AgregarItemRequest{ProductoID: martillo.ID.String()})
	require.NoError(t, err)
	resp, err = f.svc.Incrementar(context.Background(), id, martillo.ID)
	require.NoError(t, err)
	assert.Nil(t, resp.Advertencia)

	// al tope: advertencia, cantidad intacta
	resp, err = f.svc.Incrementar(context.Background(), id, martillo.ID)
	require.NoError(t, err)
	require.NotNil(t, resp.Advertencia)
	assert.True(t, resp.Lineas[0].Cantidad.Equal(dec("2")))
}

func TestCarritoFijarCantidadClampea(t *testing.T) {
	f := newCarritoFixture(t)
	cable := f.productos.add("Cable THW", "2.5", true, "3.50")

	resp, err := f.svc.Crear(context.Background())
	require.NoError(t, err)
	id := resp.ID

	_, err = f.svc.AgregarItem(context.Background(), id, dto.AgregarItemRequest{ProductoID: cable.ID.String()})
	require.NoError(t, err)

	resp, err = f.svc.FijarCantidad(context.Background(), id, cable.ID, dto.FijarCantidadRequest{Cantidad: dec("3")})
	require.NoError(t, err)
	require.NotNil(t, resp.Advertencia)
	assert.True(t, resp.Lineas[0].Cantidad.Equal(dec("2.5")))
}

func TestCarritoExpirado(t *testing.T) {
	f := newCarritoFixture(t)

	_, err := f.svc.Obtener(context.Background(), uuid.NewString())
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
}

func TestCheckoutLimpiaElCarritoUnaVez(t *testing.T) {
	f := newCarritoFixture(t)
	martillo := f.productos.add("Martillo", "10", false, "25.00")

	resp, err := f.svc.Crear(context.Background())
	require.NoError(t, err)
	id := resp.ID
	_, err = f.svc.AgregarItem(context.Background(), id, dto.AgregarItemRequest{ProductoID: martillo.ID.String()})
	require.NoError(t, err)

	venta, err := f.svc.Checkout(context.Background(), dto.CheckoutRequest{
		CarritoID:    id,
		NumDocumento: "45678912",
		Nombre:       "Juan Pérez",
		MetodoPago:   "efectivo",
	})
	require.NoError(t, err)
	assert.Equal(t, model.CanalTienda, venta.Canal)
	assert.Equal(t, "T001", venta.Serie)

	// carrito limpiado: un segundo checkout no duplica la venta
	_, err = f.svc.Checkout(context.Background(), dto.CheckoutRequest{
		CarritoID:    id,
		NumDocumento: "45678912",
		Nombre:       "Juan Pérez",
		MetodoPago:   "efectivo",
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
	assert.Len(t, f.ventas.ventas, 1)

	// stock descontado por la venta tienda
	p, _ := f.productos.FindByID(context.Background(), martillo.ID)
	assert.True(t, p.Stock.Equal(dec("9")))
}

func TestCheckoutCarritoVacio(t *testing.T) {
	f := newCarritoFixture(t)

	resp, err := f.svc.Crear(context.Background())
	require.NoError(t, err)

	_, err = f.svc.Checkout(context.Background(), dto.CheckoutRequest{
		CarritoID:    resp.ID,
		NumDocumento: "45678912",
		Nombre:       "Juan Pérez",
		MetodoPago:   "efectivo",
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
}

func TestCheckoutReutilizaCliente(t *testing.T) {
	f := newCarritoFixture(t)
	martillo := f.productos.add("Martillo", "10", false, "25.00")

	for i := 0; i < 2; i++ {
		resp, err := f.svc.Crear(context.Background())
		require.NoError(t, err)
		_, err = f.svc.AgregarItem(context.Background(), resp.ID, dto.AgregarItemRequest{ProductoID: martillo.ID.String()})
		require.NoError(t, err)
		_, err = f.svc.Checkout(context.Background(), dto.CheckoutRequest{
			CarritoID:    resp.ID,
			NumDocumento: "45678912",
			Nombre:       "Juan Pérez",
			MetodoPago:   "efectivo",
		})
		require.NoError(t, err)
	}
	assert.Len(t, f.clientes.clientes, 1)
}
