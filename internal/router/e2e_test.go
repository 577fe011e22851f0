//go:build integration

package router

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v
//
// Covered flows:
//   - login → apertura → venta → arqueo → cierre cuadrado → historial
//   - duplicate apertura rejected with 409
//   - storefront cart → checkout → cart consumed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ferreteria/internal/config"
	"ferreteria/internal/dto"
	"ferreteria/internal/infra"
	"ferreteria/internal/worker"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

var barcodeSeq int64

func nextBarcode() int64 {
	barcodeSeq++
	return barcodeSeq
}

// ── Suite setup ──────────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	token  string // admin JWT
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.Run(ctx, "postgres:15-alpine",
		tcPostgres.WithDatabase("ferreteria_test"),
		tcPostgres.WithUsername("ferreteria"),
		tcPostgres.WithPassword("ferreteria"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		SUNATSidecarURL:    "http://localhost:9999", // never reached: workers not started
		CarritoTTLHours:    1,
		PDFStoragePath:     t.TempDir(),
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db))

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	// Seed admin, one caja and the fiscal series the sale flow needs
	hash, err := bcrypt.GenerateFromPassword([]byte("secreto123"), 12)
	require.NoError(t, err)
	require.NoError(t, db.Exec(`INSERT INTO usuarios (username, nombre, email, password_hash, rol)
		VALUES ('admin@e2e.test', 'Admin E2E', 'admin@e2e.test', ?, 'administrador')`,
		string(hash)).Error)
	require.NoError(t, db.Exec(`INSERT INTO cajas (nombre) VALUES ('Caja 1')`).Error)
	require.NoError(t, db.Exec(`INSERT INTO serie_comprobantes (tipo, serie) VALUES
		('boleta', 'B001'), ('ticket', 'T001')`).Error)

	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	dispatcher := worker.NewDispatcher(rdb)

	srv := httptest.NewServer(New(cfg, db, rdb, cb, dispatcher))
	t.Cleanup(srv.Close)

	resp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, dto.LoginRequest{Username: "admin@e2e.test", Password: "secreto123"}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login dto.LoginResponse
	decodeJSON(t, resp, &login)

	return &testEnv{server: srv, token: login.AccessToken}
}

func (env *testEnv) cajaID(t *testing.T) string {
	t.Helper()
	resp := do(t, env.server, "GET", "/v1/cajas", nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cajas []dto.CajaResponse
	decodeJSON(t, resp, &cajas)
	require.NotEmpty(t, cajas)
	return cajas[0].ID
}

func (env *testEnv) crearProducto(t *testing.T, nombre string, precio string, stock int64) dto.ProductoResponse {
	t.Helper()
	precioDec, err := decimal.NewFromString(precio)
	require.NoError(t, err)
	resp := do(t, env.server, "POST", "/v1/productos", jsonBody(t, dto.CrearProductoRequest{
		CodigoBarras: fmt.Sprintf("775%09d", nextBarcode()),
		Nombre:       nombre,
		Categoria:    "herramientas",
		PrecioCompra: precioDec.Div(decimal.NewFromInt(2)).Round(2),
		PrecioVenta:  precioDec,
		Stock:        decimal.NewFromInt(stock),
		StockMinimo:  decimal.NewFromInt(1),
		UnidadMedida: "unidad",
	}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p dto.ProductoResponse
	decodeJSON(t, resp, &p)
	return p
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestCicloCompletoDeCaja(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	env := setupTestEnv(t)
	cajaID := env.cajaID(t)

	// Apertura with 100.00
	resp := do(t, env.server, "POST", "/v1/sesiones-caja/apertura", jsonBody(t, dto.AperturaRequest{
		CajaID:       cajaID,
		MontoInicial: decimal.NewFromInt(100),
	}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var sesion dto.SesionCajaResponse
	decodeJSON(t, resp, &sesion)
	assert.Equal(t, "ABIERTA", sesion.Estado)

	// Second apertura by the same user must be rejected
	resp = do(t, env.server, "POST", "/v1/sesiones-caja/apertura", jsonBody(t, dto.AperturaRequest{
		CajaID:       cajaID,
		MontoInicial: decimal.NewFromInt(50),
	}), env.token)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var conflicto map[string]any
	decodeJSON(t, resp, &conflicto)
	assert.Contains(t, conflicto["detail"], "ya tienes una")

	// Sale: 2 × 25.00 paid 60.00 in cash → vuelto 10.00
	producto := env.crearProducto(t, "Martillo", "25.00", 10)
	resp = do(t, env.server, "POST", "/v1/ventas", jsonBody(t, dto.RegistrarVentaRequest{
		SesionCajaID: sesion.ID,
		Items: []dto.ItemVentaRequest{
			{ProductoID: producto.ID, Cantidad: decimal.NewFromInt(2)},
		},
		Pagos: []dto.PagoRequest{
			{Metodo: "efectivo", Monto: decimal.NewFromInt(60)},
		},
	}), env.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var venta dto.VentaResponse
	decodeJSON(t, resp, &venta)
	assert.Equal(t, "B001", venta.Serie)
	assert.Equal(t, 1, venta.Correlativo)
	assert.True(t, venta.Total.Equal(decimal.NewFromInt(50)))
	assert.True(t, venta.Vuelto.Equal(decimal.NewFromInt(10)))

	// Arqueo preview: 100 initial + 50 cash sale = 150 expected
	resp = do(t, env.server, "GET", "/v1/sesiones-caja/"+sesion.ID+"/arqueo", nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var arqueo dto.ArqueoResponse
	decodeJSON(t, resp, &arqueo)
	assert.True(t, arqueo.MontoEsperado.Equal(decimal.NewFromInt(150)),
		"esperado %s", arqueo.MontoEsperado)
	assert.Nil(t, arqueo.Clasificacion)

	// Close with the exact count → cuadrada
	resp = do(t, env.server, "POST", "/v1/sesiones-caja/"+sesion.ID+"/cierre", jsonBody(t, dto.CierreRequest{
		MontoFinal: decimal.NewFromInt(150),
	}), env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cerrada dto.SesionCajaResponse
	decodeJSON(t, resp, &cerrada)
	assert.Equal(t, "CERRADA", cerrada.Estado)
	require.NotNil(t, cerrada.Arqueo.Clasificacion)
	assert.Equal(t, "cuadrada", *cerrada.Arqueo.Clasificacion)
	require.NotNil(t, cerrada.Arqueo.Diferencia)
	assert.True(t, cerrada.Arqueo.Diferencia.IsZero())

	// A closed session stays closed; the stale client gets a 404 to reload
	resp = do(t, env.server, "POST", "/v1/sesiones-caja/"+sesion.ID+"/cierre", jsonBody(t, dto.CierreRequest{
		MontoFinal: decimal.NewFromInt(150),
	}), env.token)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Historial lists the closed session
	resp = do(t, env.server, "GET", "/v1/sesiones-caja/historial?estado=CERRADA", nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var historial dto.HistorialSesionesResponse
	decodeJSON(t, resp, &historial)
	require.Len(t, historial.Data, 1)
	assert.Equal(t, sesion.ID, historial.Data[0].ID)
}

func TestCheckoutTiendaConsumeElCarrito(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	env := setupTestEnv(t)
	producto := env.crearProducto(t, "Taladro", "180.00", 5)

	resp := do(t, env.server, "POST", "/v1/tienda/carritos", nil, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var carro dto.CarritoResponse
	decodeJSON(t, resp, &carro)

	resp = do(t, env.server, "POST", "/v1/tienda/carritos/"+carro.ID+"/items",
		jsonBody(t, dto.AgregarItemRequest{ProductoID: producto.ID}), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &carro)
	require.Len(t, carro.Lineas, 1)
	assert.True(t, carro.Total.Equal(decimal.NewFromInt(180)))

	checkout := dto.CheckoutRequest{
		CarritoID:    carro.ID,
		NumDocumento: "45678912",
		Nombre:       "Cliente Web",
		MetodoPago:   "tarjeta",
	}
	resp = do(t, env.server, "POST", "/v1/tienda/checkout", jsonBody(t, checkout), "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var venta dto.VentaResponse
	decodeJSON(t, resp, &venta)
	assert.Equal(t, "T001", venta.Serie)
	assert.Equal(t, "tienda", venta.Canal)

	// The cart was cleared on success; replaying the checkout finds nothing
	resp = do(t, env.server, "POST", "/v1/tienda/checkout", jsonBody(t, checkout), "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Stock reflects the single sale
	resp = do(t, env.server, "GET", "/v1/productos/"+producto.ID, nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var actualizado dto.ProductoResponse
	decodeJSON(t, resp, &actualizado)
	assert.True(t, actualizado.Stock.Equal(decimal.NewFromInt(4)))
}
