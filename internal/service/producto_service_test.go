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
)

func TestAjustarStockRegistraMovimiento(t *testing.T) {
	productos := newFakeProductoRepo()
	svc := NewProductoService(productos, nil)

	clavos := productos.add("Clavos 2\"", "10", false, "0.50")
	usuarioID := uuid.New()

	resp, err := svc.AjustarStock(context.Background(), clavos.ID, usuarioID, dto.AjusteStockRequest{
		Cantidad: dec("-4"),
		Motivo:   "merma por caja dañada",
	})
	require.NoError(t, err)
	assert.True(t, resp.Stock.Equal(dec("6")), "stock = %s", resp.Stock)

	guardado, err := productos.FindByID(context.Background(), clavos.ID)
	require.NoError(t, err)
	assert.True(t, guardado.Stock.Equal(dec("6")))

	require.Len(t, productos.movimientos, 1)
	mov := productos.movimientos[0]
	assert.Equal(t, model.StockAjuste, mov.Tipo)
	assert.True(t, mov.Cantidad.Equal(dec("-4")))
	assert.True(t, mov.StockAnterior.Equal(dec("10")))
	assert.True(t, mov.StockNuevo.Equal(dec("6")))
	assert.Equal(t, "merma por caja dañada", mov.Motivo)
	require.NotNil(t, mov.ReferenciaID)
	assert.Equal(t, usuarioID, *mov.ReferenciaID)
}

func TestAjustarStockNoDejaStockNegativo(t *testing.T) {
	productos := newFakeProductoRepo()
	svc := NewProductoService(productos, nil)

	clavos := productos.add("Clavos 2\"", "10", false, "0.50")

	_, err := svc.AjustarStock(context.Background(), clavos.ID, uuid.New(), dto.AjusteStockRequest{
		Cantidad: dec("-20"),
		Motivo:   "conteo físico",
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Status)

	// the rejected adjustment leaves no trace
	guardado, err := productos.FindByID(context.Background(), clavos.ID)
	require.NoError(t, err)
	assert.True(t, guardado.Stock.Equal(dec("10")))
	assert.Empty(t, productos.movimientos)
}

func TestAjustarStockCeroRechazado(t *testing.T) {
	productos := newFakeProductoRepo()
	svc := NewProductoService(productos, nil)

	clavos := productos.add("Clavos 2\"", "10", false, "0.50")

	_, err := svc.AjustarStock(context.Background(), clavos.ID, uuid.New(), dto.AjusteStockRequest{
		Cantidad: dec("0"),
		Motivo:   "sin cambios",
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
}

func TestAjustarStockProductoNoExiste(t *testing.T) {
	svc := NewProductoService(newFakeProductoRepo(), nil)

	_, err := svc.AjustarStock(context.Background(), uuid.New(), uuid.New(), dto.AjusteStockRequest{
		Cantidad: dec("5"),
		Motivo:   "reposición manual",
	})
	var apiErr *apierror.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
}
