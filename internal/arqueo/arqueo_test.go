package arqueo

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCalcularCuadrada(t *testing.T) {
	totales := Totales{
		MontoInicial:  d("100"),
		TotalVentas:   d("250.50"),
		TotalIngresos: d("0"),
		TotalEgresos:  d("20"),
	}
	r := Calcular(totales, d("330.50"))

	assert.Equal(t, "330.5", r.Esperado.String())
	assert.True(t, r.Diferencia.IsZero())
	assert.Equal(t, Cuadrada, r.Clasificacion)
}

func TestCalcularFaltante(t *testing.T) {
	totales := Totales{
		MontoInicial: d("100"),
		TotalVentas:  d("200"),
	}
	r := Calcular(totales, d("280"))

	assert.Equal(t, "300", r.Esperado.String())
	assert.Equal(t, "-20", r.Diferencia.String())
	assert.Equal(t, Faltante, r.Clasificacion)
}

func TestCalcularSobrante(t *testing.T) {
	totales := Totales{MontoInicial: d("50")}
	r := Calcular(totales, d("55.25"))

	assert.Equal(t, "5.25", r.Diferencia.String())
	assert.Equal(t, Sobrante, r.Clasificacion)
}

func TestEgresosRestan(t *testing.T) {
	totales := Totales{
		MontoInicial:  d("100.00"),
		TotalVentas:   d("450.75"),
		TotalIngresos: d("0"),
		TotalEgresos:  d("30.00"),
	}
	r := Calcular(totales, d("520.75"))
	assert.Equal(t, Cuadrada, r.Clasificacion)
}

func TestSinDerivaDecimal(t *testing.T) {
	// 0.1 accumulated ten times must reconcile exactly against 1.00 —
	// the whole point of using decimals instead of float64.
	ventas := decimal.Zero
	for i := 0; i < 10; i++ {
		ventas = ventas.Add(d("0.1"))
	}
	r := Calcular(Totales{TotalVentas: ventas}, d("1.00"))
	assert.Equal(t, Cuadrada, r.Clasificacion)
}

func TestPreviaSinMontoFinal(t *testing.T) {
	esperado, resultado := Previa(Totales{MontoInicial: d("80")}, nil)
	assert.Equal(t, "80", esperado.String())
	assert.Nil(t, resultado)
}

func TestPreviaConMontoFinal(t *testing.T) {
	monto := d("75")
	esperado, resultado := Previa(Totales{MontoInicial: d("80")}, &monto)
	assert.Equal(t, "80", esperado.String())
	assert.NotNil(t, resultado)
	assert.Equal(t, Faltante, resultado.Clasificacion)
	assert.Equal(t, "-5", resultado.Diferencia.String())
}
