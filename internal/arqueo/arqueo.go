// Package arqueo implements the cash-session reconciliation calculation.
// It is the single source of truth for "esperado" and "diferencia": the
// self-service close, the live preview, and the administrative forced close
// all go through Calcular so the variance shown to the cashier always matches
// the variance persisted at close.
package arqueo

import "github.com/shopspring/decimal"

// Clasificacion of a closing difference.
const (
	Cuadrada = "cuadrada" // diferencia == 0
	Sobrante = "sobrante" // diferencia > 0 — surplus in the drawer
	Faltante = "faltante" // diferencia < 0 — shortage (absolute value reported)
)

// Totales are the accumulated cash figures of a session. All fields are ≥ 0;
// egresos are kept as a positive magnitude and subtracted here.
type Totales struct {
	MontoInicial  decimal.Decimal
	TotalVentas   decimal.Decimal
	TotalIngresos decimal.Decimal
	TotalEgresos  decimal.Decimal
}

// Esperado is the cash that should be in the drawer:
// monto_inicial + total_ventas + total_ingresos - total_egresos.
func (t Totales) Esperado() decimal.Decimal {
	return t.MontoInicial.Add(t.TotalVentas).Add(t.TotalIngresos).Sub(t.TotalEgresos)
}

// Resultado of reconciling a counted amount against a session's totals.
type Resultado struct {
	Esperado      decimal.Decimal
	Diferencia    decimal.Decimal
	Clasificacion string
}

// Calcular reconciles the physically counted montoFinal against the session
// totals. Pure — safe to call on every keystroke of a preview.
func Calcular(t Totales, montoFinal decimal.Decimal) Resultado {
	esperado := t.Esperado()
	diferencia := montoFinal.Sub(esperado)
	return Resultado{
		Esperado:      esperado,
		Diferencia:    diferencia,
		Clasificacion: Clasificar(diferencia),
	}
}

// Clasificar maps a diferencia to its classification.
func Clasificar(diferencia decimal.Decimal) string {
	switch {
	case diferencia.IsZero():
		return Cuadrada
	case diferencia.IsPositive():
		return Sobrante
	default:
		return Faltante
	}
}

// Previa computes a preview. When montoFinal is nil (the cashier has not yet
// typed a parsable amount) only Esperado is filled and Diferencia stays nil —
// "no preview available" rather than an error.
func Previa(t Totales, montoFinal *decimal.Decimal) (esperado decimal.Decimal, resultado *Resultado) {
	esperado = t.Esperado()
	if montoFinal == nil {
		return esperado, nil
	}
	r := Calcular(t, *montoFinal)
	return esperado, &r
}
