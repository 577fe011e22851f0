// Package carrito implements the cart quantity policy: stock clamping and
// unit granularity (integer vs fractional) for cart line items. There is
// exactly one implementation — the POS checkout validation and the storefront
// cart endpoints both consume this package, so the clamping rules cannot
// drift between surfaces.
package carrito

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrSinStock rejects adding a product with no available stock.
	ErrSinStock = errors.New("producto sin stock disponible")
	// ErrStockMaximo rejects an increment that would exceed available stock.
	// The line is left unchanged; callers surface it as a warning.
	ErrStockMaximo = errors.New("stock máximo disponible alcanzado")
	// ErrLineaNoExiste is returned when the referenced line is not in the cart.
	ErrLineaNoExiste = errors.New("el producto no está en el carrito")
)

// Articulo is the product snapshot a line is created from.
type Articulo struct {
	ProductoID       uuid.UUID
	Nombre           string
	PrecioVenta      decimal.Decimal
	UnidadMedida     string
	PermiteDecimales bool
	StockDisponible  decimal.Decimal
}

// Linea is one cart line. Invariant: minimo ≤ Cantidad ≤ StockDisponible,
// Cantidad rounded to 3 decimals, whole number when !PermiteDecimales.
type Linea struct {
	ProductoID       uuid.UUID       `json:"producto_id"`
	Nombre           string          `json:"nombre"`
	Cantidad         decimal.Decimal `json:"cantidad"`
	PrecioVenta      decimal.Decimal `json:"precio_venta"`
	UnidadMedida     string          `json:"unidad_medida"`
	PermiteDecimales bool            `json:"permite_decimales"`
	StockDisponible  decimal.Decimal `json:"stock_disponible"`
}

// Subtotal of the line (cantidad × precio, 2 decimals).
func (l Linea) Subtotal() decimal.Decimal {
	return l.Cantidad.Mul(l.PrecioVenta).Round(2)
}

// Carrito is a single-owner, in-memory cart. Persistence (Redis, one cart per
// owner) lives in the repository layer; this type only enforces the quantity
// invariants.
type Carrito struct {
	Lineas []Linea `json:"lineas"`
}

// paso is the increment/decrement step for a unit granularity.
func paso(permiteDecimales bool) decimal.Decimal {
	if permiteDecimales {
		return decimal.NewFromFloat(0.1)
	}
	return decimal.NewFromInt(1)
}

// minimo is the floor a quantity can never go below.
func minimo(permiteDecimales bool) decimal.Decimal {
	if permiteDecimales {
		return decimal.New(1, -3) // 0.001
	}
	return decimal.NewFromInt(1)
}

func redondear(c decimal.Decimal) decimal.Decimal { return c.Round(3) }

func (c *Carrito) buscar(productoID uuid.UUID) *Linea {
	for i := range c.Lineas {
		if c.Lineas[i].ProductoID == productoID {
			return &c.Lineas[i]
		}
	}
	return nil
}

// Agregar inserts a new line at one step, or increments an existing one.
// Returns ErrSinStock when the product has no stock, ErrStockMaximo when the
// line is already at the stock ceiling.
func (c *Carrito) Agregar(a Articulo) error {
	if !a.StockDisponible.IsPositive() {
		return ErrSinStock
	}
	if l := c.buscar(a.ProductoID); l != nil {
		return c.Incrementar(a.ProductoID)
	}
	inicial := paso(a.PermiteDecimales)
	if inicial.GreaterThan(a.StockDisponible) {
		inicial = a.StockDisponible
	}
	c.Lineas = append(c.Lineas, Linea{
		ProductoID:       a.ProductoID,
		Nombre:           a.Nombre,
		Cantidad:         redondear(inicial),
		PrecioVenta:      a.PrecioVenta,
		UnidadMedida:     a.UnidadMedida,
		PermiteDecimales: a.PermiteDecimales,
		StockDisponible:  a.StockDisponible,
	})
	return nil
}

// Incrementar adds one step to the line. Rejected (line unchanged) with
// ErrStockMaximo when the result would exceed the available stock.
func (c *Carrito) Incrementar(productoID uuid.UUID) error {
	l := c.buscar(productoID)
	if l == nil {
		return ErrLineaNoExiste
	}
	nueva := redondear(l.Cantidad.Add(paso(l.PermiteDecimales)))
	if nueva.GreaterThan(l.StockDisponible) {
		return ErrStockMaximo
	}
	l.Cantidad = nueva
	return nil
}

// Decrementar subtracts one step, flooring at the minimum. A line is never
// removed by decrementing — use Quitar.
func (c *Carrito) Decrementar(productoID uuid.UUID) error {
	l := c.buscar(productoID)
	if l == nil {
		return ErrLineaNoExiste
	}
	nueva := redondear(l.Cantidad.Sub(paso(l.PermiteDecimales)))
	if min := minimo(l.PermiteDecimales); nueva.LessThan(min) {
		nueva = min
	}
	l.Cantidad = nueva
	return nil
}

// FijarCantidad sets the line quantity, clamped into [minimo, stock].
// ajustada reports that the requested value exceeded the stock and was
// clamped down — callers emit the "maximum stock" warning on it.
func (c *Carrito) FijarCantidad(productoID uuid.UUID, cantidad decimal.Decimal) (ajustada bool, err error) {
	l := c.buscar(productoID)
	if l == nil {
		return false, ErrLineaNoExiste
	}
	nueva := redondear(cantidad)
	if !l.PermiteDecimales {
		nueva = nueva.Floor()
	}
	if min := minimo(l.PermiteDecimales); nueva.LessThan(min) {
		nueva = min
	}
	if nueva.GreaterThan(l.StockDisponible) {
		nueva = redondear(l.StockDisponible)
		ajustada = true
	}
	l.Cantidad = nueva
	return ajustada, nil
}

// Quitar deletes the line unconditionally. Missing lines are a no-op.
func (c *Carrito) Quitar(productoID uuid.UUID) {
	for i := range c.Lineas {
		if c.Lineas[i].ProductoID == productoID {
			c.Lineas = append(c.Lineas[:i], c.Lineas[i+1:]...)
			return
		}
	}
}

// Vaciar empties the cart. Callers are responsible for resetting dependent
// payment state (cash tendered) alongside.
func (c *Carrito) Vaciar() { c.Lineas = nil }

// Total sums the line subtotals (2 decimals).
func (c *Carrito) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lineas {
		total = total.Add(l.Subtotal())
	}
	return total.Round(2)
}
