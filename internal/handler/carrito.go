package handler

// carrito.go — public storefront endpoints. No JWT: the cart ID acts as a
// capability token, so it is never guessable (UUID v4) and expires in Redis.

import (
	"net/http"

	"ferreteria/internal/dto"
	"ferreteria/internal/service"

	"github.com/gin-gonic/gin"
)

type CarritoHandler struct{ svc service.CarritoService }

func NewCarritoHandler(svc service.CarritoService) *CarritoHandler {
	return &CarritoHandler{svc: svc}
}

// Crear godoc
// @Summary Crea un carrito de la tienda en línea
// @Tags tienda
// @Produce json
// @Success 201 {object} dto.CarritoResponse
// @Router /v1/tienda/carritos [post]
func (h *CarritoHandler) Crear(c *gin.Context) {
	resp, err := h.svc.Crear(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *CarritoHandler) Obtener(c *gin.Context) {
	resp, err := h.svc.Obtener(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AgregarItem godoc
// @Summary Agrega un producto al carrito
// @Tags tienda
// @Accept json
// @Produce json
// @Param id path string true "ID de carrito"
// @Param body body dto.AgregarItemRequest true "Producto y cantidad"
// @Success 200 {object} dto.CarritoResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/tienda/carritos/{id}/items [post]
func (h *CarritoHandler) AgregarItem(c *gin.Context) {
	var req dto.AgregarItemRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AgregarItem(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CarritoHandler) Incrementar(c *gin.Context) {
	productoID, ok := parseID(c, "producto_id")
	if !ok {
		return
	}
	resp, err := h.svc.Incrementar(c.Request.Context(), c.Param("id"), productoID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CarritoHandler) Decrementar(c *gin.Context) {
	productoID, ok := parseID(c, "producto_id")
	if !ok {
		return
	}
	resp, err := h.svc.Decrementar(c.Request.Context(), c.Param("id"), productoID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// FijarCantidad sets an absolute quantity on a cart line. Quantities beyond
// the available stock come back clamped, with an advertencia on the response.
func (h *CarritoHandler) FijarCantidad(c *gin.Context) {
	productoID, ok := parseID(c, "producto_id")
	if !ok {
		return
	}
	var req dto.FijarCantidadRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.FijarCantidad(c.Request.Context(), c.Param("id"), productoID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CarritoHandler) QuitarItem(c *gin.Context) {
	productoID, ok := parseID(c, "producto_id")
	if !ok {
		return
	}
	resp, err := h.svc.QuitarItem(c.Request.Context(), c.Param("id"), productoID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CarritoHandler) Vaciar(c *gin.Context) {
	resp, err := h.svc.Vaciar(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Checkout godoc
// @Summary Convierte el carrito en una venta del canal tienda
// @Tags tienda
// @Accept json
// @Produce json
// @Param body body dto.CheckoutRequest true "Carrito y datos del cliente"
// @Success 201 {object} dto.VentaResponse
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/tienda/checkout [post]
func (h *CarritoHandler) Checkout(c *gin.Context) {
	var req dto.CheckoutRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Checkout(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
