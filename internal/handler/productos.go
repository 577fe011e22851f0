package handler

import (
	"net/http"

	"ferreteria/internal/apierror"
	"ferreteria/internal/dto"
	"ferreteria/internal/middleware"
	"ferreteria/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductosHandler struct{ svc service.ProductoService }

func NewProductosHandler(svc service.ProductoService) *ProductosHandler {
	return &ProductosHandler{svc: svc}
}

// Crear godoc
// @Summary Crea un producto
// @Tags productos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearProductoRequest true "Producto"
// @Success 201 {object} dto.ProductoResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/productos [post]
func (h *ProductosHandler) Crear(c *gin.Context) {
	var req dto.CrearProductoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ProductosHandler) Obtener(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Listar godoc
// @Summary Lista productos con búsqueda y paginación
// @Tags productos
// @Produce json
// @Security BearerAuth
// @Param q query string false "Búsqueda por nombre o barcode"
// @Param categoria query string false "Filtro por categoría"
// @Success 200 {object} dto.ProductoListResponse
// @Router /v1/productos [get]
func (h *ProductosHandler) Listar(c *gin.Context) {
	var f dto.ProductoFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("parámetros inválidos"))
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductosHandler) Actualizar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarProductoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductosHandler) Desactivar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Desactivar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AjustarStock godoc
// @Summary Ajuste manual de stock con motivo auditable
// @Tags productos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de producto"
// @Param body body dto.AjusteStockRequest true "Delta y motivo"
// @Success 200 {object} dto.ProductoResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/productos/{id}/ajuste-stock [post]
func (h *ProductosHandler) AjustarStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.AjusteStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID, err := middleware.UserID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de usuario inválido"))
		return
	}
	resp, err := h.svc.AjustarStock(c.Request.Context(), id, usuarioID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AlertasStock lists products at or below their minimum stock level.
func (h *ProductosHandler) AlertasStock(c *gin.Context) {
	resp, err := h.svc.AlertasStock(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConsultarPrecio godoc
// @Summary Consulta pública de precio por código de barras
// @Tags precios
// @Produce json
// @Param barcode path string true "Código de barras"
// @Success 200 {object} dto.PrecioResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/precio/{barcode} [get]
func (h *ProductosHandler) ConsultarPrecio(c *gin.Context) {
	barcode := c.Param("barcode")
	if barcode == "" {
		c.JSON(http.StatusBadRequest, apierror.New("barcode requerido"))
		return
	}
	resp, err := h.svc.ConsultarPrecio(c.Request.Context(), barcode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
