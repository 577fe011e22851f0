package handler

import (
	"net/http"

	"ferreteria/internal/apierror"
	"ferreteria/internal/dto"
	"ferreteria/internal/middleware"
	"ferreteria/internal/service"

	"github.com/gin-gonic/gin"
)

type OrdenesCompraHandler struct{ svc service.OrdenCompraService }

func NewOrdenesCompraHandler(svc service.OrdenCompraService) *OrdenesCompraHandler {
	return &OrdenesCompraHandler{svc: svc}
}

// Crear godoc
// @Summary Crea una orden de compra a un proveedor
// @Tags ordenes-compra
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CrearOrdenCompraRequest true "Proveedor e items"
// @Success 201 {object} dto.OrdenCompraResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/ordenes-compra [post]
func (h *OrdenesCompraHandler) Crear(c *gin.Context) {
	var req dto.CrearOrdenCompraRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID, err := middleware.UserID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de usuario inválido"))
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), usuarioID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *OrdenesCompraHandler) Obtener(c *gin.Context) {
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

func (h *OrdenesCompraHandler) Listar(c *gin.Context) {
	page, limit := pagination(c)
	data, total, err := h.svc.Listar(c.Request.Context(), c.Query("estado"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": data, "total": total, "page": page, "limit": limit})
}

// Recibir godoc
// @Summary Marca la orden como recibida e ingresa el stock
// @Tags ordenes-compra
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de orden"
// @Success 200 {object} dto.OrdenCompraResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/ordenes-compra/{id}/recibir [post]
func (h *OrdenesCompraHandler) Recibir(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	usuarioID, err := middleware.UserID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de usuario inválido"))
		return
	}
	resp, err := h.svc.Recibir(c.Request.Context(), id, usuarioID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdenesCompraHandler) Anular(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Anular(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ── Proveedores ──────────────────────────────────────────────────────────────

func (h *OrdenesCompraHandler) CrearProveedor(c *gin.Context) {
	var req dto.CrearProveedorRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearProveedor(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *OrdenesCompraHandler) ListarProveedores(c *gin.Context) {
	resp, err := h.svc.ListarProveedores(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
