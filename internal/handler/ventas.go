package handler

import (
	"net/http"

	"ferreteria/internal/apierror"
	"ferreteria/internal/dto"
	"ferreteria/internal/middleware"
	"ferreteria/internal/service"

	"github.com/gin-gonic/gin"
)

type VentasHandler struct{ svc service.VentaService }

func NewVentasHandler(svc service.VentaService) *VentasHandler {
	return &VentasHandler{svc: svc}
}

// Registrar godoc
// @Summary Registra una venta del punto de venta
// @Tags ventas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RegistrarVentaRequest true "Items y pagos"
// @Success 201 {object} dto.VentaResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/ventas [post]
func (h *VentasHandler) Registrar(c *gin.Context) {
	var req dto.RegistrarVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID, err := middleware.UserID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de usuario inválido"))
		return
	}
	resp, err := h.svc.Registrar(c.Request.Context(), usuarioID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Anular godoc
// @Summary Anula una venta completada, restaurando stock y caja
// @Tags ventas
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de venta"
// @Param body body dto.AnularVentaRequest true "Motivo de anulación"
// @Success 200 {object} dto.VentaResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/ventas/{id}/anular [post]
func (h *VentasHandler) Anular(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.AnularVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID, err := middleware.UserID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de usuario inválido"))
		return
	}
	resp, err := h.svc.Anular(c.Request.Context(), usuarioID, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *VentasHandler) Obtener(c *gin.Context) {
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
// @Summary Lista ventas del día (o de la fecha indicada)
// @Tags ventas
// @Produce json
// @Security BearerAuth
// @Param fecha query string false "YYYY-MM-DD, default hoy"
// @Param estado query string false "completada | anulada | all"
// @Success 200 {object} dto.VentaListResponse
// @Router /v1/ventas [get]
func (h *VentasHandler) Listar(c *gin.Context) {
	var f dto.VentaFilter
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
