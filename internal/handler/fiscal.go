package handler

import (
	"net/http"

	"ferreteria/internal/dto"
	"ferreteria/internal/service"

	"github.com/gin-gonic/gin"
)

type FiscalHandler struct{ svc service.FiscalService }

func NewFiscalHandler(svc service.FiscalService) *FiscalHandler {
	return &FiscalHandler{svc: svc}
}

func (h *FiscalHandler) ObtenerConfiguracion(c *gin.Context) {
	resp, err := h.svc.ObtenerConfiguracion(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ActualizarConfiguracion godoc
// @Summary Actualiza RUC, razón social y tasa de IGV
// @Tags fiscal
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ConfiguracionFiscalRequest true "Configuración"
// @Success 200 {object} dto.ConfiguracionFiscalResponse
// @Router /v1/fiscal/configuracion [put]
func (h *FiscalHandler) ActualizarConfiguracion(c *gin.Context) {
	var req dto.ConfiguracionFiscalRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarConfiguracion(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *FiscalHandler) CrearSerie(c *gin.Context) {
	var req dto.CrearSerieRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearSerie(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *FiscalHandler) ListarSeries(c *gin.Context) {
	resp, err := h.svc.ListarSeries(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
