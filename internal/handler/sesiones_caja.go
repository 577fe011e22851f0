package handler

import (
	"net/http"

	"ferreteria/internal/apierror"
	"ferreteria/internal/dto"
	"ferreteria/internal/middleware"
	"ferreteria/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type SesionCajaHandler struct{ svc service.CajaService }

func NewSesionCajaHandler(svc service.CajaService) *SesionCajaHandler {
	return &SesionCajaHandler{svc: svc}
}

// ListCajas godoc
// @Summary Lista los puntos de caja registrados
// @Tags sesiones-caja
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.CajaResponse
// @Router /v1/cajas [get]
func (h *SesionCajaHandler) ListCajas(c *gin.Context) {
	resp, err := h.svc.ListCajas(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Apertura godoc
// @Summary Abre una sesión de caja para el usuario autenticado
// @Tags sesiones-caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.AperturaRequest true "Datos de apertura"
// @Success 201 {object} dto.SesionCajaResponse
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/sesiones-caja/apertura [post]
func (h *SesionCajaHandler) Apertura(c *gin.Context) {
	var req dto.AperturaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID, err := middleware.UserID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de usuario inválido"))
		return
	}
	resp, err := h.svc.Apertura(c.Request.Context(), usuarioID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Cierre godoc
// @Summary Cierra la sesión con el conteo final (solo el dueño de la sesión)
// @Tags sesiones-caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesión"
// @Param body body dto.CierreRequest true "Monto contado"
// @Success 200 {object} dto.SesionCajaResponse
// @Failure 403 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /v1/sesiones-caja/{id}/cierre [post]
func (h *SesionCajaHandler) Cierre(c *gin.Context) {
	sesionID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.CierreRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID, err := middleware.UserID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de usuario inválido"))
		return
	}
	resp, err := h.svc.Cierre(c.Request.Context(), sesionID, usuarioID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CierreAdministrativo godoc
// @Summary Cierre forzado por supervisor, con motivo auditable
// @Tags sesiones-caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesión"
// @Param body body dto.CierreAdministrativoRequest true "Monto contado y motivo"
// @Success 200 {object} dto.SesionCajaResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/sesiones-caja/{id}/cierre-administrativo [post]
func (h *SesionCajaHandler) CierreAdministrativo(c *gin.Context) {
	sesionID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.CierreAdministrativoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	supervisorID, err := middleware.UserID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de usuario inválido"))
		return
	}
	resp, err := h.svc.CierreAdministrativo(c.Request.Context(), sesionID, supervisorID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Arqueo godoc
// @Summary Previsualiza el arqueo de una sesión sin cerrarla
// @Tags sesiones-caja
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID de sesión"
// @Param monto_final query string false "Monto contado para clasificar la diferencia"
// @Success 200 {object} dto.ArqueoResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/sesiones-caja/{id}/arqueo [get]
func (h *SesionCajaHandler) Arqueo(c *gin.Context) {
	sesionID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var montoFinal *decimal.Decimal
	if raw := c.Query("monto_final"); raw != "" {
		m, err := decimal.NewFromString(raw)
		if err != nil || m.IsNegative() {
			c.JSON(http.StatusBadRequest, apierror.New("monto_final inválido"))
			return
		}
		montoFinal = &m
	}
	resp, err := h.svc.ArqueoPrevia(c.Request.Context(), sesionID, montoFinal)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegistrarMovimiento godoc
// @Summary Registra un ingreso o egreso manual en la sesión
// @Tags sesiones-caja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.MovimientoCajaRequest true "Movimiento manual"
// @Success 200 {object} dto.SesionCajaResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/sesiones-caja/movimientos [post]
func (h *SesionCajaHandler) RegistrarMovimiento(c *gin.Context) {
	var req dto.MovimientoCajaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	usuarioID, err := middleware.UserID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de usuario inválido"))
		return
	}
	resp, err := h.svc.RegistrarMovimiento(c.Request.Context(), usuarioID, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Historial godoc
// @Summary Lista sesiones de caja paginadas, opcionalmente por estado
// @Tags sesiones-caja
// @Produce json
// @Security BearerAuth
// @Param estado query string false "ABIERTA | CERRADA"
// @Param page query int false "Página (default 1)"
// @Param limit query int false "Tamaño de página (default 20)"
// @Success 200 {object} dto.HistorialSesionesResponse
// @Router /v1/sesiones-caja/historial [get]
func (h *SesionCajaHandler) Historial(c *gin.Context) {
	page, limit := pagination(c)
	resp, err := h.svc.Historial(c.Request.Context(), c.Query("estado"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Activa returns the open session of the authenticated user, 404 when none.
func (h *SesionCajaHandler) Activa(c *gin.Context) {
	usuarioID, err := middleware.UserID(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID de usuario inválido"))
		return
	}
	resp, err := h.svc.SesionActiva(c.Request.Context(), usuarioID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
