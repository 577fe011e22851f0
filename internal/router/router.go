package router

import (
	"time"

	"ferreteria/internal/config"
	"ferreteria/internal/handler"
	"ferreteria/internal/infra"
	"ferreteria/internal/middleware"
	"ferreteria/internal/repository"
	"ferreteria/internal/service"
	"ferreteria/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, sunatCB *infra.CircuitBreaker, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	cajaRepo := repository.NewCajaRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	comprobanteRepo := repository.NewComprobanteRepository(db)
	fiscalRepo := repository.NewFiscalRepository(db)
	ordenCompraRepo := repository.NewOrdenCompraRepository(db)
	carritoStore := repository.NewCarritoStore(rdb, time.Duration(cfg.CarritoTTLHours)*time.Hour)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, cfg)
	productoSvc := service.NewProductoService(productoRepo, rdb)
	cajaSvc := service.NewCajaService(cajaRepo)
	clienteSvc := service.NewClienteService(clienteRepo)
	fiscalSvc := service.NewFiscalService(fiscalRepo)
	ventaSvc := service.NewVentaService(ventaRepo, cajaRepo, productoRepo, fiscalRepo, comprobanteRepo, dispatcher)
	carritoSvc := service.NewCarritoService(carritoStore, productoRepo, clienteRepo, ventaSvc)
	ordenCompraSvc := service.NewOrdenCompraService(ordenCompraRepo, productoRepo, fiscalRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	productosH := handler.NewProductosHandler(productoSvc)
	ventasH := handler.NewVentasHandler(ventaSvc)
	sesionesH := handler.NewSesionCajaHandler(cajaSvc)
	clientesH := handler.NewClientesHandler(clienteSvc)
	fiscalH := handler.NewFiscalHandler(fiscalSvc)
	ordenesH := handler.NewOrdenesCompraHandler(ordenCompraSvc)
	carritoH := handler.NewCarritoHandler(carritoSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, sunatCB))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Price check — no auth required (in-store price scanners)
	r.GET("/v1/precio/:barcode", productosH.ConsultarPrecio)

	// Storefront — the cart ID is the only credential
	tienda := r.Group("/v1/tienda")
	{
		tienda.POST("/carritos", carritoH.Crear)
		tienda.GET("/carritos/:id", carritoH.Obtener)
		tienda.POST("/carritos/:id/items", carritoH.AgregarItem)
		tienda.POST("/carritos/:id/items/:producto_id/incrementar", carritoH.Incrementar)
		tienda.POST("/carritos/:id/items/:producto_id/decrementar", carritoH.Decrementar)
		tienda.PUT("/carritos/:id/items/:producto_id", carritoH.FijarCantidad)
		tienda.DELETE("/carritos/:id/items/:producto_id", carritoH.QuitarItem)
		tienda.DELETE("/carritos/:id/items", carritoH.Vaciar)
		tienda.POST("/checkout", carritoH.Checkout)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: cajero, supervisor, administrador — declared per-endpoint
		cualquiera := middleware.RequireRole("cajero", "supervisor", "administrador")
		supervision := middleware.RequireRole("supervisor", "administrador")
		admin := middleware.RequireRole("administrador")

		v1.GET("/cajas", cualquiera, sesionesH.ListCajas)

		sesiones := v1.Group("/sesiones-caja")
		{
			sesiones.POST("/apertura", cualquiera, sesionesH.Apertura)
			sesiones.POST("/:id/cierre", cualquiera, sesionesH.Cierre)
			sesiones.POST("/:id/cierre-administrativo", supervision, sesionesH.CierreAdministrativo)
			sesiones.GET("/:id/arqueo", cualquiera, sesionesH.Arqueo)
			sesiones.POST("/movimientos", cualquiera, sesionesH.RegistrarMovimiento)
			sesiones.GET("/historial", supervision, sesionesH.Historial)
			sesiones.GET("/activa", cualquiera, sesionesH.Activa)
		}

		v1.POST("/ventas", cualquiera, ventasH.Registrar)
		v1.GET("/ventas", cualquiera, ventasH.Listar)
		v1.GET("/ventas/:id", cualquiera, ventasH.Obtener)
		v1.POST("/ventas/:id/anular", supervision, ventasH.Anular)

		v1.GET("/productos", cualquiera, productosH.Listar)
		v1.GET("/productos/:id", cualquiera, productosH.Obtener)
		v1.GET("/productos/alertas-stock", supervision, productosH.AlertasStock)
		v1.POST("/productos/:id/ajuste-stock", supervision, productosH.AjustarStock)
		prods := v1.Group("/productos", admin)
		{
			prods.POST("", productosH.Crear)
			prods.PUT("/:id", productosH.Actualizar)
			prods.DELETE("/:id", productosH.Desactivar)
		}

		v1.GET("/clientes", cualquiera, clientesH.Listar)
		v1.GET("/clientes/:id", cualquiera, clientesH.Obtener)
		v1.GET("/clientes/documento/:documento", cualquiera, clientesH.BuscarPorDocumento)
		v1.POST("/clientes", cualquiera, clientesH.Crear)
		v1.PUT("/clientes/:id", supervision, clientesH.Actualizar)
		v1.DELETE("/clientes/:id", admin, clientesH.Desactivar)

		ordenes := v1.Group("/ordenes-compra", supervision)
		{
			ordenes.POST("", ordenesH.Crear)
			ordenes.GET("", ordenesH.Listar)
			ordenes.GET("/:id", ordenesH.Obtener)
			ordenes.POST("/:id/recibir", ordenesH.Recibir)
			ordenes.POST("/:id/anular", ordenesH.Anular)
		}

		prov := v1.Group("/proveedores", supervision)
		{
			prov.POST("", ordenesH.CrearProveedor)
			prov.GET("", ordenesH.ListarProveedores)
		}

		fiscal := v1.Group("/fiscal", supervision)
		{
			fiscal.GET("/configuracion", fiscalH.ObtenerConfiguracion)
			fiscal.PUT("/configuracion", middleware.RequireRole("administrador"), fiscalH.ActualizarConfiguracion)
			fiscal.GET("/series", fiscalH.ListarSeries)
			fiscal.POST("/series", middleware.RequireRole("administrador"), fiscalH.CrearSerie)
		}

		usuarios := v1.Group("/usuarios", admin)
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
