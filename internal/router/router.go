package router

import (
	"almapos/internal/config"
	"almapos/internal/handler"
	"almapos/internal/infra"
	"almapos/internal/middleware"
	"almapos/internal/repository"
	"almapos/internal/service"
	"almapos/internal/sync"
	"almapos/internal/worker"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← local store.
func New(
	cfg *config.Config,
	db *gorm.DB,
	conn *infra.Connectivity,
	afipClient *infra.AFIPClient,
	engine *sync.Engine,
	scheduler *sync.Scheduler,
	dispatcher *worker.Dispatcher,
) *gin.Engine {
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

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	configRepo := repository.NewConfigRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	cajaRepo := repository.NewCajaRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	categoriaRepo := repository.NewCategoriaRepository(db)
	marcaRepo := repository.NewMarcaRepository(db)
	proveedorRepo := repository.NewProveedorRepository(db)
	stockRepo := repository.NewMovimientoStockRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, configRepo, cfg)
	cajaSvc := service.NewCajaService(cajaRepo, ventaRepo, dispatcher)
	ventaSvc := service.NewVentaService(ventaRepo, cajaRepo, productoRepo, clienteRepo, stockRepo, dispatcher)
	clienteSvc := service.NewClienteService(clienteRepo, cajaRepo)
	productoSvc := service.NewProductoService(productoRepo, stockRepo)
	catalogoSvc := service.NewCatalogoService(categoriaRepo, marcaRepo, proveedorRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	cajaH := handler.NewCajaHandler(cajaSvc)
	ventasH := handler.NewVentasHandler(ventaSvc)
	clientesH := handler.NewClientesHandler(clienteSvc)
	productosH := handler.NewProductosHandler(productoSvc)
	catalogoH := handler.NewCatalogoHandler(catalogoSvc)
	syncH := handler.NewSyncHandler(engine, scheduler, conn.Online)

	var terminalH *handler.TerminalHandler
	if cfg.TerminalURL != "" {
		terminalH = handler.NewTerminalHandler(infra.NewTerminalClient(cfg.TerminalURL, cfg.TerminalAPIKey), cfg.DeviceID)
	}

	// ── Routes ───────────────────────────────────────────────────────────────

	r.GET("/health", handler.Health(db, conn, afipClient))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
	}

	// Price check before login — the scan gun works from the lock screen.
	r.GET("/v1/precio/:barcode", productosH.PorCodigoBarras)

	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	operadores := middleware.RequireRole("cajero", "supervisor", "administrador")
	supervisores := middleware.RequireRole("supervisor", "administrador")
	administradores := middleware.RequireRole("administrador")

	v1 := r.Group("/v1", jwtMW)
	{
		caja := v1.Group("/caja")
		{
			caja.POST("/abrir", operadores, cajaH.Abrir)
			caja.GET("/actual", operadores, cajaH.Actual)
			caja.POST("/movimiento", operadores, cajaH.RegistrarMovimiento)
			// Blind close: operators see counts only; the expected-cash
			// balance is a supervisor view.
			caja.GET("/:id/pre-cierre", operadores, cajaH.PreCierre)
			caja.GET("/:id/balance", supervisores, cajaH.Balance)
			caja.GET("/:id/movimientos", supervisores, cajaH.Movimientos)
			caja.GET("/:id/auditoria", supervisores, cajaH.Auditoria)
			caja.POST("/:id/cerrar", operadores, cajaH.Cerrar)
		}

		v1.POST("/ventas", operadores, ventasH.Registrar)
		v1.GET("/caja/:id/ventas", operadores, ventasH.ListarPorSesion)
		v1.DELETE("/ventas/:id", supervisores, ventasH.Anular)

		clientes := v1.Group("/clientes", operadores)
		{
			clientes.POST("", clientesH.Crear)
			clientes.GET("", clientesH.Listar)
			clientes.GET("/:id", clientesH.Obtener)
			clientes.GET("/:id/movimientos", clientesH.Movimientos)
			clientes.POST("/:id/pagos", clientesH.RegistrarPago)
		}

		v1.GET("/productos", operadores, productosH.Listar)
		v1.GET("/productos/:id", operadores, productosH.Obtener)
		v1.PATCH("/productos/:id/stock", supervisores, productosH.AjustarStock)
		prods := v1.Group("/productos", administradores)
		{
			prods.POST("", productosH.Crear)
			prods.DELETE("/:id", productosH.Desactivar)
		}

		v1.GET("/categorias", operadores, catalogoH.ListarCategorias)
		v1.GET("/marcas", operadores, catalogoH.ListarMarcas)
		v1.GET("/proveedores", operadores, catalogoH.ListarProveedores)
		catalogo := v1.Group("", administradores)
		{
			catalogo.POST("/categorias", catalogoH.CrearCategoria)
			catalogo.DELETE("/categorias/:id", catalogoH.DesactivarCategoria)
			catalogo.POST("/marcas", catalogoH.CrearMarca)
			catalogo.DELETE("/marcas/:id", catalogoH.DesactivarMarca)
			catalogo.POST("/proveedores", catalogoH.CrearProveedor)
			catalogo.DELETE("/proveedores/:id", catalogoH.DesactivarProveedor)
		}

		usuarios := v1.Group("/usuarios", administradores)
		{
			usuarios.POST("", authH.CrearUsuario)
			usuarios.GET("", authH.ListarUsuarios)
		}

		if terminalH != nil {
			v1.POST("/terminal/pagos", operadores, terminalH.Iniciar)
			v1.GET("/terminal/pagos/:ref", operadores, terminalH.Estado)
		}

		v1.GET("/sync/estado", operadores, syncH.Estado)
		v1.POST("/sync/forzar", operadores, syncH.Forzar)
	}

	return r
}
