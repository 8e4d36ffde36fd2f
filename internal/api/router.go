package api

import (
	"time"

	"parking_facility/internal/api/handler"
	"parking_facility/internal/api/middleware"
	"parking_facility/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

func SetupRouter(as *service.AuthService, ps *service.ParkingService, ss *service.StatsService,
	is *service.IoTService, authMw *middleware.AuthMiddleware, wsManager *handler.WebSocketManager) *gin.Engine {
	r := gin.Default()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(rate.Limit(50), 100))

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// WebSocket endpoint (không cần auth cho real-time connection)
	wsHandler := handler.NewWebSocketHandler(wsManager)
	r.GET("/ws", wsHandler.HandleWebSocket)

	authHandler := handler.NewAuthHandler(as)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	// Cache ngắn cho các route thống kê: dashboard poll dày, kết quả cho
	// cùng một khoảng không đổi giữa hai lần poll.
	statsCache := cache.New(30*time.Second, time.Minute)

	v1 := r.Group("/api/v1")
	v1.Use(authMw.Authenticate())
	{
		facilityH := handler.NewFacilityHandler(ps)
		gateH := handler.NewGateHandler(ps)
		tariffH := handler.NewTariffHandler(ps)
		statsH := handler.NewStatsHandler(ss)
		facilityRoutes := v1.Group("/facilities")
		{
			facilityRoutes.POST("", authMw.AuthorizeRole("admin"), facilityH.CreateFacility)
			facilityRoutes.GET("", facilityH.GetAllFacilities)
			facilityRoutes.GET("/:id", facilityH.GetFacilityByID)
			facilityRoutes.PUT("/:id", authMw.AuthorizeRole("admin"), facilityH.UpdateFacility)
			facilityRoutes.DELETE("/:id", authMw.AuthorizeRole("admin"), facilityH.DeleteFacility)

			facilityRoutes.GET("/:id/capacity", facilityH.GetFacilityCapacity)
			facilityRoutes.GET("/:id/gates", gateH.GetGatesByFacilityID)
			facilityRoutes.GET("/:id/tariff-windows", tariffH.GetTariffWindowsByFacility)
			facilityRoutes.GET("/:id/stats/average-free-slots",
				middleware.CacheResponse(statsCache, 30*time.Second), statsH.GetAverageFreeSlots)
		}

		gateRoutes := v1.Group("/gates")
		{
			gateRoutes.POST("", authMw.AuthorizeRole("admin"), gateH.CreateGate)
			gateRoutes.GET("/:id", gateH.GetGateByID)
			gateRoutes.PUT("/:id", authMw.AuthorizeRole("admin"), gateH.UpdateGate)
			gateRoutes.DELETE("/:id", authMw.AuthorizeRole("admin"), gateH.DeleteGate)
		}

		vehicleH := handler.NewVehicleHandler(ps)
		transitH := handler.NewTransitHandler(ps)
		vehicleRoutes := v1.Group("/vehicles")
		{
			vehicleRoutes.POST("", authMw.AuthorizeRole("admin", "operator"), vehicleH.RegisterVehicle)
			vehicleRoutes.GET("", vehicleH.GetAllVehicles)
			vehicleRoutes.GET("/:plate", vehicleH.GetVehicleByPlate)
			vehicleRoutes.PUT("/:plate", authMw.AuthorizeRole("admin"), vehicleH.UpdateVehicle)
			vehicleRoutes.DELETE("/:plate", authMw.AuthorizeRole("admin"), vehicleH.DeleteVehicle)

			vehicleRoutes.GET("/:plate/charge-estimate", transitH.EstimateCharge)
		}

		tariffRoutes := v1.Group("/tariff-windows")
		{
			tariffRoutes.POST("", authMw.AuthorizeRole("admin"), tariffH.CreateTariffWindow)
			tariffRoutes.GET("/:id", tariffH.GetTariffWindowByID)
			tariffRoutes.PUT("/:id", authMw.AuthorizeRole("admin"), tariffH.UpdateTariffWindow)
			tariffRoutes.DELETE("/:id", authMw.AuthorizeRole("admin"), tariffH.DeleteTariffWindow)
		}

		transitRoutes := v1.Group("/gate-events")
		transitRoutes.Use(authMw.AuthorizeRole("admin", "operator"))
		{
			transitRoutes.POST("", transitH.RecordGateEvent)
		}
		v1.GET("/transits", transitH.FindTransits)

		invoiceH := handler.NewInvoiceHandler(ps)
		invoiceRoutes := v1.Group("/invoices")
		{
			invoiceRoutes.GET("", invoiceH.FindInvoices)
			invoiceRoutes.GET("/:id", invoiceH.GetInvoiceByID)
		}

		if is != nil {
			iotCmdH := handler.NewIoTCommandHandler(is, ps)
			iotRoutes := v1.Group("/iot/commands")
			iotRoutes.Use(authMw.AuthorizeRole("admin", "operator"))
			{
				iotRoutes.POST("/barrier", iotCmdH.ControlBarrier)
			}
		}
	}
	return r
}
