package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go-pharmacy-pos/internal/cache"
	"go-pharmacy-pos/internal/handler"
	"go-pharmacy-pos/internal/middleware"
	"go-pharmacy-pos/internal/model"
	"go-pharmacy-pos/internal/notifier"
	"go-pharmacy-pos/internal/repository"
	"go-pharmacy-pos/internal/service"
	"go-pharmacy-pos/internal/ws"
	"go-pharmacy-pos/pkg/database"
	applogger "go-pharmacy-pos/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn(".env file not found")
	}
	applogger.Setup()

	db := database.ConnectDB()
	if err := db.AutoMigrate(
		&model.Branch{},
		&model.Supplier{},
		&model.Product{},
		&model.ProductStock{},
		&model.Customer{},
		&model.Sale{},
		&model.SaleItem{},
		&model.User{},
		&model.Privilege{},
		&model.Role{},
		&model.UserActivityLog{},
	); err != nil {
		logrus.WithError(err).Fatal("auto migration failed")
	}

	seedDefaults(db)

	wsHub := ws.NewHub()
	go wsHub.Run()

	// Repositories
	branchRepo := repository.NewBranchRepo(db)
	supplierRepo := repository.NewSupplierRepo(db)
	productRepo := repository.NewProductRepo(db)
	stockRepo := repository.NewStockRepo(db)
	customerRepo := repository.NewCustomerRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	activityRepo := repository.NewActivityRepo(db)

	// Services
	mailer := notifier.FromEnv()
	overviewCache := buildOverviewCache()

	saleService := service.NewSaleService(saleRepo, productRepo, branchRepo, stockRepo, mailer, wsHub)
	invService := service.NewInventoryService(productRepo, stockRepo, branchRepo, wsHub)
	dashService := service.NewDashboardService(saleRepo, stockRepo, branchRepo, overviewCache)
	reportService := service.NewReportService(saleRepo, stockRepo, branchRepo)
	authService := service.NewAuthService(userRepo, activityRepo, wsHub)
	userService := service.NewUserService(userRepo, privilegeRepo, roleRepo, branchRepo)
	dirService := service.NewDirectoryService(branchRepo, supplierRepo, customerRepo)

	// Handlers
	saleHandler := handler.NewSaleHandler(saleService)
	invHandler := handler.NewInventoryHandler(invService)
	dashHandler := handler.NewDashboardHandler(dashService)
	reportHandler := handler.NewReportHandler(reportService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	roleHandler := handler.NewRoleHandler(roleRepo, privilegeRepo)
	dirHandler := handler.NewDirectoryHandler(dirService)

	app := fiber.New(fiber.Config{
		AppName: "Pharmacy POS v1.0",
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	api := app.Group("/api/v1")

	// Public auth routes
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/validate-token", authHandler.Validate)
	auth.Post("/heartbeat", middleware.RequireAuth(userRepo), authHandler.Heartbeat)
	auth.Post("/logout", middleware.RequireAuth(userRepo), authHandler.Logout)

	// Everything below requires a live session
	protected := api.Group("", middleware.RequireAuth(userRepo))

	protected.Get("/dashboard", middleware.RequirePrivilege("dashboard:view"), dashHandler.Overview)

	protected.Get("/branches", middleware.RequirePrivilege("branch:view"), dirHandler.ListBranches)
	protected.Get("/branches/:id", middleware.RequirePrivilege("branch:view"), dirHandler.GetBranch)
	protected.Post("/branches", middleware.RequirePrivilege("branch:create"), dirHandler.CreateBranch)
	protected.Put("/branches/:id", middleware.RequirePrivilege("branch:update"), dirHandler.UpdateBranch)
	protected.Get("/branches/:branchId/stock", middleware.RequirePrivilege("stock:view"), invHandler.BranchStock)

	protected.Get("/suppliers", middleware.RequirePrivilege("stock:view"), dirHandler.ListSuppliers)
	protected.Post("/suppliers", middleware.RequirePrivilege("stock:restock"), dirHandler.CreateSupplier)
	protected.Put("/suppliers/:id", middleware.RequirePrivilege("stock:restock"), dirHandler.UpdateSupplier)

	protected.Get("/products", middleware.RequirePrivilege("product:view"), invHandler.ListProducts)
	protected.Get("/products/categories", middleware.RequirePrivilege("product:view"), invHandler.ListCategories)
	protected.Get("/products/:id", middleware.RequirePrivilege("product:view"), invHandler.GetProduct)
	protected.Post("/products", middleware.RequirePrivilege("product:create"), invHandler.CreateProduct)
	protected.Put("/products/:id", middleware.RequirePrivilege("product:update"), invHandler.UpdateProduct)

	protected.Post("/stock/restock", middleware.RequirePrivilege("stock:restock"), invHandler.Restock)
	protected.Get("/stock/low", middleware.RequirePrivilege("stock:view"), invHandler.LowStock)
	protected.Get("/stock/near-expiry", middleware.RequirePrivilege("stock:view"), invHandler.NearExpiry)

	protected.Post("/sales", middleware.RequirePrivilege("sale:create"), saleHandler.Create)
	protected.Get("/sales", middleware.RequirePrivilege("sale:view"), saleHandler.List)
	protected.Get("/sales/:id", middleware.RequirePrivilege("sale:view"), saleHandler.GetByID)

	protected.Get("/customers", middleware.RequirePrivilege("sale:view"), dirHandler.ListCustomers)
	protected.Get("/customers/:id", middleware.RequirePrivilege("sale:view"), dirHandler.GetCustomer)

	protected.Get("/reports/sales", middleware.RequirePrivilege("report:view"), reportHandler.Sales)

	protected.Get("/users", middleware.RequirePrivilege("user:view"), userHandler.List)
	protected.Get("/users/:id", middleware.RequirePrivilege("user:view"), userHandler.GetByID)
	protected.Post("/users", middleware.RequirePrivilege("user:create"), userHandler.Create)
	protected.Put("/users/:id", middleware.RequirePrivilege("user:update"), userHandler.Update)
	protected.Delete("/users/:id", middleware.RequirePrivilege("user:delete"), userHandler.Delete)
	protected.Put("/users/:id/privileges", middleware.RequirePrivilege("user:update_privilege"), userHandler.UpdatePrivileges)

	protected.Get("/roles", roleHandler.ListRoles)
	protected.Get("/privileges", roleHandler.ListPrivileges)

	protected.Get("/activity", middleware.RequirePrivilege("user:view"), authHandler.RecentActivity)

	// WebSocket event stream
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			logrus.WithError(err).Fatal("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		logrus.WithError(err).Fatal("server forced to shutdown")
	}
	logrus.Info("server exited")
}

// buildOverviewCache wires redis when REDIS_ADDR is set; otherwise dashboard
// reads go straight to the database.
func buildOverviewCache() cache.OverviewCache {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return cache.NoopOverviewCache{}
	}
	return cache.NewRedisOverviewCache(addr, os.Getenv("REDIS_PASSWORD"), 0)
}

// seedDefaults provisions privileges, roles and the first admin account on an
// empty database. Reruns are no-ops.
func seedDefaults(db *gorm.DB) {
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	userRepo := repository.NewUserRepo(db)

	if err := privilegeRepo.SeedDefaults(); err != nil {
		logrus.WithError(err).Warn("failed to seed privileges")
	}
	if err := roleRepo.SeedDefaults(); err != nil {
		logrus.WithError(err).Warn("failed to seed roles")
	}

	allPrivileges, _ := privilegeRepo.FindAll()

	// ADMIN holds everything.
	if adminRole, err := roleRepo.FindByCode(model.RoleAdmin); err == nil && len(adminRole.Privileges) == 0 {
		db.Model(adminRole).Association("Privileges").Replace(allPrivileges)
	}

	// MANAGER holds everything except user administration.
	if managerRole, err := roleRepo.FindByCode(model.RoleManager); err == nil && len(managerRole.Privileges) == 0 {
		var managerPrivileges []model.Privilege
		for _, p := range allPrivileges {
			if strings.HasPrefix(p.Code, "user:") {
				continue
			}
			managerPrivileges = append(managerPrivileges, p)
		}
		db.Model(managerRole).Association("Privileges").Replace(managerPrivileges)
	}

	// CASHIER holds the counter subset.
	if cashierRole, err := roleRepo.FindByCode(model.RoleCashier); err == nil && len(cashierRole.Privileges) == 0 {
		cashierPrivileges, err := privilegeRepo.FindByCodes(model.CashierPrivilegeCodes)
		if err == nil {
			db.Model(cashierRole).Association("Privileges").Replace(cashierPrivileges)
		}
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@example.com"
	}
	if _, err := userRepo.FindByEmail(adminEmail); err == nil {
		return
	}

	adminRole, err := roleRepo.FindByCode(model.RoleAdmin)
	if err != nil {
		logrus.WithError(err).Warn("admin role missing, skipping admin seed")
		return
	}

	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "admin123"
	}

	admin := &model.User{
		Email:      adminEmail,
		FullName:   "Administrator",
		RoleID:     &adminRole.ID,
		IsActive:   true,
		Privileges: adminRole.Privileges,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"

	if err := admin.SetPassword(adminPassword); err != nil {
		logrus.WithError(err).Warn("failed to hash admin password")
		return
	}
	if err := userRepo.Create(admin); err != nil {
		logrus.WithError(err).Warn("failed to create admin user")
		return
	}
	logrus.WithField("email", adminEmail).Info("admin user created")
}
