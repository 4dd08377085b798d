package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/shop-service/internal/api/http/handlers"
	"github.com/spec-kit/shop-service/internal/auth"
	"github.com/spec-kit/shop-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Products       *handlers.ProductsHandler
	Orders         *handlers.OrdersHandler
	Customers      *handlers.CustomersHandler
	Upload         *handlers.UploadHandler
	AuthMiddleware *auth.Middleware
	LoginLimiter   fiber.Handler
	PublicDir      string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Static("/public", cfg.PublicDir)
	app.Get("/csrf-token", func(c *fiber.Ctx) error {
		token, _ := c.Locals(csrfTokenContextKey).(string)
		return c.JSON(fiber.Map{"csrfToken": token})
	})

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	if cfg.LoginLimiter != nil {
		authGroup.Post("/login", cfg.LoginLimiter, cfg.Auth.Login)
	} else {
		authGroup.Post("/login", cfg.Auth.Login)
	}
	authGroup.Get("/token", cfg.Auth.Token)
	authGroup.Get("/logout", cfg.Auth.Logout)

	session := authGroup.Group("", cfg.AuthMiddleware.Handle)
	session.Get("/user", cfg.Auth.User)
	session.Get("/user/roles", cfg.Auth.Roles)
	session.Patch("/me", cfg.Auth.UpdateMe)

	products := app.Group("/product")
	products.Get("/", cfg.Products.List)
	productsAdmin := products.Group("", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	productsAdmin.Post("/", cfg.Products.Create)
	productsAdmin.Patch("/:id", cfg.Products.Update)
	productsAdmin.Delete("/:id", cfg.Products.Delete)

	orders := app.Group("/orders", cfg.AuthMiddleware.Handle)
	orders.Post("/", cfg.Orders.Create)
	orders.Get("/all/me", cfg.Orders.ListOwn)
	orders.Get("/me/:orderNumber", cfg.Orders.GetOwnByNumber)

	ordersAdmin := orders.Group("", auth.RequireRole(domain.RoleAdmin))
	ordersAdmin.Get("/all", cfg.Orders.ListAll)
	ordersAdmin.Get("/:orderNumber", cfg.Orders.GetByNumber)
	ordersAdmin.Patch("/:orderNumber", cfg.Orders.UpdateStatus)
	ordersAdmin.Delete("/:id", cfg.Orders.Delete)

	customers := app.Group("/customers", cfg.AuthMiddleware.Handle)
	customers.Get("/", auth.RequireRole(domain.RoleAdmin), cfg.Customers.List)

	// A customer account is owned by itself, so the owner guard only
	// needs to echo the id back.
	selfOrAdmin := auth.RequireOwner("id", func(_ context.Context, id string) (string, error) {
		return id, nil
	})
	customers.Get("/:id", selfOrAdmin, cfg.Customers.Get)
	customers.Patch("/:id", selfOrAdmin, cfg.Customers.Update)
	customers.Delete("/:id", auth.RequireRole(domain.RoleAdmin), cfg.Customers.Delete)

	app.Post("/upload", cfg.AuthMiddleware.Handle, cfg.Upload.Upload)
}
