package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/avelasov/techstore/internal/gate"
	"github.com/avelasov/techstore/internal/handlers"
	"github.com/avelasov/techstore/internal/permission"
	"github.com/avelasov/techstore/internal/session"
)

type Deps struct {
	Sessions        *session.Manager
	AuthHandler     *handlers.AuthHandler
	ProductHandler  *handlers.ProductHandler
	CartHandler     *handlers.CartHandler
	WishlistHandler *handlers.WishlistHandler
	MeHandler       *handlers.MeHandler
	SearchHandler   *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1", gate.ResolveSession(d.Sessions))

	v1.POST("/register", d.AuthHandler.Register)
	v1.POST("/login", d.AuthHandler.Login)
	v1.POST("/logout", d.AuthHandler.Logout)
	v1.POST("/refresh", d.AuthHandler.Refresh)

	v1.GET("/me", d.MeHandler.Me)

	if d.SearchHandler != nil {
		v1.GET("/search", d.SearchHandler.Search)
	}

	products := v1.Group("/products")
	products.GET("", d.ProductHandler.GetProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)

	cart := v1.Group("/cart")
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("", d.CartHandler.AddToCart)
	cart.PATCH("/:id", d.CartHandler.UpdateQuantity)
	cart.DELETE("/:id", d.CartHandler.RemoveFromCart)
	cart.DELETE("", d.CartHandler.ClearCart)

	wishlist := v1.Group("/wishlist")
	wishlist.GET("", d.WishlistHandler.GetWishlist)
	wishlist.POST("/:id/toggle", d.WishlistHandler.Toggle)
	wishlist.GET("/:id", d.WishlistHandler.Contains)

	admin := v1.Group("/admin", gate.RequireAdmin(d.Sessions, ""))
	admin.GET("", func(c echo.Context) error { return c.JSON(200, echo.Map{"status": "ok"}) })

	adminProducts := admin.Group("/products", gate.RequireAdmin(d.Sessions, permission.ManageProducts))
	adminProducts.POST("", d.ProductHandler.CreateProduct)
	adminProducts.PATCH("/:id", d.ProductHandler.PatchProduct)
	adminProducts.DELETE("/:id", d.ProductHandler.DeleteProduct)
}
