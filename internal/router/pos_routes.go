package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Minhquanzz1002/cinema-web-sub001/internal/handler"
	"github.com/Minhquanzz1002/cinema-web-sub001/internal/middleware"
)

// POS bundles what the terminal routes need.  Receipts may be nil when no
// database is configured; reprints are then unavailable.
type POS struct {
	Sales     *handler.SaleHandler
	Catalog   *handler.CatalogHandler
	Receipts  *handler.ReceiptHandler
	JWTSecret string
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

// RegisterPOS registers the cashier endpoints under /v1/pos.  Every route
// requires a staff token and goes through the rate limiter.
func RegisterPOS(e *echo.Echo, p POS) {
	g := e.Group("/v1/pos",
		middleware.JWTAuth(p.JWTSecret),
		middleware.RequireRole(middleware.RoleCashier, middleware.RoleManager),
	)
	if p.RateLimit != nil {
		g.Use(p.RateLimit)
	}

	s := p.Sales
	g.POST("/sessions", s.Create)
	g.GET("/sessions/:id", s.Get)
	g.DELETE("/sessions/:id", s.Delete)
	g.PUT("/sessions/:id/movie", s.SelectMovie)
	g.PUT("/sessions/:id/show-time", s.SelectShowTime)
	g.GET("/sessions/:id/seats", s.SeatLayout)
	g.POST("/sessions/:id/seats", s.AddSeat)
	g.DELETE("/sessions/:id/seats/:seatId", s.RemoveSeat)
	g.POST("/sessions/:id/products", s.AddProduct)
	g.PUT("/sessions/:id/products/:productId", s.UpdateProductQuantity)
	g.PUT("/sessions/:id/customer", s.SetCustomer)
	g.POST("/sessions/:id/combo", s.ProceedToCombo)
	g.POST("/sessions/:id/payment", s.ProceedToPayment)
	g.POST("/sessions/:id/back", s.Back)
	g.POST("/sessions/:id/cash", s.PayCash)
	g.POST("/sessions/:id/zalopay", s.StartZaloPay)
	g.DELETE("/sessions/:id/zalopay", s.CancelZaloPay)
	g.GET("/sessions/:id/receipt", s.Receipt)
	g.POST("/sessions/:id/finish", s.Finish)

	catalog := g.Group("/catalog")
	if p.Cache != nil {
		catalog.Use(p.Cache)
	}
	catalog.GET("/movies", p.Catalog.ListMovies)
	catalog.GET("/movies/:id/show-times", p.Catalog.ListShowTimes)
	catalog.GET("/products", p.Catalog.ListProducts)

	if p.Receipts != nil {
		g.GET("/receipts/:code", p.Receipts.Get)
	}
}
