package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/interfaces/http/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Equal(t, "/api/v1", r.BasePath())
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "/api/v2", r.BasePath())
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	cart := NewDomainGroup("cart", "/cart")
	cart.GET("", func(c *gin.Context) { c.String(http.StatusOK, "cart") })
	wishlist := NewDomainGroup("wishlist", "/wishlist")
	wishlist.GET("", func(c *gin.Context) { c.String(http.StatusOK, "wishlist") })

	r.Register(cart).Register(wishlist).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/cart")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cart", w.Body.String())

	w = serve(engine, http.MethodGet, "/api/v1/wishlist")
	assert.Equal(t, "wishlist", w.Body.String())
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("orders", "/orders")
		assert.Equal(t, "orders", g.Name())
		assert.Equal(t, "/orders", g.Prefix())
	})

	t.Run("registers every method", func(t *testing.T) {
		engine := gin.New()
		ok := func(c *gin.Context) { c.Status(http.StatusOK) }
		g := NewDomainGroup("items", "/items")
		g.GET("/:id", ok).POST("", ok).PUT("/:id", ok).PATCH("/:id", ok).DELETE("/:id", ok)
		g.RegisterRoutes(engine.Group("/api/v1"))

		for _, tt := range []struct{ method, path string }{
			{http.MethodGet, "/api/v1/items/1"},
			{http.MethodPost, "/api/v1/items"},
			{http.MethodPut, "/api/v1/items/1"},
			{http.MethodPatch, "/api/v1/items/1"},
			{http.MethodDelete, "/api/v1/items/1"},
		} {
			assert.Equal(t, http.StatusOK, serve(engine, tt.method, tt.path).Code, "%s %s", tt.method, tt.path)
		}
	})

	t.Run("middleware applies to subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("admin", "/admin").Use(func(c *gin.Context) {
			c.Header("X-Guard", "applied")
			c.Next()
		})
		g.Group("users", "/users").GET("", func(c *gin.Context) { c.String(http.StatusOK, "users") })
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodGet, "/api/v1/admin/users")
		assert.Equal(t, "users", w.Body.String())
		assert.Equal(t, "applied", w.Header().Get("X-Guard"))
	})

	t.Run("routes lists subgroups", func(t *testing.T) {
		g := NewDomainGroup("admin", "/admin")
		g.GET("/dashboard", func(c *gin.Context) {})
		g.Group("users", "/users").DELETE("/:id", func(c *gin.Context) {})

		assert.Equal(t, []RouteInfo{
			{Group: "admin", Method: http.MethodGet, Path: "/api/v1/admin/dashboard"},
			{Group: "users", Method: http.MethodDelete, Path: "/api/v1/admin/users/:id"},
		}, g.Routes("/api/v1"))
	})
}

// testHandlers builds handlers without services. Only guard behaviour is
// exercised, so no handler body runs.
func testHandlers() Handlers {
	return Handlers{
		Auth:         handler.NewAuthHandler(nil),
		Category:     handler.NewCategoryHandler(nil),
		Product:      handler.NewProductHandler(nil),
		Review:       handler.NewReviewHandler(nil),
		Cart:         handler.NewCartHandler(nil),
		Order:        handler.NewOrderHandler(nil),
		Conversation: handler.NewConversationHandler(nil),
		Notification: handler.NewNotificationHandler(nil, nil),
		Wishlist:     handler.NewWishlistHandler(nil),
		User:         handler.NewUserHandler(nil),
		Admin:        handler.NewAdminHandler(nil, nil),
		Outbox:       handler.NewOutboxHandler(nil),
		System:       handler.NewSystemHandler("shopfront", "test"),
	}
}

func TestAPIGroupsRouteTable(t *testing.T) {
	var routes []string
	for _, g := range APIGroups(testHandlers(), Guards{}) {
		for _, r := range g.Routes("/api/v1") {
			routes = append(routes, r.Method+" "+r.Path)
		}
	}

	expected := []string{
		"POST /api/v1/auth/register",
		"POST /api/v1/auth/login",
		"POST /api/v1/auth/refresh",
		"POST /api/v1/auth/logout",
		"GET /api/v1/auth/me",
		"PUT /api/v1/auth/me",
		"PUT /api/v1/auth/password",
		"POST /api/v1/auth/forgot-password",
		"POST /api/v1/auth/reset-password",
		"GET /api/v1/categories",
		"GET /api/v1/categories/:id",
		"POST /api/v1/categories",
		"PUT /api/v1/categories/:id",
		"DELETE /api/v1/categories/:id",
		"GET /api/v1/products",
		"GET /api/v1/products/featured",
		"GET /api/v1/products/:id",
		"GET /api/v1/products/:id/related",
		"POST /api/v1/products",
		"PUT /api/v1/products/:id",
		"DELETE /api/v1/products/:id",
		"POST /api/v1/products/:id/stock",
		"POST /api/v1/products/:id/images",
		"DELETE /api/v1/products/:id/images",
		"GET /api/v1/products/:id/reviews",
		"POST /api/v1/products/:id/reviews",
		"DELETE /api/v1/products/:id/reviews/:review_id",
		"GET /api/v1/cart",
		"POST /api/v1/cart/items",
		"PUT /api/v1/cart/items/:product_id",
		"DELETE /api/v1/cart/items/:product_id",
		"DELETE /api/v1/cart",
		"POST /api/v1/orders",
		"GET /api/v1/orders/mine",
		"GET /api/v1/orders/:id",
		"POST /api/v1/orders/:id/cancel",
		"POST /api/v1/orders/:id/pay",
		"GET /api/v1/orders/:id/invoice",
		"GET /api/v1/conversations",
		"POST /api/v1/conversations",
		"GET /api/v1/conversations/:id",
		"GET /api/v1/conversations/:id/messages",
		"POST /api/v1/conversations/:id/messages",
		"POST /api/v1/conversations/:id/read",
		"POST /api/v1/conversations/:id/close",
		"POST /api/v1/conversations/:id/reopen",
		"GET /api/v1/notifications",
		"GET /api/v1/notifications/unread-count",
		"POST /api/v1/notifications/:id/read",
		"POST /api/v1/notifications/read-all",
		"DELETE /api/v1/notifications/:id",
		"GET /api/v1/ws",
		"GET /api/v1/wishlist",
		"POST /api/v1/wishlist/items",
		"DELETE /api/v1/wishlist/items/:product_id",
		"DELETE /api/v1/wishlist",
		"POST /api/v1/wishlist/items/:product_id/move-to-cart",
		"GET /api/v1/admin/dashboard",
		"GET /api/v1/admin/reports/sales",
		"GET /api/v1/admin/orders",
		"PUT /api/v1/admin/orders/:id/status",
		"GET /api/v1/admin/users",
		"GET /api/v1/admin/users/:id",
		"PUT /api/v1/admin/users/:id/role",
		"POST /api/v1/admin/users/:id/block",
		"POST /api/v1/admin/users/:id/unblock",
		"DELETE /api/v1/admin/users/:id",
		"POST /api/v1/admin/notifications/broadcast",
		"GET /api/v1/admin/outbox/stats",
		"GET /api/v1/admin/outbox/dead",
		"POST /api/v1/admin/outbox/dead/:id/retry",
		"POST /api/v1/admin/outbox/dead/retry-all",
		"GET /api/v1/system/info",
		"GET /api/v1/system/ping",
	}

	assert.ElementsMatch(t, expected, routes)
}

func TestMountRegistersWithoutConflicts(t *testing.T) {
	engine := gin.New()

	require.NotPanics(t, func() {
		Mount(NewRouter(engine), testHandlers(), Guards{})
	})
	assert.NotEmpty(t, engine.Routes())
}

func abortWith(status int) gin.HandlerFunc {
	return func(c *gin.Context) { c.AbortWithStatus(status) }
}

func TestMountGuards(t *testing.T) {
	t.Run("authenticated routes reject anonymous callers", func(t *testing.T) {
		engine := gin.New()
		Mount(NewRouter(engine), testHandlers(), Guards{Auth: abortWith(http.StatusUnauthorized)})

		for _, tt := range []struct{ method, path string }{
			{http.MethodGet, "/api/v1/auth/me"},
			{http.MethodPost, "/api/v1/auth/logout"},
			{http.MethodGet, "/api/v1/cart"},
			{http.MethodPost, "/api/v1/orders"},
			{http.MethodGet, "/api/v1/orders/mine"},
			{http.MethodGet, "/api/v1/conversations"},
			{http.MethodGet, "/api/v1/notifications"},
			{http.MethodGet, "/api/v1/ws"},
			{http.MethodGet, "/api/v1/wishlist"},
			{http.MethodPost, "/api/v1/products/11111111-1111-1111-1111-111111111111/reviews"},
			{http.MethodPost, "/api/v1/products"},
			{http.MethodGet, "/api/v1/admin/dashboard"},
			{http.MethodGet, "/api/v1/admin/outbox/stats"},
		} {
			assert.Equal(t, http.StatusUnauthorized, serve(engine, tt.method, tt.path).Code, "%s %s", tt.method, tt.path)
		}
	})

	t.Run("admin routes reject customers", func(t *testing.T) {
		engine := gin.New()
		Mount(NewRouter(engine), testHandlers(), Guards{Admin: abortWith(http.StatusForbidden)})

		for _, tt := range []struct{ method, path string }{
			{http.MethodPost, "/api/v1/categories"},
			{http.MethodDelete, "/api/v1/products/11111111-1111-1111-1111-111111111111"},
			{http.MethodPost, "/api/v1/products/11111111-1111-1111-1111-111111111111/stock"},
			{http.MethodGet, "/api/v1/admin/orders"},
			{http.MethodPut, "/api/v1/admin/users/11111111-1111-1111-1111-111111111111/role"},
			{http.MethodPost, "/api/v1/admin/notifications/broadcast"},
			{http.MethodPost, "/api/v1/admin/outbox/dead/retry-all"},
		} {
			assert.Equal(t, http.StatusForbidden, serve(engine, tt.method, tt.path).Code, "%s %s", tt.method, tt.path)
		}
	})

	t.Run("rate limits apply to their routes only", func(t *testing.T) {
		engine := gin.New()
		Mount(NewRouter(engine), testHandlers(), Guards{
			AuthRateLimit:  abortWith(http.StatusTooManyRequests),
			OrderRateLimit: abortWith(http.StatusTooManyRequests),
			Auth:           abortWith(http.StatusUnauthorized),
		})

		assert.Equal(t, http.StatusTooManyRequests, serve(engine, http.MethodPost, "/api/v1/auth/login").Code)
		assert.Equal(t, http.StatusTooManyRequests, serve(engine, http.MethodPost, "/api/v1/auth/register").Code)
		assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodPost, "/api/v1/orders").Code)
		assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/v1/auth/me").Code)
	})

	t.Run("public routes skip guards", func(t *testing.T) {
		engine := gin.New()
		Mount(NewRouter(engine), testHandlers(), Guards{
			Auth:  abortWith(http.StatusUnauthorized),
			Admin: abortWith(http.StatusForbidden),
		})

		assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/api/v1/system/ping").Code)
	})
}
