package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	adminapp "github.com/shopfront/backend/internal/application/admin"
	cartapp "github.com/shopfront/backend/internal/application/cart"
	catalogapp "github.com/shopfront/backend/internal/application/catalog"
	eventapp "github.com/shopfront/backend/internal/application/event"
	"github.com/shopfront/backend/internal/application/identity"
	messagingapp "github.com/shopfront/backend/internal/application/messaging"
	notificationapp "github.com/shopfront/backend/internal/application/notification"
	orderapp "github.com/shopfront/backend/internal/application/order"
	wishlistapp "github.com/shopfront/backend/internal/application/wishlist"
	"github.com/shopfront/backend/internal/infrastructure/auth"
	"github.com/shopfront/backend/internal/infrastructure/cache"
	"github.com/shopfront/backend/internal/infrastructure/config"
	"github.com/shopfront/backend/internal/infrastructure/event"
	"github.com/shopfront/backend/internal/infrastructure/persistence"
	"github.com/shopfront/backend/internal/interfaces/http/handler"
	"github.com/shopfront/backend/internal/interfaces/http/middleware"
	"github.com/shopfront/backend/internal/interfaces/http/router"
	"github.com/shopfront/backend/tests/testutil"
)

const testPassword = "Secret123"

// testAPI is the full HTTP stack on an in-memory SQLite database
type testAPI struct {
	t      *testing.T
	db     *gorm.DB
	engine *gin.Engine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	middleware.SetupValidator()

	log := zap.NewNop()
	db := testutil.NewSQLiteDB(t, persistence.Models()...)

	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	scope := persistence.NewGormTransactionScope(db, event.NewOutboxPublisher(serializer))

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-access-secret-that-is-long-enough",
		RefreshSecret:          "test-refresh-secret-that-is-long-enough",
		Issuer:                 "shopfront-test",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	keys := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = keys.Close() })

	userRepo := persistence.NewGormUserRepository(db)
	categoryRepo := persistence.NewGormCategoryRepository(db)
	productRepo := persistence.NewGormProductRepository(db)
	reviewRepo := persistence.NewGormReviewRepository(db)
	cartRepo := persistence.NewGormCartRepository(db)
	orderRepo := persistence.NewGormOrderRepository(db)

	orderCfg := orderapp.DefaultOrderServiceConfig()
	authService := identity.NewAuthService(scope, userRepo, jwtService, blacklist, identity.DefaultAuthServiceConfig(), log)
	userService := identity.NewUserService(scope, userRepo, blacklist, time.Hour, log)
	categoryService := catalogapp.NewCategoryService(categoryRepo, log)
	productService := catalogapp.NewProductService(scope, productRepo, categoryRepo, nil, catalogapp.DefaultProductServiceConfig(), log)
	reviewService := catalogapp.NewReviewService(scope, reviewRepo, productRepo, userRepo, orderRepo, log)
	cartService := cartapp.NewCartService(cartRepo, productRepo, orderCfg.Pricing, log)
	orderService := orderapp.NewOrderService(scope, orderRepo, cartRepo, keys, orderCfg, log)
	conversationService := messagingapp.NewConversationService(scope, persistence.NewGormConversationRepository(db), log)
	notificationService := notificationapp.NewService(persistence.NewGormNotificationRepository(db), userRepo, nil, notificationapp.ServiceConfig{}, log)
	wishlistService := wishlistapp.NewService(persistence.NewGormWishlistRepository(db), productRepo, cartService, log)
	dashboardService := adminapp.NewDashboardService(userRepo, productRepo, orderRepo, log)
	outboxService := eventapp.NewOutboxService(event.NewGormOutboxRepository(db), log)

	engine := gin.New()
	engine.Use(middleware.RequestID())

	router.Mount(router.NewRouter(engine), router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Category:     handler.NewCategoryHandler(categoryService),
		Product:      handler.NewProductHandler(productService),
		Review:       handler.NewReviewHandler(reviewService),
		Cart:         handler.NewCartHandler(cartService),
		Order:        handler.NewOrderHandler(orderService),
		Conversation: handler.NewConversationHandler(conversationService),
		Notification: handler.NewNotificationHandler(notificationService, nil),
		Wishlist:     handler.NewWishlistHandler(wishlistService),
		User:         handler.NewUserHandler(userService),
		Admin:        handler.NewAdminHandler(dashboardService, notificationService),
		Outbox:       handler.NewOutboxHandler(outboxService),
		System:       handler.NewSystemHandler("shopfront", "test"),
	}, router.Guards{
		Auth: middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			JWTService:      jwtService,
			TokenBlacklist:  blacklist,
			QueryTokenPaths: []string{"/api/v1/ws"},
			Logger:          log,
		}),
		OptionalAuth: middleware.OptionalJWTAuthMiddleware(jwtService),
		Admin:        middleware.RequireAdmin(),
	})

	return &testAPI{t: t, db: db, engine: engine}
}

// do sends a JSON request, optionally authenticated, plus extra header pairs
func (a *testAPI) do(method, path string, body any, token string, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	if token != "" {
		headers = append(headers, "Authorization", "Bearer "+token)
	}
	return testutil.PerformRequest(a.t, a.engine, method, path, body, headers...)
}

// expect sends a request, requires the status and decodes data into out
func (a *testAPI) expect(status int, method, path string, body any, token string, out any) testutil.Envelope {
	a.t.Helper()
	w := a.do(method, path, body, token)
	require.Equal(a.t, status, w.Code, "%s %s: %s", method, path, w.Body.String())
	if status == http.StatusNoContent {
		return testutil.Envelope{Success: true}
	}
	return testutil.DecodeEnvelope(a.t, w, out)
}

type session struct {
	UserID       uuid.UUID
	AccessToken  string
	RefreshToken string
}

// signUp registers an account. The first account of a fresh API is the admin.
func (a *testAPI) signUp(name, email string) session {
	a.t.Helper()
	var result identity.AuthResult
	a.expect(http.StatusCreated, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": testPassword,
	}, "", &result)
	require.NotNil(a.t, result.Tokens)
	return session{
		UserID:       result.User.ID,
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
	}
}

// shop seeds an admin, a customer and one category
type shop struct {
	*testAPI
	admin      session
	customer   session
	categoryID uuid.UUID
}

func newShop(t *testing.T) *shop {
	t.Helper()
	a := newTestAPI(t)
	s := &shop{
		testAPI:  a,
		admin:    a.signUp("Ada Admin", "admin@shop.test"),
		customer: a.signUp("Carl Customer", "carl@shop.test"),
	}

	var category catalogapp.CategoryResponse
	a.expect(http.StatusCreated, http.MethodPost, "/api/v1/categories", map[string]any{
		"name": "Footwear",
	}, s.admin.AccessToken, &category)
	s.categoryID = category.ID
	return s
}

// addProduct creates an active product as the admin
func (s *shop) addProduct(name, price string, stock int) catalogapp.ProductResponse {
	s.t.Helper()
	var product catalogapp.ProductResponse
	s.expect(http.StatusCreated, http.MethodPost, "/api/v1/products", map[string]any{
		"name":        name,
		"brand":       "Acme",
		"category_id": s.categoryID,
		"price":       price,
		"stock":       stock,
	}, s.admin.AccessToken, &product)
	return product
}

func shippingAddress() map[string]string {
	return map[string]string{
		"full_name":   "Carl Customer",
		"line1":       "1 Main Street",
		"city":        "Springfield",
		"postal_code": "12345",
		"country":     "US",
	}
}

// placeOrder checks out explicit items as the customer
func (s *shop) placeOrder(productID uuid.UUID, qty int, method string) orderapp.OrderResponse {
	s.t.Helper()
	var result orderapp.CreateOrderResult
	s.expect(http.StatusCreated, http.MethodPost, "/api/v1/orders", map[string]any{
		"items":            []map[string]any{{"product_id": productID, "quantity": qty}},
		"shipping_address": shippingAddress(),
		"payment_method":   method,
	}, s.customer.AccessToken, &result)
	return result.Order
}

func (s *shop) product(id uuid.UUID) catalogapp.ProductResponse {
	s.t.Helper()
	var product catalogapp.ProductResponse
	s.expect(http.StatusOK, http.MethodGet, "/api/v1/products/"+id.String(), nil, s.admin.AccessToken, &product)
	return product
}
