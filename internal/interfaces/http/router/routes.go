package router

import (
	"github.com/gin-gonic/gin"
	"github.com/shopfront/backend/internal/interfaces/http/handler"
)

// Handlers collects the HTTP handlers mounted under the versioned API
type Handlers struct {
	Auth         *handler.AuthHandler
	Category     *handler.CategoryHandler
	Product      *handler.ProductHandler
	Review       *handler.ReviewHandler
	Cart         *handler.CartHandler
	Order        *handler.OrderHandler
	Conversation *handler.ConversationHandler
	Notification *handler.NotificationHandler
	Wishlist     *handler.WishlistHandler
	User         *handler.UserHandler
	Admin        *handler.AdminHandler
	Outbox       *handler.OutboxHandler
	System       *handler.SystemHandler
}

// Guards are the access middleware applied per route group.
// A nil guard lets the request through.
type Guards struct {
	// Auth rejects requests without a valid bearer token
	Auth gin.HandlerFunc
	// OptionalAuth attaches claims when a valid token is present
	OptionalAuth gin.HandlerFunc
	// Admin rejects authenticated callers without the admin role
	Admin gin.HandlerFunc
	// AuthRateLimit throttles credential endpoints
	AuthRateLimit gin.HandlerFunc
	// OrderRateLimit throttles checkout
	OrderRateLimit gin.HandlerFunc
}

func orPass(h gin.HandlerFunc) gin.HandlerFunc {
	if h == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return h
}

// chain prepends the guards to the route handler
func chain(guards []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(guards)+1)
	out = append(out, guards...)
	return append(out, h)
}

// APIGroups builds one DomainGroup per area of the storefront API
func APIGroups(h Handlers, g Guards) []*DomainGroup {
	authed := orPass(g.Auth)
	optional := orPass(g.OptionalAuth)
	admin := []gin.HandlerFunc{authed, orPass(g.Admin)}
	user := []gin.HandlerFunc{authed}

	groups := make([]*DomainGroup, 0, 10)

	if h.Auth != nil {
		auth := NewDomainGroup("auth", "/auth")
		limited := []gin.HandlerFunc{orPass(g.AuthRateLimit)}
		auth.POST("/register", chain(limited, h.Auth.Register)...)
		auth.POST("/login", chain(limited, h.Auth.Login)...)
		auth.POST("/refresh", chain(limited, h.Auth.RefreshToken)...)
		auth.POST("/forgot-password", chain(limited, h.Auth.ForgotPassword)...)
		auth.POST("/reset-password", chain(limited, h.Auth.ResetPassword)...)
		auth.POST("/logout", chain(user, h.Auth.Logout)...)
		auth.GET("/me", chain(user, h.Auth.GetProfile)...)
		auth.PUT("/me", chain(user, h.Auth.UpdateProfile)...)
		auth.PUT("/password", chain(user, h.Auth.ChangePassword)...)
		groups = append(groups, auth)
	}

	if h.Category != nil {
		categories := NewDomainGroup("categories", "/categories")
		categories.GET("", h.Category.List)
		categories.GET("/:id", h.Category.GetByID)
		categories.POST("", chain(admin, h.Category.Create)...)
		categories.PUT("/:id", chain(admin, h.Category.Update)...)
		categories.DELETE("/:id", chain(admin, h.Category.Delete)...)
		groups = append(groups, categories)
	}

	if h.Product != nil {
		products := NewDomainGroup("products", "/products")
		products.GET("", optional, h.Product.List)
		products.GET("/featured", h.Product.Featured)
		products.GET("/:id", optional, h.Product.Get)
		products.GET("/:id/related", h.Product.Related)
		products.POST("", chain(admin, h.Product.Create)...)
		products.PUT("/:id", chain(admin, h.Product.Update)...)
		products.DELETE("/:id", chain(admin, h.Product.Delete)...)
		products.POST("/:id/stock", chain(admin, h.Product.AdjustStock)...)
		products.POST("/:id/images", chain(admin, h.Product.UploadImage)...)
		products.DELETE("/:id/images", chain(admin, h.Product.RemoveImage)...)
		if h.Review != nil {
			products.GET("/:id/reviews", h.Review.List)
			products.POST("/:id/reviews", chain(user, h.Review.Create)...)
			products.DELETE("/:id/reviews/:review_id", chain(user, h.Review.Delete)...)
		}
		groups = append(groups, products)
	}

	if h.Cart != nil {
		cart := NewDomainGroup("cart", "/cart").Use(authed)
		cart.GET("", h.Cart.Get)
		cart.DELETE("", h.Cart.Clear)
		cart.POST("/items", h.Cart.AddItem)
		cart.PUT("/items/:product_id", h.Cart.UpdateItem)
		cart.DELETE("/items/:product_id", h.Cart.RemoveItem)
		groups = append(groups, cart)
	}

	if h.Order != nil {
		orders := NewDomainGroup("orders", "/orders").Use(authed)
		orders.POST("", orPass(g.OrderRateLimit), h.Order.Create)
		orders.GET("/mine", h.Order.ListMine)
		orders.GET("/:id", h.Order.Get)
		orders.POST("/:id/cancel", h.Order.Cancel)
		orders.POST("/:id/pay", h.Order.Pay)
		orders.GET("/:id/invoice", h.Order.Invoice)
		groups = append(groups, orders)
	}

	if h.Conversation != nil {
		conversations := NewDomainGroup("conversations", "/conversations").Use(authed)
		conversations.GET("", h.Conversation.List)
		conversations.POST("", h.Conversation.Start)
		conversations.GET("/:id", h.Conversation.Get)
		conversations.GET("/:id/messages", h.Conversation.ListMessages)
		conversations.POST("/:id/messages", h.Conversation.Send)
		conversations.POST("/:id/read", h.Conversation.MarkRead)
		conversations.POST("/:id/close", h.Conversation.Close)
		conversations.POST("/:id/reopen", h.Conversation.Reopen)
		groups = append(groups, conversations)
	}

	if h.Notification != nil {
		notifications := NewDomainGroup("notifications", "/notifications").Use(authed)
		notifications.GET("", h.Notification.List)
		notifications.GET("/unread-count", h.Notification.UnreadCount)
		notifications.POST("/read-all", h.Notification.MarkAllRead)
		notifications.POST("/:id/read", h.Notification.MarkRead)
		notifications.DELETE("/:id", h.Notification.Delete)
		groups = append(groups, notifications)

		ws := NewDomainGroup("ws", "/ws").Use(authed)
		ws.GET("", h.Notification.Socket)
		groups = append(groups, ws)
	}

	if h.Wishlist != nil {
		wishlist := NewDomainGroup("wishlist", "/wishlist").Use(authed)
		wishlist.GET("", h.Wishlist.Get)
		wishlist.DELETE("", h.Wishlist.Clear)
		wishlist.POST("/items", h.Wishlist.Add)
		wishlist.DELETE("/items/:product_id", h.Wishlist.Remove)
		wishlist.POST("/items/:product_id/move-to-cart", h.Wishlist.MoveToCart)
		groups = append(groups, wishlist)
	}

	groups = append(groups, adminGroup(h, admin))

	if h.System != nil {
		system := NewDomainGroup("system", "/system")
		system.GET("/info", h.System.GetSystemInfo)
		system.GET("/ping", h.System.Ping)
		groups = append(groups, system)
	}

	return groups
}

func adminGroup(h Handlers, guards []gin.HandlerFunc) *DomainGroup {
	adm := NewDomainGroup("admin", "/admin").Use(guards...)

	if h.Admin != nil {
		adm.GET("/dashboard", h.Admin.Dashboard)
		adm.GET("/reports/sales", h.Admin.SalesReport)
		adm.POST("/notifications/broadcast", h.Admin.Broadcast)
	}
	if h.Order != nil {
		adm.GET("/orders", h.Order.AdminList)
		adm.PUT("/orders/:id/status", h.Order.UpdateStatus)
	}
	if h.User != nil {
		users := adm.Group("users", "/users")
		users.GET("", h.User.List)
		users.GET("/:id", h.User.Get)
		users.PUT("/:id/role", h.User.UpdateRole)
		users.POST("/:id/block", h.User.Block)
		users.POST("/:id/unblock", h.User.Unblock)
		users.DELETE("/:id", h.User.Delete)
	}
	if h.Outbox != nil {
		outbox := adm.Group("outbox", "/outbox")
		outbox.GET("/stats", h.Outbox.GetStats)
		outbox.GET("/dead", h.Outbox.GetDeadLetterEntries)
		outbox.POST("/dead/retry-all", h.Outbox.RetryAllDeadEntries)
		outbox.POST("/dead/:id/retry", h.Outbox.RetryDeadEntry)
	}

	return adm
}

// Mount registers every API group on the router and sets it up
func Mount(r *Router, h Handlers, g Guards) {
	for _, group := range APIGroups(h, g) {
		r.Register(group)
	}
	r.Setup()
}
