package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/Franc-dev/galaxy-chat/database"
	"github.com/Franc-dev/galaxy-chat/handlers"
	admin_handlers "github.com/Franc-dev/galaxy-chat/handlers/admin"
	agent_handlers "github.com/Franc-dev/galaxy-chat/handlers/agent"
	auth_handlers "github.com/Franc-dev/galaxy-chat/handlers/auth"
	chat_handlers "github.com/Franc-dev/galaxy-chat/handlers/chat"
	conversation_handlers "github.com/Franc-dev/galaxy-chat/handlers/conversation"
	knowledge_handlers "github.com/Franc-dev/galaxy-chat/handlers/knowledge"
	"github.com/Franc-dev/galaxy-chat/services"
	"github.com/Franc-dev/galaxy-chat/services/openrouter"
	"github.com/Franc-dev/galaxy-chat/utils/auth"
	"github.com/Franc-dev/galaxy-chat/utils/cache"
	"github.com/Franc-dev/galaxy-chat/utils/middleware"
)

// Deps carries the shared clients built during bootstrap
type Deps struct {
	OpenRouter *openrouter.Client
	Selector   *openrouter.ModelSelector
	Cache      *cache.RedisCache
}

func SetupRoutes(app *fiber.App, store database.Storage, deps Deps) {
	// Get JWT secret from environment
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}

	jwtIssuer := os.Getenv("JWT_ISSUER")
	if jwtIssuer == "" {
		jwtIssuer = "galaxy-chat-api"
	}

	jwtConfig := auth.JWTConfig{
		Secret:        jwtSecret,
		Expiry:        24 * time.Hour,     // Access token expires in 24 hours
		RefreshExpiry: 7 * 24 * time.Hour, // Refresh token expires in 7 days
		Issuer:        jwtIssuer,
	}
	jwtManager := auth.NewJWTManager(jwtConfig)

	// Get DB instance (type assert from interface)
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("Failed to get GORM DB instance")
	}

	// Brute force protection piggybacks on the shared Redis cache;
	// without Redis it stays disabled
	var bruteForceProtection *middleware.BruteForceProtection
	if deps.Cache != nil {
		bruteForceProtection = middleware.NewBruteForceProtection(deps.Cache)
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, db)
	authHandler := auth_handlers.NewAuthHandler(db, jwtManager, bruteForceProtection)

	chatService := services.NewChatService(db, deps.OpenRouter, deps.Selector)
	chatHandler := chat_handlers.NewChatHandler(chatService)

	conversationHandler := conversation_handlers.NewConversationHandler(db)
	knowledgeHandler := knowledge_handlers.NewKnowledgeHandler(db)
	agentHandler := agent_handlers.NewAgentHandler(db)
	adminHandler := admin_handlers.NewAdminHandler(db)

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	// Health check endpoint (public)
	app.Get("/ping", handlers.HandleCheckHealth(store))

	// API v1 group
	api := app.Group("/api/v1")

	// Auth routes (public)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)

	// Login with brute force protection
	if bruteForceProtection != nil {
		authGroup.Post("/login", bruteForceProtection.CheckAndRecordAttempt(), authHandler.Login)
	} else {
		authGroup.Post("/login", authHandler.Login)
	}

	authGroup.Post("/refresh", authHandler.RefreshToken)
	authGroup.Get("/user", authMiddleware.Required(), authHandler.GetUser)

	// Chat routes (streaming turn, edit, delete)
	chat := api.Group("/chat", authMiddleware.Required())
	chat.Post("/", chatHandler.SendMessage)
	chat.Put("/", chatHandler.EditMessage)
	chat.Delete("/", chatHandler.DeleteMessage)

	// Conversation routes
	conversations := api.Group("/conversations", authMiddleware.Required())
	conversations.Get("/", conversationHandler.List)
	conversations.Post("/", conversationHandler.Create)
	conversations.Delete("/", conversationHandler.Delete)

	// Knowledge base routes
	knowledge := api.Group("/knowledge", authMiddleware.Required())
	knowledge.Get("/", knowledgeHandler.List)
	knowledge.Post("/", knowledgeHandler.Create)
	knowledge.Delete("/", knowledgeHandler.Delete)

	// Agent routes
	agents := api.Group("/agents")
	agents.Get("/", authMiddleware.Required(), agentHandler.List)
	agents.Post("/", authMiddleware.RequireAdmin(), agentHandler.Create)

	// Admin routes
	admin := api.Group("/admin", authMiddleware.RequireAdmin())
	admin.Get("/users", adminHandler.ListUsers)
	admin.Put("/users", adminHandler.UpdateUser)
	admin.Get("/stats", adminHandler.Stats)
}
