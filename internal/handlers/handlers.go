package handlers

import (
	"database/sql"
	"net/http"

	"lootledger/internal/config"
	"lootledger/internal/database"
	"lootledger/internal/email"
	"lootledger/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, db *sql.DB, cfg *config.Config, emailService *email.Service) {
	r.Use(middleware.LogRequests())
	r.Use(middleware.SecurityHeaders(cfg))
	r.Use(middleware.AddDBContext(db))
	r.Use(middleware.AddConfigContext(cfg))
	r.Use(addEmailServiceContext(emailService))
	r.Use(middleware.TrimSpaces())

	r.GET("/", middleware.AuthOptional(db, cfg), handleHome)
	r.GET("/register", handleRegisterPage)
	r.POST("/register", middleware.AuthRateLimit(cfg), handleRegister)
	r.GET("/login", handleLoginPage)
	r.POST("/login", middleware.AuthRateLimit(cfg), handleLogin)
	r.POST("/logout", middleware.AuthRequired(db, cfg), handleLogout)

	protected := r.Group("/")
	protected.Use(middleware.AuthRequired(db, cfg))
	protected.Use(middleware.CSRF(cfg))
	{
		protected.GET("/raids", handleRaids)
		protected.GET("/raids/:id/signup", handleSignupPage)
		protected.POST("/raids/:id/signup", handleCreateSignup)
		protected.GET("/signups", handleMySignups)
		protected.POST("/signups/:id/cancel", handleCancelSignup)

		protected.GET("/profile", handleProfile)
		protected.POST("/characters", handleCreateCharacter)
		protected.GET("/characters/:id/edit", handleEditCharacterPage)
		protected.POST("/characters/:id", handleUpdateCharacter)
		protected.POST("/characters/:id/delete", handleDeleteCharacter)

		protected.GET("/ledger", handleLedger)

		protected.GET("/api/csrf-token", handleCSRFToken)
		protected.GET("/api/items/search", handleSearchItems)
		protected.GET("/api/characters/:id/points", handleCharacterPoints)
		protected.GET("/api/characters/:id/wishlist", handleGetWishlist)
		protected.POST("/api/characters/:id/wishlist", handleAddWishlistItem)
		protected.DELETE("/api/characters/:id/wishlist/:item_id", handleRemoveWishlistItem)
		protected.PUT("/api/characters/:id/wishlist/:item_id/move", handleMoveWishlistItem)
		protected.GET("/api/raids/:id/wishlist-helper", handleWishlistHelper)
	}

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(middleware.AdminRequired(db, cfg))
	admin.Use(middleware.CSRF(cfg))
	{
		admin.GET("/", handleAdminPanel)
		admin.POST("/users/:id/promote", handlePromoteUser)
		admin.POST("/users/:id/demote", handleDemoteUser)
		admin.POST("/users/:id/delete", handleDeleteUser)
		admin.GET("/characters", handleCharacterRoster)
		admin.POST("/characters/:id/delete", handleAdminDeleteCharacter)
		admin.GET("/logs", handleLogs)

		admin.GET("/raids/new", handleNewRaidPage)
		admin.POST("/raids", handleCreateRaid)
		admin.GET("/raids/:id/edit", handleEditRaidPage)
		admin.POST("/raids/:id", handleUpdateRaid)
		admin.POST("/raids/:id/delete", handleDeleteRaid)
		admin.POST("/raids/:id/toggle-lock", handleToggleRaidLock)
		admin.POST("/raids/:id/complete", handleCompleteRaid)
		admin.POST("/raids/:id/recount", handleRecountRaid)
		admin.GET("/raids/:id/dashboard", handleRaidDashboard)
		admin.POST("/raids/:id/points", handleAdjustPoints)
		admin.POST("/raids/:id/award", handleAwardItem)
		admin.POST("/signups/:id/remove", handleRemoveSignup)

		admin.GET("/items", handleItems)
		admin.GET("/items/new", handleNewItemPage)
		admin.POST("/items", handleCreateItem)
		admin.GET("/items/:id/edit", handleEditItemPage)
		admin.POST("/items/:id", handleUpdateItem)
		admin.POST("/items/:id/delete", handleDeleteItem)
		admin.POST("/items/import", handleImportItems)

		admin.GET("/archive", handleArchive)
		admin.GET("/archive/:id", handleArchivedRaid)
	}
}

func handleHome(c *gin.Context) {
	user, exists := c.Get("user")
	if exists {
		c.Redirect(http.StatusFound, "/raids")
		return
	}

	c.HTML(http.StatusOK, "home.html", gin.H{
		"Title": "Loot Ledger",
		"User":  user,
	})
}

func handleRegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", gin.H{
		"Title": "Register - Loot Ledger",
	})
}

func handleLoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{
		"Title": "Login - Loot Ledger",
	})
}

func addEmailServiceContext(emailService *email.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("email_service", emailService)
		c.Next()
	}
}

func handleCSRFToken(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sql.DB)

	token, err := database.CreateCSRFToken(db, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate CSRF token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token.Token})
}
