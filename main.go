package main

import (
	"fmt"
	"html/template"
	"log"
	"strings"
	"time"

	"lootledger/internal/config"
	"lootledger/internal/database"
	"lootledger/internal/email"
	"lootledger/internal/handlers"
	"lootledger/internal/logger"
	"lootledger/internal/middleware"
	"lootledger/internal/models"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	logger.Initialize(logger.ParseLevel(cfg.LogLevel))

	db, err := database.Initialize(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	emailService := email.NewService(cfg)
	if emailService.IsEnabled() {
		log.Println("Email service enabled with Mailgun")
	} else {
		log.Println("Email service disabled - Mailgun not configured")
	}

	// Expired sessions and one-time tokens pile up otherwise.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := database.CleanupExpiredSessions(db); err != nil {
				logger.Warn("Session cleanup failed", "error", err)
			}
			if err := database.CleanupExpiredCSRFTokens(db); err != nil {
				logger.Warn("CSRF token cleanup failed", "error", err)
			}
		}
	}()

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	funcMap := template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"joinRoles": func(roles string) string {
			return strings.ReplaceAll(roles, ",", ", ")
		},
		"statusBadge": func(status string) string {
			switch status {
			case models.RaidStatusOpen:
				return "badge-open"
			case models.RaidStatusStarted:
				return "badge-started"
			default:
				return "badge-completed"
			}
		},
		"timeAgo": func(t time.Time) string {
			duration := time.Since(t)

			if duration.Minutes() < 1 {
				return "Just now"
			} else if duration.Hours() < 1 {
				minutes := int(duration.Minutes())
				if minutes == 1 {
					return "1 minute ago"
				}
				return fmt.Sprintf("%d minutes ago", minutes)
			} else if duration.Hours() < 24 {
				hours := int(duration.Hours())
				if hours == 1 {
					return "1 hour ago"
				}
				return fmt.Sprintf("%d hours ago", hours)
			} else if duration.Hours() < 48 {
				return "Yesterday"
			} else if duration.Hours() < 168 { // 7 days
				days := int(duration.Hours() / 24)
				return fmt.Sprintf("%d days ago", days)
			}
			return t.Format("Jan 2")
		},
	}

	r.SetFuncMap(funcMap)
	r.LoadHTMLGlob("templates/*.html")
	r.Static("/static", "./static")

	r.Use(middleware.RateLimit(cfg))

	handlers.SetupRoutes(r, db, cfg, emailService)

	log.Printf("Server starting on port %s", cfg.Port)
	log.Fatal(r.Run(":" + cfg.Port))
}
