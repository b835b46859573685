package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"lootledger/internal/config"
	"lootledger/internal/database"
	emailService "lootledger/internal/email"
	"lootledger/internal/logger"

	"github.com/gin-gonic/gin"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func handleRegister(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)

	username := strings.TrimSpace(c.PostForm("username"))
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	confirmPassword := c.PostForm("confirm_password")

	formErrors := make(map[string]string)

	if len(username) < 3 || len(username) > 30 {
		formErrors["username"] = "Username must be between 3 and 30 characters"
	}

	if email != "" && !emailRegex.MatchString(email) {
		formErrors["email"] = "Please enter a valid email address"
	}

	if len(password) < 8 {
		formErrors["password"] = "Password must be at least 8 characters"
	}

	if password != confirmPassword {
		formErrors["confirm_password"] = "Passwords do not match"
	}

	if len(formErrors) > 0 {
		c.HTML(http.StatusBadRequest, "register.html", gin.H{
			"Title":    "Register - Loot Ledger",
			"Errors":   formErrors,
			"Username": username,
			"Email":    email,
		})
		return
	}

	user, err := database.CreateUser(db, username, email, password)
	if err != nil {
		if errors.Is(err, database.ErrConflict) {
			formErrors["general"] = "That username is already taken"
		} else {
			formErrors["general"] = "Failed to create account. Please try again."
		}

		c.HTML(http.StatusBadRequest, "register.html", gin.H{
			"Title":  "Register - Loot Ledger",
			"Errors": formErrors,
		})
		return
	}

	if email != "" {
		emailSvc, _ := c.Get("email_service")
		if service, ok := emailSvc.(*emailService.Service); ok && service.IsEnabled() {
			if err := service.SendWelcomeEmail(user.Username, email); err != nil {
				logger.Warn("Failed to send welcome email",
					"username", user.Username,
					"user_id", user.ID,
					"error", err)
			}
		}
	}

	logger.Info("User registered", "username", user.Username, "user_id", user.ID, "role", user.Role)

	c.HTML(http.StatusOK, "register.html", gin.H{
		"Title":   "Registration Complete - Loot Ledger",
		"Success": "Registration successful! You can now log in.",
	})
}

func handleLogin(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	formErrors := make(map[string]string)

	if username == "" {
		formErrors["username"] = "Username is required"
	}

	if password == "" {
		formErrors["password"] = "Password is required"
	}

	if len(formErrors) > 0 {
		c.HTML(http.StatusBadRequest, "login.html", gin.H{
			"Title":    "Login - Loot Ledger",
			"Errors":   formErrors,
			"Username": username,
		})
		return
	}

	db := c.MustGet("db").(*sql.DB)

	user, err := database.AuthenticateUser(db, username, password)
	if err != nil {
		formErrors["general"] = "Invalid username or password"
		c.HTML(http.StatusBadRequest, "login.html", gin.H{
			"Title":    "Login - Loot Ledger",
			"Errors":   formErrors,
			"Username": username,
		})
		return
	}

	cfg := c.MustGet("config").(*config.Config)
	session, err := database.CreateSession(db, user.ID, cfg.SessionDuration)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "login.html", gin.H{
			"Title":  "Login - Loot Ledger",
			"Errors": map[string]string{"general": "Failed to create session. Please try again."},
		})
		return
	}

	c.SetSameSite(http.SameSiteStrictMode)
	// Set cookie expiry to match session duration
	cookieMaxAge := int(cfg.SessionDuration.Seconds())
	c.SetCookie("session_id", session.ID, cookieMaxAge, "/", "", true, true)
	c.Redirect(http.StatusFound, "/raids")
}

func handleLogout(c *gin.Context) {
	sessionCookie, err := c.Cookie("session_id")
	if err == nil {
		db := c.MustGet("db").(*sql.DB)
		database.DeleteSession(db, sessionCookie)
	}

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie("session_id", "", -1, "/", "", true, true)
	c.Redirect(http.StatusFound, "/")
}
