package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"lootledger/internal/config"
	"lootledger/internal/database"
	"lootledger/internal/models"

	"github.com/gin-gonic/gin"
)

func handleRaids(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user")

	raids, err := database.GetActiveRaids(db)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "raids.html", gin.H{
			"Title": "Raids - Loot Ledger",
			"User":  user,
			"Error": "Failed to load raids",
		})
		return
	}

	signups, err := database.GetUserSignups(db, userID)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "raids.html", gin.H{
			"Title": "Raids - Loot Ledger",
			"User":  user,
			"Error": "Failed to load signups",
		})
		return
	}

	signedUp := make(map[int]bool)
	for _, signup := range signups {
		signedUp[signup.RaidID] = true
	}

	csrfToken, err := database.CreateCSRFToken(db, userID)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "raids.html", gin.H{
			"Title": "Raids - Loot Ledger",
			"User":  user,
			"Error": "Failed to generate security token",
		})
		return
	}

	c.HTML(http.StatusOK, "raids.html", gin.H{
		"Title":     "Raids - Loot Ledger",
		"User":      user,
		"Raids":     raids,
		"SignedUp":  signedUp,
		"CSRFToken": csrfToken.Token,
	})
}

func handleSignupPage(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user")

	raidID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Invalid raid ID",
		})
		return
	}

	raid, err := database.GetRaid(db, raidID)
	if err != nil {
		c.HTML(http.StatusNotFound, "error.html", gin.H{
			"Title": "Not Found - Loot Ledger",
			"Error": "Raid not found",
		})
		return
	}

	if !raid.IsOpen() {
		c.HTML(http.StatusConflict, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "This raid is no longer accepting signups",
		})
		return
	}

	characters, err := database.GetCharacters(db, userID)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Failed to load characters",
		})
		return
	}

	items, err := database.GetItemsByInstance(db, raid.RaidInstance)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Failed to load items",
		})
		return
	}

	cfg := c.MustGet("config").(*config.Config)
	csrfToken, err := database.CreateCSRFToken(db, userID)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Failed to generate security token",
		})
		return
	}

	c.HTML(http.StatusOK, "raid_signup.html", gin.H{
		"Title":            "Raid Signup - Loot Ledger",
		"User":             user,
		"Raid":             raid,
		"Characters":       characters,
		"Items":            items,
		"ReservationSlots": cfg.Rules.ReservationSlots,
		"CSRFToken":        csrfToken.Token,
	})
}

func handleCreateSignup(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sql.DB)
	cfg := c.MustGet("config").(*config.Config)

	raidID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Invalid raid ID",
		})
		return
	}

	characterID, err := strconv.Atoi(c.PostForm("character_id"))
	if err != nil {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "A character is required",
		})
		return
	}

	role := c.PostForm("role")
	if !validRoles[role] {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "A valid raid role is required",
		})
		return
	}

	var itemIDs []int
	for _, raw := range c.PostFormArray("item_ids") {
		itemID, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		itemIDs = append(itemIDs, itemID)
	}

	maxReservations := cfg.Rules.ReservationSlotsFor(role)
	_, err = database.CreateSignup(db, userID, raidID, characterID, role, itemIDs, cfg.Rules.AllowDuplicateSignups, maxReservations)
	if err != nil {
		status := http.StatusInternalServerError
		message := "Failed to sign up"
		switch {
		case errors.Is(err, database.ErrInvalidTransition):
			status = http.StatusConflict
			message = "This raid is no longer accepting signups"
		case errors.Is(err, database.ErrConflict):
			status = http.StatusConflict
			message = "You are already signed up for this raid, or reserved too many items"
		case errors.Is(err, database.ErrNotFound):
			status = http.StatusNotFound
			message = "Character not found"
		}
		c.HTML(status, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": message,
		})
		return
	}

	c.Redirect(http.StatusFound, "/signups")
}

func handleMySignups(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user")

	signups, err := database.GetUserSignups(db, userID)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "signups.html", gin.H{
			"Title": "My Signups - Loot Ledger",
			"User":  user,
			"Error": "Failed to load signups",
		})
		return
	}

	type signupView struct {
		models.Signup
		Reservations []models.Reservation
	}

	views := make([]signupView, 0, len(signups))
	for _, signup := range signups {
		reservations, err := database.GetSignupReservations(db, signup.ID, signup.CharacterID)
		if err != nil {
			c.HTML(http.StatusInternalServerError, "signups.html", gin.H{
				"Title": "My Signups - Loot Ledger",
				"User":  user,
				"Error": "Failed to load reservations",
			})
			return
		}
		views = append(views, signupView{Signup: signup, Reservations: reservations})
	}

	csrfToken, err := database.CreateCSRFToken(db, userID)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "signups.html", gin.H{
			"Title": "My Signups - Loot Ledger",
			"User":  user,
			"Error": "Failed to generate security token",
		})
		return
	}

	c.HTML(http.StatusOK, "signups.html", gin.H{
		"Title":     "My Signups - Loot Ledger",
		"User":      user,
		"Signups":   views,
		"CSRFToken": csrfToken.Token,
	})
}

func handleCancelSignup(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sql.DB)

	signupID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Invalid signup ID",
		})
		return
	}

	signup, err := database.CancelSignup(db, userID, signupID)
	if err != nil {
		status := http.StatusInternalServerError
		message := "Failed to cancel signup"
		switch {
		case errors.Is(err, database.ErrNotFound):
			status = http.StatusNotFound
			message = "Signup not found"
		case errors.Is(err, database.ErrInvalidTransition):
			status = http.StatusConflict
			message = "Signups can only be canceled while the raid is open"
		}
		c.HTML(status, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": message,
		})
		return
	}

	user := c.MustGet("user").(*models.User)
	database.LogAction(db, user.Username, database.ActionSignupCanceled,
		"Canceled signup of "+signup.CharacterName, &signup.RaidID)

	c.Redirect(http.StatusFound, "/signups")
}

func handleLedger(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user")

	sortBy := c.DefaultQuery("sort", "item_name")
	order := c.DefaultQuery("order", "asc")

	entries, err := database.GetLedgerOverview(db, sortBy, order)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "ledger.html", gin.H{
			"Title": "Loot Points - Loot Ledger",
			"User":  user,
			"Error": "Failed to load loot points",
		})
		return
	}

	c.HTML(http.StatusOK, "ledger.html", gin.H{
		"Title":   "Loot Points - Loot Ledger",
		"User":    user,
		"Entries": entries,
		"SortBy":  sortBy,
		"Order":   order,
	})
}
