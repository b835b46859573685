package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"lootledger/internal/database"
	emailService "lootledger/internal/email"
	"lootledger/internal/logger"
	"lootledger/internal/models"

	"github.com/gin-gonic/gin"
)

func handleNewRaidPage(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user")

	instances, err := database.GetRaidInstances(db)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "raid_form.html", gin.H{
			"Title": "New Raid - Loot Ledger",
			"User":  user,
			"Error": "Failed to load raid instances",
		})
		return
	}

	csrfToken, err := database.CreateCSRFToken(db, userID)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "raid_form.html", gin.H{
			"Title": "New Raid - Loot Ledger",
			"User":  user,
			"Error": "Failed to generate security token",
		})
		return
	}

	c.HTML(http.StatusOK, "raid_form.html", gin.H{
		"Title":     "New Raid - Loot Ledger",
		"User":      user,
		"Instances": instances,
		"CSRFToken": csrfToken.Token,
	})
}

func handleCreateRaid(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user").(*models.User)

	raidInstance := strings.TrimSpace(c.PostForm("raid_instance"))
	title := strings.TrimSpace(c.PostForm("title"))
	date := strings.TrimSpace(c.PostForm("date"))
	timeOfDay := strings.TrimSpace(c.PostForm("time"))

	if raidInstance == "" || title == "" || date == "" {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Raid instance, title and date are required",
		})
		return
	}

	raid, err := database.CreateRaid(db, raidInstance, title, date, timeOfDay)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Failed to create raid",
		})
		return
	}

	database.LogAction(db, user.Username, database.ActionRaidCreated,
		fmt.Sprintf("Created raid %s (%s)", raid.Title, raid.Date), &raid.ID)

	c.Redirect(http.StatusFound, "/raids")
}

func handleEditRaidPage(c *gin.Context) {
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

	instances, err := database.GetRaidInstances(db)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Failed to load raid instances",
		})
		return
	}

	csrfToken, err := database.CreateCSRFToken(db, userID)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Failed to generate security token",
		})
		return
	}

	c.HTML(http.StatusOK, "raid_form.html", gin.H{
		"Title":     "Edit Raid - Loot Ledger",
		"User":      user,
		"Raid":      raid,
		"Instances": instances,
		"CSRFToken": csrfToken.Token,
	})
}

func handleUpdateRaid(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user").(*models.User)

	raidID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Invalid raid ID",
		})
		return
	}

	raidInstance := strings.TrimSpace(c.PostForm("raid_instance"))
	title := strings.TrimSpace(c.PostForm("title"))
	date := strings.TrimSpace(c.PostForm("date"))
	timeOfDay := strings.TrimSpace(c.PostForm("time"))

	if raidInstance == "" || title == "" || date == "" {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Raid instance, title and date are required",
		})
		return
	}

	if err := database.UpdateRaid(db, raidID, raidInstance, title, date, timeOfDay); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.HTML(http.StatusNotFound, "error.html", gin.H{
				"Title": "Not Found - Loot Ledger",
				"Error": "Raid not found",
			})
			return
		}
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Failed to update raid",
		})
		return
	}

	database.LogAction(db, user.Username, database.ActionRaidUpdated,
		fmt.Sprintf("Updated raid %s (%s)", title, date), &raidID)

	c.Redirect(http.StatusFound, "/raids")
}

func handleDeleteRaid(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user").(*models.User)

	raidID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Invalid raid ID",
		})
		return
	}

	raid, err := database.DeleteRaid(db, raidID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.HTML(http.StatusNotFound, "error.html", gin.H{
				"Title": "Not Found - Loot Ledger",
				"Error": "Raid not found",
			})
			return
		}
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Failed to delete raid",
		})
		return
	}

	database.LogAction(db, user.Username, database.ActionRaidDeleted,
		fmt.Sprintf("Deleted raid %s (%s)", raid.Title, raid.Date), nil)

	c.Redirect(http.StatusFound, "/raids")
}

func handleToggleRaidLock(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user").(*models.User)

	raidID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid raid ID"})
		return
	}

	raid, granted, err := database.ToggleRaidLock(db, raidID)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Raid not found"})
		case errors.Is(err, database.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": "Completed raids cannot be reopened"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle raid lock"})
		}
		return
	}

	if raid.IsOpen() {
		database.LogAction(db, user.Username, database.ActionRaidOpened,
			fmt.Sprintf("Reopened raid %s", raid.Title), &raid.ID)
	} else {
		details := fmt.Sprintf("Locked raid %s", raid.Title)
		if granted > 0 {
			details = fmt.Sprintf("Locked raid %s, granted %d loot points", raid.Title, granted)
		}
		database.LogAction(db, user.Username, database.ActionRaidLocked, details, &raid.ID)
		notifyRaidLocked(c, db, raid)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         raid.Status,
		"points_settled": raid.PointsSettled,
		"points_granted": granted,
	})
}

// notifyRaidLocked mails every signed-up user that has an email on
// file. Sending happens in the background so a slow mail API cannot
// stall the lock request.
func notifyRaidLocked(c *gin.Context, db *sql.DB, raid *models.Raid) {
	emailSvc, _ := c.Get("email_service")
	service, ok := emailSvc.(*emailService.Service)
	if !ok || !service.IsEnabled() {
		return
	}

	recipients, err := database.GetRaidParticipantEmails(db, raid.ID)
	if err != nil {
		logger.Error("Failed to load participant emails", "raid_id", raid.ID, "error", err)
		return
	}

	for _, recipient := range recipients {
		go func(recipient string) {
			if err := service.SendRaidLockedEmail(recipient, raid); err != nil {
				logger.Warn("Failed to send raid locked email",
					"raid_id", raid.ID,
					"error", err)
			}
		}(recipient)
	}
}

func handleCompleteRaid(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user").(*models.User)

	raidID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid raid ID"})
		return
	}

	raid, err := database.CompleteRaid(db, raidID)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Raid not found"})
		case errors.Is(err, database.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": "Raid is already completed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to complete raid"})
		}
		return
	}

	database.LogAction(db, user.Username, database.ActionRaidCompleted,
		fmt.Sprintf("Completed raid %s", raid.Title), &raid.ID)

	c.JSON(http.StatusOK, gin.H{"status": raid.Status})
}

func handleRecountRaid(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user").(*models.User)

	raidID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid raid ID"})
		return
	}

	granted, err := database.RecountRaidPoints(db, raidID)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Raid not found"})
		case errors.Is(err, database.ErrInvalidTransition):
			c.JSON(http.StatusConflict, gin.H{"error": "Points have not been settled for this raid"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to recount points"})
		}
		return
	}

	database.LogAction(db, user.Username, database.ActionRaidRecounted,
		fmt.Sprintf("Recounted raid points, granted %d", granted), &raidID)

	c.JSON(http.StatusOK, gin.H{"points_granted": granted})
}

func handleRaidDashboard(c *gin.Context) {
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

	signups, err := database.GetRaidSignups(db, raidID)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Failed to load signups",
		})
		return
	}

	type participantView struct {
		models.Signup
		Reservations []models.Reservation
	}

	participants := make([]participantView, 0, len(signups))
	for _, signup := range signups {
		reservations, err := database.GetSignupReservations(db, signup.ID, signup.CharacterID)
		if err != nil {
			c.HTML(http.StatusInternalServerError, "error.html", gin.H{
				"Title": "Error - Loot Ledger",
				"Error": "Failed to load reservations",
			})
			return
		}
		participants = append(participants, participantView{Signup: signup, Reservations: reservations})
	}

	lootLogs, err := database.GetRaidLootLogs(db, raidID)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Failed to load loot log",
		})
		return
	}

	csrfToken, err := database.CreateCSRFToken(db, userID)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Failed to generate security token",
		})
		return
	}

	c.HTML(http.StatusOK, "raid_dashboard.html", gin.H{
		"Title":        "Raid Dashboard - Loot Ledger",
		"User":         user,
		"Raid":         raid,
		"Participants": participants,
		"LootLogs":     lootLogs,
		"CSRFToken":    csrfToken.Token,
	})
}

func handleAdjustPoints(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user").(*models.User)

	raidID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid raid ID"})
		return
	}

	characterID, err := strconv.Atoi(c.PostForm("character_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid character ID"})
		return
	}

	itemID, err := strconv.Atoi(c.PostForm("item_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	points, err := strconv.Atoi(c.PostForm("points"))
	if err != nil || points < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Points must be a non-negative number"})
		return
	}

	reason := strings.TrimSpace(c.PostForm("reason"))
	if reason == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A reason is required"})
		return
	}

	if err := database.SetPoints(db, characterID, itemID, points); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to adjust points"})
		return
	}

	database.LogAction(db, user.Username, database.ActionPointsAdjusted,
		fmt.Sprintf("Set points to %d for character %d on item %d: %s", points, characterID, itemID, reason), &raidID)

	c.JSON(http.StatusOK, gin.H{"points": points})
}

func handleAwardItem(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user").(*models.User)

	raidID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid raid ID"})
		return
	}

	characterID, err := strconv.Atoi(c.PostForm("character_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid character ID"})
		return
	}

	itemID, err := strconv.Atoi(c.PostForm("item_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	previous, err := database.AwardItem(db, characterID, itemID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to award item"})
		return
	}

	item, err := database.GetItem(db, itemID)
	itemName := strconv.Itoa(itemID)
	if err == nil {
		itemName = item.Name
	}

	database.LogAction(db, user.Username, database.ActionItemAwarded,
		fmt.Sprintf("Awarded %s to character %d (had %d points)", itemName, characterID, previous), &raidID)

	c.JSON(http.StatusOK, gin.H{"previous_points": previous})
}

func handleRemoveSignup(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user").(*models.User)

	signupID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signup ID"})
		return
	}

	signup, err := database.RemoveSignup(db, signupID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Signup not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove participant"})
		return
	}

	database.LogAction(db, user.Username, database.ActionSignupRemoved,
		"Removed "+signup.CharacterName+" from the raid", &signup.RaidID)

	c.JSON(http.StatusOK, gin.H{"removed": signup.CharacterName})
}
