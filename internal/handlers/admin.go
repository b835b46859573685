package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"lootledger/internal/database"
	"lootledger/internal/models"

	"github.com/gin-gonic/gin"
)

func handleAdminPanel(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user")

	users, err := database.GetAllUsers(db)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "admin.html", gin.H{
			"Title": "Admin - Loot Ledger",
			"User":  user,
			"Error": "Failed to load users",
		})
		return
	}

	csrfToken, err := database.CreateCSRFToken(db, userID)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "admin.html", gin.H{
			"Title": "Admin - Loot Ledger",
			"User":  user,
			"Error": "Failed to generate security token",
		})
		return
	}

	c.HTML(http.StatusOK, "admin.html", gin.H{
		"Title":     "Admin - Loot Ledger",
		"User":      user,
		"Users":     users,
		"CSRFToken": csrfToken.Token,
	})
}

func handlePromoteUser(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)
	actor := c.MustGet("user").(*models.User)

	targetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	target, err := database.SetUserRole(db, targetID, models.RoleAdmin)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to promote user"})
		return
	}

	database.LogAction(db, actor.Username, database.ActionUserPromoted,
		"Promoted "+target.Username+" to admin", nil)

	c.JSON(http.StatusOK, gin.H{"role": target.Role})
}

func handleDemoteUser(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)
	actor := c.MustGet("user").(*models.User)

	targetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	// The first account is the guild's root admin and keeps its role.
	if targetID == 1 {
		c.JSON(http.StatusForbidden, gin.H{"error": "The main admin cannot be demoted"})
		return
	}

	target, err := database.SetUserRole(db, targetID, models.RoleMember)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to demote user"})
		return
	}

	database.LogAction(db, actor.Username, database.ActionUserDemoted,
		"Demoted "+target.Username+" to member", nil)

	c.JSON(http.StatusOK, gin.H{"role": target.Role})
}

func handleDeleteUser(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)
	actor := c.MustGet("user").(*models.User)

	targetID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if targetID == actor.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You cannot delete your own account"})
		return
	}

	target, err := database.DeleteUser(db, targetID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	database.LogAction(db, actor.Username, database.ActionUserDeleted,
		"Deleted user "+target.Username, nil)

	c.JSON(http.StatusOK, gin.H{"deleted": target.Username})
}

func handleCharacterRoster(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user")

	characters, err := database.GetAllCharacters(db)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "roster.html", gin.H{
			"Title": "Roster - Loot Ledger",
			"User":  user,
			"Error": "Failed to load characters",
		})
		return
	}

	csrfToken, err := database.CreateCSRFToken(db, userID)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "roster.html", gin.H{
			"Title": "Roster - Loot Ledger",
			"User":  user,
			"Error": "Failed to generate security token",
		})
		return
	}

	c.HTML(http.StatusOK, "roster.html", gin.H{
		"Title":      "Roster - Loot Ledger",
		"User":       user,
		"Characters": characters,
		"CSRFToken":  csrfToken.Token,
	})
}

func handleAdminDeleteCharacter(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)
	actor := c.MustGet("user").(*models.User)

	characterID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid character ID"})
		return
	}

	character, err := database.AdminDeleteCharacter(db, characterID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Character not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete character"})
		return
	}

	database.LogAction(db, actor.Username, database.ActionCharacterDeleted,
		"Deleted character "+character.Name, nil)

	c.JSON(http.StatusOK, gin.H{"deleted": character.Name})
}

func handleLogs(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user")

	logs, err := database.GetLogs(db)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "logs.html", gin.H{
			"Title": "Logs - Loot Ledger",
			"User":  user,
			"Error": "Failed to load logs",
		})
		return
	}

	c.HTML(http.StatusOK, "logs.html", gin.H{
		"Title": "Logs - Loot Ledger",
		"User":  user,
		"Logs":  logs,
	})
}

func handleArchive(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user")

	raids, err := database.GetArchivedRaids(db)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "archive.html", gin.H{
			"Title": "Archive - Loot Ledger",
			"User":  user,
			"Error": "Failed to load archive",
		})
		return
	}

	c.HTML(http.StatusOK, "archive.html", gin.H{
		"Title": "Archive - Loot Ledger",
		"User":  user,
		"Raids": raids,
	})
}

func handleArchivedRaid(c *gin.Context) {
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

	lootLogs, err := database.GetRaidLootLogs(db, raidID)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Failed to load loot log",
		})
		return
	}

	c.HTML(http.StatusOK, "archive_raid.html", gin.H{
		"Title":    raid.Title + " - Loot Ledger",
		"User":     user,
		"Raid":     raid,
		"Signups":  signups,
		"LootLogs": lootLogs,
	})
}
