package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"lootledger/internal/database"
	"lootledger/internal/logger"

	"github.com/gin-gonic/gin"
)

var validRoles = map[string]bool{
	"Tank": true,
	"Heal": true,
	"DPS":  true,
}

func parseRoles(c *gin.Context) (string, bool) {
	roles := c.PostFormArray("roles")
	if len(roles) == 0 {
		return "", false
	}
	for _, role := range roles {
		if !validRoles[role] {
			return "", false
		}
	}
	return strings.Join(roles, ","), true
}

func handleProfile(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user")

	characters, err := database.GetCharacters(db, userID)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "profile.html", gin.H{
			"Title": "Profile - Loot Ledger",
			"User":  user,
			"Error": "Failed to load characters",
		})
		return
	}

	csrfToken, err := database.CreateCSRFToken(db, userID)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "profile.html", gin.H{
			"Title": "Profile - Loot Ledger",
			"User":  user,
			"Error": "Failed to generate security token",
		})
		return
	}

	c.HTML(http.StatusOK, "profile.html", gin.H{
		"Title":      "Profile - Loot Ledger",
		"User":       user,
		"Characters": characters,
		"CSRFToken":  csrfToken.Token,
	})
}

func handleCreateCharacter(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sql.DB)

	name := strings.TrimSpace(c.PostForm("name"))
	class := strings.TrimSpace(c.PostForm("class"))
	roles, ok := parseRoles(c)

	if name == "" || class == "" || !ok {
		c.HTML(http.StatusBadRequest, "profile.html", gin.H{
			"Title": "Profile - Loot Ledger",
			"User":  c.MustGet("user"),
			"Error": "Character name, class and at least one role are required",
		})
		return
	}

	character, err := database.CreateCharacter(db, userID, name, class, roles)
	if err != nil {
		status := http.StatusInternalServerError
		message := "Failed to create character"
		if errors.Is(err, database.ErrConflict) {
			status = http.StatusConflict
			message = "A character with that name already exists"
		}
		c.HTML(status, "profile.html", gin.H{
			"Title": "Profile - Loot Ledger",
			"User":  c.MustGet("user"),
			"Error": message,
		})
		return
	}

	logger.Info("Character created", "character", character.Name, "class", character.Class, "user_id", userID)

	c.Redirect(http.StatusFound, "/profile")
}

func handleEditCharacterPage(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user")

	characterID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Invalid character ID",
		})
		return
	}

	character, err := database.GetCharacter(db, userID, characterID)
	if err != nil {
		c.HTML(http.StatusNotFound, "error.html", gin.H{
			"Title": "Not Found - Loot Ledger",
			"Error": "Character not found",
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

	c.HTML(http.StatusOK, "character_edit.html", gin.H{
		"Title":     "Edit Character - Loot Ledger",
		"User":      user,
		"Character": character,
		"CSRFToken": csrfToken.Token,
	})
}

func handleUpdateCharacter(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sql.DB)

	characterID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Invalid character ID",
		})
		return
	}

	name := strings.TrimSpace(c.PostForm("name"))
	class := strings.TrimSpace(c.PostForm("class"))
	roles, ok := parseRoles(c)

	if name == "" || class == "" || !ok {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Character name, class and at least one role are required",
		})
		return
	}

	err = database.UpdateCharacter(db, userID, characterID, name, class, roles)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.HTML(http.StatusNotFound, "error.html", gin.H{
				"Title": "Not Found - Loot Ledger",
				"Error": "Character not found",
			})
			return
		}
		status := http.StatusInternalServerError
		message := "Failed to update character"
		if errors.Is(err, database.ErrConflict) {
			status = http.StatusConflict
			message = "A character with that name already exists"
		}
		c.HTML(status, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": message,
		})
		return
	}

	c.Redirect(http.StatusFound, "/profile")
}

func handleDeleteCharacter(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sql.DB)

	characterID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Invalid character ID",
		})
		return
	}

	character, err := database.GetCharacter(db, userID, characterID)
	if err != nil {
		c.HTML(http.StatusNotFound, "error.html", gin.H{
			"Title": "Not Found - Loot Ledger",
			"Error": "Character not found",
		})
		return
	}

	if err := database.DeleteCharacter(db, userID, characterID); err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Failed to delete character",
		})
		return
	}

	logger.Info("Character deleted", "character", character.Name, "user_id", userID)

	c.Redirect(http.StatusFound, "/profile")
}
