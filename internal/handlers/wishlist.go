package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"lootledger/internal/config"
	"lootledger/internal/database"
	"lootledger/internal/eligibility"
	"lootledger/internal/models"

	"github.com/gin-gonic/gin"
)

// wishlistCharacter resolves the :id parameter and checks that the
// character belongs to the current user. Admins may act on any
// character.
func wishlistCharacter(c *gin.Context) (int, bool) {
	characterID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid character ID"})
		return 0, false
	}

	user := c.MustGet("user").(*models.User)
	if user.IsAdmin() {
		return characterID, true
	}

	db := c.MustGet("db").(*sql.DB)
	owned, err := database.CharacterOwnedBy(db, characterID, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check character ownership"})
		return 0, false
	}
	if !owned {
		c.JSON(http.StatusNotFound, gin.H{"error": "Character not found"})
		return 0, false
	}

	return characterID, true
}

func handleCharacterPoints(c *gin.Context) {
	characterID, ok := wishlistCharacter(c)
	if !ok {
		return
	}

	db := c.MustGet("db").(*sql.DB)
	entries, err := database.GetCharacterPoints(db, characterID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load points"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"points": entries})
}

func handleGetWishlist(c *gin.Context) {
	characterID, ok := wishlistCharacter(c)
	if !ok {
		return
	}

	db := c.MustGet("db").(*sql.DB)
	entries, err := database.GetWishlist(db, characterID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load wishlist"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"wishlist": entries})
}

func handleAddWishlistItem(c *gin.Context) {
	characterID, ok := wishlistCharacter(c)
	if !ok {
		return
	}

	itemID, err := strconv.Atoi(c.PostForm("item_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	db := c.MustGet("db").(*sql.DB)
	cfg := c.MustGet("config").(*config.Config)

	err = database.AddWishlistItem(db, characterID, itemID, cfg.Rules.WishlistSlots)
	if err != nil {
		if errors.Is(err, database.ErrWishlistFull) {
			c.JSON(http.StatusConflict, gin.H{"error": "Wishlist is full"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add wishlist item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"added": itemID})
}

func handleRemoveWishlistItem(c *gin.Context) {
	characterID, ok := wishlistCharacter(c)
	if !ok {
		return
	}

	itemID, err := strconv.Atoi(c.Param("item_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	db := c.MustGet("db").(*sql.DB)
	if err := database.RemoveWishlistItem(db, characterID, itemID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove wishlist item"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": itemID})
}

func handleMoveWishlistItem(c *gin.Context) {
	characterID, ok := wishlistCharacter(c)
	if !ok {
		return
	}

	itemID, err := strconv.Atoi(c.Param("item_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	direction := c.Query("direction")
	if direction == "" {
		direction = c.PostForm("direction")
	}
	if direction != "up" && direction != "down" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Direction must be up or down"})
		return
	}

	db := c.MustGet("db").(*sql.DB)
	err = database.MoveWishlistItem(db, characterID, itemID, direction)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Wishlist item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to move wishlist item"})
		return
	}

	entries, err := database.GetWishlist(db, characterID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load wishlist"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"wishlist": entries})
}

func handleSearchItems(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)
	cfg := c.MustGet("config").(*config.Config)

	nameQuery := strings.TrimSpace(c.Query("q"))
	class := strings.TrimSpace(c.Query("class"))

	filter := eligibility.NewFilter(cfg.Rules.SlotTypeClasses)
	slotTypes := filter.AllowedSlotTypes(class)

	items, err := database.SearchItems(db, nameQuery, slotTypes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search items"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

func handleWishlistHelper(c *gin.Context) {
	raidID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid raid ID"})
		return
	}

	characterID, err := strconv.Atoi(c.Query("character_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid character ID"})
		return
	}

	user := c.MustGet("user").(*models.User)
	db := c.MustGet("db").(*sql.DB)

	if !user.IsAdmin() {
		owned, err := database.CharacterOwnedBy(db, characterID, user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check character ownership"})
			return
		}
		if !owned {
			c.JSON(http.StatusNotFound, gin.H{"error": "Character not found"})
			return
		}
	}

	comparisons, err := database.GetWishlistComparisons(db, raidID, characterID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Raid not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load wishlist comparisons"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"comparisons": comparisons})
}
