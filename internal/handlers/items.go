package handlers

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"lootledger/internal/database"
	"lootledger/internal/logger"
	"lootledger/internal/models"

	"github.com/gin-gonic/gin"
)

func handleItems(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user")

	items, err := database.GetAllItems(db)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "items.html", gin.H{
			"Title": "Items - Loot Ledger",
			"User":  user,
			"Error": "Failed to load items",
		})
		return
	}

	csrfToken, err := database.CreateCSRFToken(db, userID)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "items.html", gin.H{
			"Title": "Items - Loot Ledger",
			"User":  user,
			"Error": "Failed to generate security token",
		})
		return
	}

	c.HTML(http.StatusOK, "items.html", gin.H{
		"Title":     "Items - Loot Ledger",
		"User":      user,
		"Items":     items,
		"CSRFToken": csrfToken.Token,
	})
}

func handleNewItemPage(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user")

	csrfToken, err := database.CreateCSRFToken(db, userID)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "item_form.html", gin.H{
			"Title": "New Item - Loot Ledger",
			"User":  user,
			"Error": "Failed to generate security token",
		})
		return
	}

	c.HTML(http.StatusOK, "item_form.html", gin.H{
		"Title":     "New Item - Loot Ledger",
		"User":      user,
		"CSRFToken": csrfToken.Token,
	})
}

func handleCreateItem(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user").(*models.User)

	name := strings.TrimSpace(c.PostForm("name"))
	bossName := strings.TrimSpace(c.PostForm("boss_name"))
	raidInstance := strings.TrimSpace(c.PostForm("raid_instance"))
	slotType := strings.TrimSpace(c.PostForm("slot_type"))

	if name == "" || raidInstance == "" || slotType == "" {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Item name, raid instance and slot type are required",
		})
		return
	}

	item, err := database.CreateItem(db, name, bossName, raidInstance, slotType)
	if err != nil {
		status := http.StatusInternalServerError
		message := "Failed to create item"
		if errors.Is(err, database.ErrConflict) {
			status = http.StatusConflict
			message = "An item with that name already exists"
		}
		c.HTML(status, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": message,
		})
		return
	}

	database.LogAction(db, user.Username, database.ActionItemCreated, "Created item "+item.Name, nil)

	c.Redirect(http.StatusFound, "/admin/items")
}

func handleEditItemPage(c *gin.Context) {
	userID := c.MustGet("user_id").(int)
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user")

	itemID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Invalid item ID",
		})
		return
	}

	item, err := database.GetItem(db, itemID)
	if err != nil {
		c.HTML(http.StatusNotFound, "error.html", gin.H{
			"Title": "Not Found - Loot Ledger",
			"Error": "Item not found",
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

	c.HTML(http.StatusOK, "item_form.html", gin.H{
		"Title":     "Edit Item - Loot Ledger",
		"User":      user,
		"Item":      item,
		"CSRFToken": csrfToken.Token,
	})
}

func handleUpdateItem(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user").(*models.User)

	itemID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Invalid item ID",
		})
		return
	}

	name := strings.TrimSpace(c.PostForm("name"))
	bossName := strings.TrimSpace(c.PostForm("boss_name"))
	raidInstance := strings.TrimSpace(c.PostForm("raid_instance"))
	slotType := strings.TrimSpace(c.PostForm("slot_type"))

	if name == "" || raidInstance == "" || slotType == "" {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Item name, raid instance and slot type are required",
		})
		return
	}

	err = database.UpdateItem(db, itemID, name, bossName, raidInstance, slotType)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound):
			c.HTML(http.StatusNotFound, "error.html", gin.H{
				"Title": "Not Found - Loot Ledger",
				"Error": "Item not found",
			})
		case errors.Is(err, database.ErrConflict):
			c.HTML(http.StatusConflict, "error.html", gin.H{
				"Title": "Error - Loot Ledger",
				"Error": "An item with that name already exists",
			})
		default:
			c.HTML(http.StatusInternalServerError, "error.html", gin.H{
				"Title": "Error - Loot Ledger",
				"Error": "Failed to update item",
			})
		}
		return
	}

	database.LogAction(db, user.Username, database.ActionItemUpdated, "Updated item "+name, nil)

	c.Redirect(http.StatusFound, "/admin/items")
}

func handleDeleteItem(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user").(*models.User)

	itemID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Invalid item ID",
		})
		return
	}

	item, err := database.DeleteItem(db, itemID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			c.HTML(http.StatusNotFound, "error.html", gin.H{
				"Title": "Not Found - Loot Ledger",
				"Error": "Item not found",
			})
			return
		}
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Failed to delete item",
		})
		return
	}

	database.LogAction(db, user.Username, database.ActionItemDeleted, "Deleted item "+item.Name, nil)

	c.Redirect(http.StatusFound, "/admin/items")
}

// handleImportItems ingests a CSV upload with the columns
// name,boss_name,raid_instance,slot_type. A header row is detected by
// its first cell and skipped. Existing items are updated in place.
func handleImportItems(c *gin.Context) {
	db := c.MustGet("db").(*sql.DB)
	user := c.MustGet("user").(*models.User)

	file, err := c.FormFile("file")
	if err != nil {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "A CSV file is required",
		})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Failed to read upload",
		})
		return
	}
	defer src.Close()

	items, err := parseItemCSV(src)
	if err != nil {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Invalid CSV: " + err.Error(),
		})
		return
	}

	if len(items) == 0 {
		c.HTML(http.StatusBadRequest, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "The CSV file contains no items",
		})
		return
	}

	imported, err := database.ImportItems(db, items)
	if err != nil {
		logger.Error("Item import failed", "error", err)
		c.HTML(http.StatusInternalServerError, "error.html", gin.H{
			"Title": "Error - Loot Ledger",
			"Error": "Failed to import items",
		})
		return
	}

	database.LogAction(db, user.Username, database.ActionItemsImported,
		fmt.Sprintf("Imported %d items from %s", imported, file.Filename), nil)

	c.Redirect(http.StatusFound, "/admin/items")
}

func parseItemCSV(r io.Reader) ([]database.ItemImport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 4
	reader.TrimLeadingSpace = true

	var items []database.ItemImport
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if line == 1 && strings.EqualFold(record[0], "name") {
			continue
		}

		name := strings.TrimSpace(record[0])
		if name == "" {
			return nil, fmt.Errorf("line %d: item name is empty", line)
		}

		items = append(items, database.ItemImport{
			Name:         name,
			BossName:     strings.TrimSpace(record[1]),
			RaidInstance: strings.TrimSpace(record[2]),
			SlotType:     strings.TrimSpace(record[3]),
		})
	}

	return items, nil
}
