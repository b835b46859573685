package models

import (
	"strings"
	"time"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Raid lifecycle. Open accepts signups, Started is locked, Completed is
// terminal and moves the raid into the archive.
const (
	RaidStatusOpen      = "Open"
	RaidStatusStarted   = "Started"
	RaidStatusCompleted = "Completed"
)

type User struct {
	ID           int       `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Character struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Class     string    `json:"class" db:"class"`
	Roles     string    `json:"roles" db:"roles"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Username  string    `json:"username,omitempty" db:"-"`
}

// RoleList splits the comma-joined roles column.
func (c *Character) RoleList() []string {
	if c.Roles == "" {
		return nil
	}
	return strings.Split(c.Roles, ",")
}

type Item struct {
	ID           int    `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	BossName     string `json:"boss_name" db:"boss_name"`
	RaidInstance string `json:"raid_instance" db:"raid_instance"`
	SlotType     string `json:"slot_type" db:"slot_type"`
}

type Raid struct {
	ID            int       `json:"id" db:"id"`
	RaidInstance  string    `json:"raid_instance" db:"raid_instance"`
	Title         string    `json:"title" db:"title"`
	Date          string    `json:"date" db:"raid_date"`
	Time          string    `json:"time" db:"raid_time"`
	Status        string    `json:"status" db:"status"`
	PointsSettled bool      `json:"points_settled" db:"points_settled"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

func (r *Raid) IsOpen() bool {
	return r.Status == RaidStatusOpen
}

func (r *Raid) IsCompleted() bool {
	return r.Status == RaidStatusCompleted
}

type Signup struct {
	ID            int    `json:"id" db:"id"`
	CharacterID   int    `json:"character_id" db:"character_id"`
	RaidID        int    `json:"raid_id" db:"raid_id"`
	Role          string `json:"role" db:"role"`
	CharacterName string `json:"character_name,omitempty" db:"-"`
	Raid          *Raid  `json:"raid,omitempty" db:"-"`
}

type Reservation struct {
	SignupID int    `json:"signup_id" db:"signup_id"`
	ItemID   int    `json:"item_id" db:"item_id"`
	ItemName string `json:"item_name,omitempty" db:"-"`
	Points   int    `json:"points" db:"-"`
}

// LedgerEntry is the accumulated loot-priority score of one character
// for one item. An absent row counts as zero.
type LedgerEntry struct {
	CharacterID   int    `json:"character_id" db:"character_id"`
	ItemID        int    `json:"item_id" db:"item_id"`
	Points        int    `json:"points" db:"points"`
	CharacterName string `json:"character_name,omitempty" db:"-"`
	ItemName      string `json:"item_name,omitempty" db:"-"`
}

type WishlistEntry struct {
	CharacterID int    `json:"character_id" db:"character_id"`
	ItemID      int    `json:"item_id" db:"item_id"`
	Priority    int    `json:"priority" db:"priority"`
	ItemName    string `json:"item_name,omitempty" db:"-"`
}

// WishlistComparison is the advisory competition view for one wishlist
// item on a specific raid. CompetitorMaxPoints is nil when nobody else
// reserved the item.
type WishlistComparison struct {
	ItemID              int    `json:"item_id"`
	ItemName            string `json:"item_name"`
	Priority            int    `json:"priority"`
	OwnPoints           int    `json:"own_points"`
	CompetitorCount     int    `json:"competitor_count"`
	CompetitorMaxPoints *int   `json:"competitor_max_points"`
}

type LogEntry struct {
	ID        int       `json:"id" db:"id"`
	Action    string    `json:"action" db:"action"`
	Details   string    `json:"details" db:"details"`
	RaidID    *int      `json:"raid_id,omitempty" db:"raid_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

type Session struct {
	ID        string    `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CSRFToken struct {
	Token     string    `json:"token" db:"token"`
	UserID    int       `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
