package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DatabasePath    string        `env:"DATABASE_PATH" envDefault:"lootledger.db"`
	Port            string        `env:"PORT" envDefault:"8080"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"production"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"INFO"`
	SessionDuration time.Duration `env:"SESSION_DURATION" envDefault:"720h"`

	MailgunAPIKey      string `env:"MAILGUN_API_KEY"`
	MailgunDomain      string `env:"MAILGUN_DOMAIN"`
	MailgunSenderEmail string `env:"MAILGUN_SENDER_EMAIL" envDefault:"noreply@localhost"`
	MailgunSenderName  string `env:"MAILGUN_SENDER_NAME" envDefault:"Loot Ledger"`

	Rules Rules `envPrefix:"RULES_"`
}

// Rules holds the guild's loot rules. They used to be process-wide
// globals; passing them explicitly keeps the settlement and eligibility
// code free of mutable shared state.
type Rules struct {
	AllowDuplicateSignups bool                `env:"ALLOW_DUPLICATE_SIGNUPS" envDefault:"false"`
	WishlistSlots         int                 `env:"WISHLIST_SLOTS" envDefault:"6"`
	ReservationSlots      map[string]int      `env:"-"`
	SlotTypeClasses       map[string][]string `env:"-"`
}

// ReservationSlotsFor returns the reservation cap for a raid role,
// falling back to the default cap for unknown roles.
func (r Rules) ReservationSlotsFor(role string) int {
	if n, ok := r.ReservationSlots[role]; ok {
		return n
	}
	return r.ReservationSlots["default"]
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.Rules.ReservationSlots = defaultReservationSlots()
	cfg.Rules.SlotTypeClasses = defaultSlotTypeClasses()
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func defaultReservationSlots() map[string]int {
	return map[string]int{
		"Tank":    3,
		"Heal":    3,
		"DPS":     2,
		"default": 3,
	}
}

// defaultSlotTypeClasses maps an armor or weapon slot type to the
// classes allowed to reserve it. Slot types missing here (trinkets,
// rings, mounts and so on) are open to every class.
func defaultSlotTypeClasses() map[string][]string {
	return map[string][]string{
		"Cloth":   {"Mage", "Warlock", "Priest", "Druid", "Shaman"},
		"Leather": {"Rogue", "Druid", "Shaman", "Warrior"},
		"Mail":    {"Hunter", "Shaman"},
		"Plate":   {"Warrior", "Paladin"},
		"Wand":    {"Mage", "Warlock", "Priest"},
		"Gun":     {"Hunter", "Warrior", "Rogue"},
		"Thrown":  {"Warrior", "Rogue"},
		"Relic":   {"Shaman", "Druid", "Paladin"},
	}
}
