package kos

// Config holds domain settings loaded from the environment.
type Config struct {
	DefaultMaxProperties int    `env:"KOS_DEFAULT_MAX_PROPERTIES" envDefault:"1"`
	DefaultMaxRooms      int    `env:"KOS_DEFAULT_MAX_ROOMS" envDefault:"5"`
	DefaultPlanSlug      string `env:"KOS_DEFAULT_PLAN" envDefault:"free"`
	BillNumberPrefix     string `env:"KOS_BILL_NUMBER_PREFIX" envDefault:"INV"`
	PaymentNumberPrefix  string `env:"KOS_PAYMENT_NUMBER_PREFIX" envDefault:"PAY"`
	NumberAttempts       int    `env:"KOS_NUMBER_ATTEMPTS" envDefault:"5"`
	PlanCatalogFile      string `env:"KOS_PLAN_CATALOG_FILE"`
	RolesFile            string `env:"KOS_ROLES_FILE"`
}

// DefaultConfig mirrors the envDefault tags for callers that build Config by hand.
func DefaultConfig() Config {
	return Config{
		DefaultMaxProperties: 1,
		DefaultMaxRooms:      5,
		DefaultPlanSlug:      "free",
		BillNumberPrefix:     "INV",
		PaymentNumberPrefix:  "PAY",
		NumberAttempts:       5,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.DefaultMaxProperties == 0 {
		c.DefaultMaxProperties = d.DefaultMaxProperties
	}
	if c.DefaultMaxRooms == 0 {
		c.DefaultMaxRooms = d.DefaultMaxRooms
	}
	if c.DefaultPlanSlug == "" {
		c.DefaultPlanSlug = d.DefaultPlanSlug
	}
	if c.BillNumberPrefix == "" {
		c.BillNumberPrefix = d.BillNumberPrefix
	}
	if c.PaymentNumberPrefix == "" {
		c.PaymentNumberPrefix = d.PaymentNumberPrefix
	}
	if c.NumberAttempts <= 0 {
		c.NumberAttempts = d.NumberAttempts
	}
	return c
}
