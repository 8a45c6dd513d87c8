package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`

	// Supabase project. The project reference is the subdomain of the
	// project URL, e.g. abcdefgh in https://abcdefgh.supabase.co.
	SupabaseProjectRef string `envconfig:"SUPABASE_PROJECT_REF"`
	SupabaseAnonKey    string `envconfig:"SUPABASE_ANON_KEY"`

	// Storage buckets
	AdImagesBucket string `envconfig:"AD_IMAGES_BUCKET" default:"images"`
	AvatarsBucket  string `envconfig:"AVATARS_BUCKET" default:"avatars"`

	// Auth Configuration
	SessionMaxAgeSec int `envconfig:"SESSION_MAX_AGE_SEC" default:"604800"` // 7 days

	// Abandoned ad drafts are swept after this many minutes
	DraftTTLMin uint `envconfig:"DRAFT_TTL_MIN" default:"30"`

	// Idle per-visitor feed sessions are swept after this many minutes
	FeedSessionTTLMin uint `envconfig:"FEED_SESSION_TTL_MIN" default:"30"`

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes
}
