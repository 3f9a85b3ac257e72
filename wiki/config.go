package wiki

// Config holds the file-based configuration for the wiki.
// These are bootstrap settings loaded from config.yaml; the cookie
// secret lives in its own file so the config can be checked in.
type Config struct {
	DatabaseFile string `yaml:"dbfile"`
	Host         string `yaml:"host"`
	BaseURL      string `yaml:"base_url"`
	LogFormat    string `yaml:"log_format"`
	LogLevel     string `yaml:"log_level"`

	// RedisURL enables the shared rate limiter when set; empty falls
	// back to the in-process limiter.
	RedisURL string `yaml:"redis_url"`

	CookieExpiry int    `yaml:"cookie_expiry"`
	CookieSecret []byte `yaml:"-"`
}
