package auth

import (
	"os"
	"strconv"

	"github.com/goliatone/go-errors"
	"github.com/joho/godotenv"
)

// Config holds the knobs the session core and the reference server read from
// the environment. Offline mode is a configuration switch, not a code change.
type Config struct {
	// APIBaseURL is the root of the identity API, e.g. https://lms.hbiu.edu/api
	APIBaseURL string
	// Offline selects the seeded demo identity table instead of the network
	Offline bool
	// StorePath is the SQLite session store location; ":memory:" is valid
	StorePath string
	// SigningKey is the reference server's HS256 secret
	SigningKey string
	// TokenExpiration is the reference server's token lifetime in hours
	TokenExpiration int
	// Issuer is stamped into tokens minted by the reference server
	Issuer string
	Debug  bool
}

// LoadConfig reads an optional .env file, then the process environment
func LoadConfig() (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load .env")
		}
	}

	return &Config{
		APIBaseURL:      getenv("LMS_API_BASE_URL", "http://localhost:3000/api"),
		Offline:         getenvBool("LMS_OFFLINE_MODE", false),
		StorePath:       getenv("LMS_SESSION_STORE", "lms_session.db"),
		SigningKey:      getenv("LMS_SIGNING_KEY", ""),
		TokenExpiration: getenvInt("LMS_TOKEN_EXPIRATION", 72),
		Issuer:          getenv("LMS_ISSUER", "hbiu-lms"),
		Debug:           getenvBool("LMS_DEBUG", false),
	}, nil
}

// NewIdentityClient selects the client implementation the configuration
// calls for: the offline table or the HTTP client.
func (c *Config) NewIdentityClient(opts ...ClientOption) IdentityClient {
	if c.Offline {
		return NewOfflineClient()
	}
	return NewClient(c.APIBaseURL, opts...)
}

// NewManager wires a SessionManager the way the configuration calls for
func (c *Config) NewManager(store SessionStore, opts ...ManagerOption) *SessionManager {
	opts = append([]ManagerOption{WithMockSessionsTrusted(c.Offline)}, opts...)
	return NewSessionManager(store, c.NewIdentityClient(), opts...)
}

func getenv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
