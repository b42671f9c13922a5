package tramite

import (
	"errors"
	"strings"
	"time"
)

// Config defines a public type used by tramite APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Backend BackendConfig
	Admin   AdminConfig
	Session SessionConfig
	Routes  RoutesConfig
	Metrics MetricsConfig
}

/*
====================================
BACKEND CONFIG
====================================
*/

// BackendConfig defines a public type used by tramite APIs.
//
// BackendConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type BackendConfig struct {
	// URL is the project base URL of the hosted backend
	// (auth under /auth/v1, data under /rest/v1).
	URL string
	// AnonKey is the public API key sent with every backend request.
	AnonKey string
}

/*
====================================
ADMIN CONFIG
====================================
*/

// AdminConfig defines a public type used by tramite APIs.
//
// AdminConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AdminConfig struct {
	// JWTSecret verifies bearer tokens on the user-administration API.
	// HS256, shared with the auth service.
	JWTSecret []byte
	// ServiceToken authenticates the admin API's own calls to the backend.
	// Never exposed to browser-side code.
	ServiceToken string
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by tramite APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	// RedisPrefix namespaces the token-storage keys.
	RedisPrefix string
	// StorageTTL bounds how long a stored token pair outlives its last
	// write. Should cover the refresh token's useful lifetime.
	StorageTTL time.Duration
}

/*
====================================
ROUTES CONFIG
====================================
*/

// RoutesConfig defines a public type used by tramite APIs.
//
// RoutesConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RoutesConfig struct {
	// HomeRoute is rendered when the hash is empty and is the route the
	// coordinator forces after sign-in. Must start with "/".
	HomeRoute string
	// RedirectTo is the absolute URL recovery emails link back to.
	RedirectTo string
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by tramite APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			RedisPrefix: "tramite",
			StorageTTL:  7 * 24 * time.Hour,
		},
		Routes: RoutesConfig{
			HomeRoute: "/painel",
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
func (c *Config) Validate() error {
	// Backend
	if c.Backend.URL == "" {
		return errors.New("Backend URL must be set")
	}
	if !strings.HasPrefix(c.Backend.URL, "http://") && !strings.HasPrefix(c.Backend.URL, "https://") {
		return errors.New("Backend URL must be http or https")
	}
	if c.Backend.AnonKey == "" {
		return errors.New("Backend AnonKey must be set")
	}

	// Session
	if c.Session.RedisPrefix == "" {
		return errors.New("Session RedisPrefix must be set")
	}
	if c.Session.StorageTTL < 0 {
		return errors.New("Session StorageTTL must be >= 0")
	}

	// Routes
	if c.Routes.HomeRoute == "" {
		return errors.New("Routes HomeRoute must be set")
	}
	if !strings.HasPrefix(c.Routes.HomeRoute, "/") {
		return errors.New("Routes HomeRoute must start with '/'")
	}
	if c.Routes.RedirectTo != "" &&
		!strings.HasPrefix(c.Routes.RedirectTo, "http://") &&
		!strings.HasPrefix(c.Routes.RedirectTo, "https://") {
		return errors.New("Routes RedirectTo must be http or https")
	}

	return nil
}
