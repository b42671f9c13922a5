package tramite

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tramite-hq/tramite/authclient"
	"github.com/tramite-hq/tramite/query"
	"github.com/tramite-hq/tramite/router"
	"github.com/tramite-hq/tramite/urlstate"
)

// Builder defines a public type used by tramite APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config     Config
	loc        urlstate.Location
	container  router.Container
	redis      redis.UniversalClient
	modules    []Module
	provider   func(*query.Client) []Module
	httpClient *http.Client
	logger     *zap.Logger
	sessionKey string

	built bool
}

// New describes the new operation and its observable behavior.
//
// New may return an error when input validation, dependency calls, or security checks fail.
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig may return an error when input validation, dependency calls, or security checks fail.
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithLocation describes the withlocation operation and its observable behavior.
//
// WithLocation may return an error when input validation, dependency calls, or security checks fail.
// WithLocation does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLocation(loc urlstate.Location) *Builder {
	b.loc = loc
	return b
}

// WithContainer describes the withcontainer operation and its observable behavior.
//
// WithContainer may return an error when input validation, dependency calls, or security checks fail.
// WithContainer does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithContainer(c router.Container) *Builder {
	b.container = c
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
//
// WithRedis may return an error when input validation, dependency calls, or security checks fail.
// WithRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithModules describes the withmodules operation and its observable behavior.
//
// WithModules may return an error when input validation, dependency calls, or security checks fail.
// WithModules does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithModules(modules ...Module) *Builder {
	b.modules = append(b.modules, modules...)
	return b
}

// WithModuleProvider registers a callback that receives the coordinator's
// data client and returns modules to register. It runs once, during Build,
// after the client exists; use it for screens that read the data API.
func (b *Builder) WithModuleProvider(p func(*query.Client) []Module) *Builder {
	b.provider = p
	return b
}

// WithHTTPClient describes the withhttpclient operation and its observable behavior.
//
// WithHTTPClient may return an error when input validation, dependency calls, or security checks fail.
// WithHTTPClient does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
//
// WithLogger may return an error when input validation, dependency calls, or security checks fail.
// WithLogger does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithSessionKey pins the browser-session identifier used to key shared
// token storage. Defaults to a fresh UUID, which is right for a brand-new
// browser session and wrong for reconnecting an existing one.
func (b *Builder) WithSessionKey(key string) *Builder {
	b.sessionKey = key
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
// Build does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) Build() (*Coordinator, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	if b.loc == nil {
		return nil, errors.New("location is required")
	}
	if b.container == nil {
		return nil, errors.New("container is required")
	}
	if len(b.modules) == 0 && b.provider == nil {
		return nil, errors.New("at least one module is required")
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sessionKey := b.sessionKey
	if sessionKey == "" {
		sessionKey = uuid.NewString()
	}

	var storage authclient.TokenStorage
	if b.redis != nil {
		storage = authclient.NewRedisStorage(
			b.redis,
			b.config.Session.RedisPrefix+":tokens:"+sessionKey,
			b.config.Session.StorageTTL,
		)
	} else {
		storage = authclient.NewMemoryStorage()
	}

	primary, err := authclient.New(authclient.Options{
		URL:         b.config.Backend.URL,
		AnonKey:     b.config.Backend.AnonKey,
		Storage:     storage,
		AutoRefresh: true,
		HTTPClient:  b.httpClient,
	})
	if err != nil {
		return nil, err
	}

	// Same isolation contract as authclient.NewRecoveryClient, built
	// directly so the transport override reaches it.
	recovery, err := authclient.New(authclient.Options{
		URL:         b.config.Backend.URL,
		AnonKey:     b.config.Backend.AnonKey,
		Storage:     authclient.NewMemoryStorage(),
		AutoRefresh: false,
		HTTPClient:  b.httpClient,
	})
	if err != nil {
		return nil, err
	}

	data, err := query.New(b.config.Backend.URL, b.config.Backend.AnonKey, func(ctx context.Context) (string, error) {
		sess, err := primary.GetSession(ctx)
		if err != nil || sess == nil {
			return "", nil
		}
		return sess.AccessToken, nil
	}, b.httpClient)
	if err != nil {
		return nil, err
	}

	modules := append([]Module(nil), b.modules...)
	if b.provider != nil {
		modules = append(modules, b.provider(data)...)
	}
	if len(modules) == 0 {
		return nil, errors.New("module provider returned no modules")
	}

	b.built = true
	return &Coordinator{
		cfg:       b.config,
		loc:       b.loc,
		container: b.container,
		primary:   primary,
		recovery:  recovery,
		data:      data,
		modules:   modules,
		log:       logger,
		metrics:   newMetricsRegistry(b.config.Metrics.Enabled),
		mode:      ModeLoggedOut,
	}, nil
}
