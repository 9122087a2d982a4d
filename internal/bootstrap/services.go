package bootstrap

import (
	"database/sql"
	"fmt"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/quizforge/sessiond/config"
	redisadapter "github.com/quizforge/sessiond/internal/adapters/redis"
	"github.com/quizforge/sessiond/internal/data"
	"github.com/quizforge/sessiond/internal/ports"
	"github.com/quizforge/sessiond/internal/service"
)

// ServiceContainer holds the constructed application services.
type ServiceContainer struct {
	Session     *service.SessionService
	Profiles    ports.ProfileRepository
	Revocations ports.RevocationStore
	KV          ports.KVStore
}

// ServiceDependencies carries the infrastructure the services are built on.
type ServiceDependencies struct {
	Config   *config.AppConfig
	DB       *sql.DB
	Redis    goredis.UniversalClient
	Identity Identity
	Logger   *slog.Logger
}

// BuildServices wires repositories, stores, and the session service.
func BuildServices(deps ServiceDependencies) (ServiceContainer, error) {
	codec, err := service.NewTokenCodec([]byte(deps.Config.Session.Secret), deps.Config.Session.TTL)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("build session codec: %w", err)
	}

	profiles := data.NewProfileRepo(deps.DB)
	revocations := redisadapter.NewRevocationStore(deps.Redis, deps.Config.Session.TTL)
	kv := redisadapter.NewKV(deps.Redis)

	session := service.NewSessionService(service.SessionServiceOptions{
		Identity:    deps.Identity.Admin,
		Profiles:    profiles,
		Revocations: revocations,
		Codec:       codec,
		Logger:      deps.Logger,
	})

	return ServiceContainer{
		Session:     session,
		Profiles:    profiles,
		Revocations: revocations,
		KV:          kv,
	}, nil
}
