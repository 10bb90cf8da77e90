package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/magabrotheeeer/subscription-bot/internal/cache"
	"github.com/magabrotheeeer/subscription-bot/internal/config"
	"github.com/magabrotheeeer/subscription-bot/internal/lib/sl"
	"github.com/magabrotheeeer/subscription-bot/internal/momo"
	"github.com/magabrotheeeer/subscription-bot/internal/quota"
	"github.com/magabrotheeeer/subscription-bot/internal/services/admin"
	"github.com/magabrotheeeer/subscription-bot/internal/storage/repository"
	"github.com/magabrotheeeer/subscription-bot/internal/subscription"
)

// connectAdmin подключается к PostgreSQL и, если настроен, к Redis с кэшем токена шлюза.
func connectAdmin(ctx context.Context, cfg *config.Config) (AdminService, func(), error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if cfg.Env == "local" {
		logger = sl.New(cfg.Env, os.Stderr)
	}

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, nil, err
	}
	closers := []func() error{db.Close}

	var tokens momo.TokenStore
	if cfg.RedisConnection.AddressRedis != "" {
		c, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			logger.Warn("redis unavailable, gateway token will not be cached", sl.Err(err))
		} else {
			tokens = c
			closers = append(closers, c.Close)
		}
	}

	plans := subscription.NewCatalog(cfg.Plans, cfg.Gateway.Currency)
	svc := admin.New(db, momo.NewClient(cfg.Gateway, tokens), quota.New(cfg.Quota.TrialDailyLimit, plans, loc), logger)

	return svc, func() {
		for _, c := range closers {
			_ = c()
		}
	}, nil
}
