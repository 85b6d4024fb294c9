package main

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/kenneth/git-cas/internal/cas/cryptobackend"
	"github.com/kenneth/git-cas/internal/cas/engine"
	"github.com/kenneth/git-cas/internal/cas/persistport"
	"github.com/kenneth/git-cas/internal/config"
	"github.com/kenneth/git-cas/internal/metrics"
	"github.com/kenneth/git-cas/internal/store/gitcli"
	"github.com/kenneth/git-cas/internal/store/memadapter"
	"github.com/kenneth/git-cas/internal/store/rediscache"
)

// buildEngine wires a persistence backend (git-cli or in-memory, optionally
// retried and Redis-cached) and the AEAD/KDF backend into a ready Engine,
// per the loaded Config. m records dedup cache hits/misses and Merkle
// splits as the engine and cache run; pass nil to skip instrumentation.
func buildEngine(cfg config.Config, m *metrics.Metrics) (*engine.Engine, error) {
	var persist persistport.Port
	switch cfg.Backend.Driver {
	case "git-cli":
		persist = gitcli.NewRetryingPort(gitcli.New(cfg.Backend.GitBinary, cfg.Backend.GitDir))
	case "memory", "":
		persist = memadapter.New()
	default:
		return nil, fmt.Errorf("unknown backend driver: %s", cfg.Backend.Driver)
	}

	if cfg.Cache.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.Cache.Addr,
			DB:   cfg.Cache.DB,
		})
		persist = rediscache.New(persist, rdb, 0).WithMetrics(m)
	}

	crypto := cryptobackend.New()

	opts := []engine.Option{engine.WithMetrics(m)}
	if cfg.Engine.ChunkSize > 0 {
		opts = append(opts, engine.WithChunkSize(cfg.Engine.ChunkSize))
	}
	if cfg.Engine.MerkleSplitThreshold > 0 {
		opts = append(opts, engine.WithMerkleThreshold(cfg.Engine.MerkleSplitThreshold))
	}

	return engine.New(persist, crypto, opts...)
}
