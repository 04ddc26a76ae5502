package billing

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ctxsearch/backend/internal/pkg/cache"
	"github.com/ctxsearch/backend/internal/pkg/config"
	"github.com/ctxsearch/backend/internal/pkg/database"
	"github.com/ctxsearch/backend/internal/pkg/taskqueue"
)

var (
	globalDispatcher *Dispatcher
	globalPool       *taskqueue.Pool
	setupOnce        sync.Once
)

// Setup wires the process-wide dispatcher and starts its task pool: GORM
// repository when a database is configured (in-memory otherwise), Redis
// ledger when the cache answers (in-memory otherwise). Safe to call more
// than once; only the first call wires anything.
func Setup(cfg *config.Settings) *Dispatcher {
	setupOnce.Do(func() {
		var repo Repository
		if db := database.GetDB(); db != nil {
			repo = NewRepository(db)
		} else {
			log.Info("[Billing] No database configured, keeping billing state in memory")
			repo = NewMemoryRepository()
		}
		svc := NewService(repo)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		var ledger EventLedger
		if client := cache.GetClient(); client.Ping(ctx).Err() == nil {
			log.Infof("[Billing] Event ledger on Redis, retention %s", cfg.EventRetention)
			ledger = NewRedisLedger(client, cfg.EventRetention)
		} else {
			log.Info("[Billing] Redis not reachable, keeping event ledger in memory")
			ledger = NewMemoryLedger(cfg.EventRetention)
		}

		globalPool = taskqueue.NewPool(cfg.TaskWorkers, cfg.TaskQueueSize)
		globalPool.Start()
		globalDispatcher = NewDispatcher(ledger, globalPool, svc, DefaultHandlers(svc))
	})
	return globalDispatcher
}

// GetDispatcher returns the dispatcher wired by Setup, or nil before Setup.
func GetDispatcher() *Dispatcher {
	return globalDispatcher
}

// UseDispatcher swaps the process-wide dispatcher. Tests use it to install
// one with in-memory stores.
func UseDispatcher(d *Dispatcher) {
	globalDispatcher = d
}

// Shutdown drains the task pool so in-flight handlers finish before the
// process exits.
func Shutdown() {
	if globalPool != nil {
		globalPool.Stop()
	}
}
