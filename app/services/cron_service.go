package services

import (
	"log"
	"sync"
	"time"
)

// CronService drives the scheduled matchmaking passes and the daily
// cleanup of left entries. On-demand triggers (from joins or the
// process endpoint) are folded into the same loop through the
// pendingRun flag, so a request arriving mid-pass causes one immediate
// re-run instead of piling up goroutines.
type CronService struct {
	matchmakingService *MatchmakingService
	matchmakingStop    chan bool
	cleanupStop        chan bool
	kickChan           chan struct{}
	isRunning          bool
	cleanupRunning     bool
	pendingRun         bool
	pendingRunMu       sync.Mutex
}

// NewCronService creates a new cron service instance. Each loop gets
// its own stop channel so stopping one never stops the other.
func NewCronService(matchmakingService *MatchmakingService) *CronService {
	return &CronService{
		matchmakingService: matchmakingService,
		matchmakingStop:    make(chan bool),
		cleanupStop:        make(chan bool),
		kickChan:           make(chan struct{}, 1),
	}
}

// StartMatchmakingCron starts the matchmaking loop at the given interval
func (c *CronService) StartMatchmakingCron(interval time.Duration) {
	if c.isRunning {
		log.Println("⚠️ Matchmaking cron is already running")
		return
	}

	c.isRunning = true
	log.Printf("🚀 Starting matchmaking cron job (interval: %v)", interval)

	go func() {
		for {
			c.runMatchmaking()

			c.pendingRunMu.Lock()
			rerun := c.pendingRun
			c.pendingRun = false
			c.pendingRunMu.Unlock()

			if rerun {
				continue
			}

			select {
			case <-c.matchmakingStop:
				log.Println("🛑 Stopping matchmaking cron job")
				return
			case <-c.kickChan:
			case <-time.After(interval):
			}
		}
	}()
}

// StopMatchmakingCron stops the matchmaking loop
func (c *CronService) StopMatchmakingCron() {
	if !c.isRunning {
		log.Println("⚠️ Matchmaking cron is not running")
		return
	}

	c.isRunning = false
	c.matchmakingStop <- true
	log.Println("🛑 Matchmaking cron job stopped")
}

// runMatchmaking executes one pass. Failures are logged and never stop
// future scheduled passes.
func (c *CronService) runMatchmaking() {
	startTime := time.Now()

	matchCount, err := c.matchmakingService.ProcessMatchmaking()
	if err != nil {
		log.Printf("❌ Matchmaking pass failed: %v", err)
		return
	}
	if matchCount == 0 {
		return
	}

	duration := time.Since(startTime)
	log.Printf("✅ Matchmaking pass created %d match(es) in %v", matchCount, duration)

	stats, err := c.matchmakingService.GetMatchmakingStats()
	if err != nil {
		log.Printf("❌ Failed to get matchmaking stats: %v", err)
		return
	}
	log.Printf("📊 Stats: %+v", stats)
}

// RunCleanupCron starts the cleanup loop that purges left entries older
// than the retention window.
func (c *CronService) RunCleanupCron(interval time.Duration, retention time.Duration) {
	if c.cleanupRunning {
		log.Println("⚠️ Cleanup cron is already running")
		return
	}

	c.cleanupRunning = true
	log.Printf("🧹 Starting cleanup cron job (interval: %v, retention: %v)", interval, retention)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.runCleanup(retention)
			case <-c.cleanupStop:
				log.Println("🛑 Stopping cleanup cron job")
				return
			}
		}
	}()
}

// StopCleanupCron stops the cleanup loop
func (c *CronService) StopCleanupCron() {
	if !c.cleanupRunning {
		log.Println("⚠️ Cleanup cron is not running")
		return
	}

	c.cleanupRunning = false
	c.cleanupStop <- true
	log.Println("🛑 Cleanup cron job stopped")
}

// runCleanup executes one cleanup sweep
func (c *CronService) runCleanup(retention time.Duration) {
	purged, err := c.matchmakingService.CleanupLeftEntries(retention)
	if err != nil {
		log.Printf("❌ Cleanup process failed: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("🧹 Cleanup purged %d left queue entries", purged)
	}
}

// IsRunning returns whether the matchmaking loop is active
func (c *CronService) IsRunning() bool {
	return c.isRunning
}

// RequestMatchmakingRun asks the loop to run a pass immediately: it
// wakes the loop if it is sleeping between ticks, and if a pass is
// already in flight the pendingRun flag causes one re-run right after
// it. Callers never block on the pass itself.
func (c *CronService) RequestMatchmakingRun() {
	c.pendingRunMu.Lock()
	c.pendingRun = true
	c.pendingRunMu.Unlock()

	select {
	case c.kickChan <- struct{}{}:
	default:
	}
}
