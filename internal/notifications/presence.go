package notifications

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"hearth/internal/cache"
	"hearth/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPresenceTTL     = 90 * time.Second
	defaultOfflineGrace    = 5 * time.Second
	defaultReaperInterval  = 60 * time.Second
	presenceCommandTimeout = 2 * time.Second
)

// PresenceConfig controls Redis presence and cleanup behavior.
type PresenceConfig struct {
	LastSeenTTL        time.Duration
	OfflineGracePeriod time.Duration
	ReaperInterval     time.Duration
}

// Presence tracks which users hold a session, mirrors that in Redis so other
// processes can see it, and keeps a user online for a grace window after
// their last session closes.
type Presence struct {
	rdb *redis.Client

	mu            sync.Mutex
	local         map[string]int
	offlineTimers map[string]*time.Timer

	lastSeenTTL  time.Duration
	offlineGrace time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewPresence creates a tracker and starts the Redis reaper when rdb is set.
func NewPresence(rdb *redis.Client, cfg PresenceConfig) *Presence {
	p := &Presence{
		rdb:           rdb,
		local:         make(map[string]int),
		offlineTimers: make(map[string]*time.Timer),
		lastSeenTTL:   defaultPresenceTTL,
		offlineGrace:  defaultOfflineGrace,
		stopCh:        make(chan struct{}),
	}
	if cfg.LastSeenTTL > 0 {
		p.lastSeenTTL = cfg.LastSeenTTL
	}
	if cfg.OfflineGracePeriod > 0 {
		p.offlineGrace = cfg.OfflineGracePeriod
	}
	interval := defaultReaperInterval
	if cfg.ReaperInterval > 0 {
		interval = cfg.ReaperInterval
	}
	if p.rdb != nil {
		go p.reaperLoop(interval)
	}
	return p
}

// Stop halts the reaper and pending offline timers.
func (p *Presence) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		p.mu.Lock()
		for userID, timer := range p.offlineTimers {
			timer.Stop()
			delete(p.offlineTimers, userID)
		}
		p.mu.Unlock()
	})
}

// Register counts a new local session for userID.
func (p *Presence) Register(ctx context.Context, userID string) {
	p.mu.Lock()
	if t, ok := p.offlineTimers[userID]; ok {
		t.Stop()
		delete(p.offlineTimers, userID)
	}
	p.local[userID]++
	p.mu.Unlock()

	p.Touch(ctx, userID)
}

// Touch refreshes userID's last-seen key.
func (p *Presence) Touch(ctx context.Context, userID string) {
	if p.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), presenceCommandTimeout)
	defer cancel()

	_, err := p.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, cache.PresenceOnlineKey, userID)
		pipe.SetEx(ctx, cache.PresenceLastSeenKey(userID), strconv.FormatInt(time.Now().Unix(), 10), p.lastSeenTTL)
		return nil
	})
	if err != nil {
		observability.GlobalLogger.Warn("presence touch failed",
			slog.String("user_id", userID), slog.String("error", err.Error()))
	}
}

// Unregister drops one local session; the user goes offline after the
// grace period unless a new session arrives.
func (p *Presence) Unregister(_ context.Context, userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n := p.local[userID] - 1; n > 0 {
		p.local[userID] = n
		return
	}
	delete(p.local, userID)

	if t, ok := p.offlineTimers[userID]; ok {
		t.Stop()
	}
	p.offlineTimers[userID] = time.AfterFunc(p.offlineGrace, func() {
		p.finalizeOffline(userID)
	})
}

// IsOnline reports whether userID has a local session or fresh Redis presence.
func (p *Presence) IsOnline(ctx context.Context, userID string) bool {
	online, err := p.OnlineUsers(ctx, []string{userID})
	return err == nil && online[userID]
}

// OnlineUsers returns the subset of userIDs that are online anywhere.
func (p *Presence) OnlineUsers(ctx context.Context, userIDs []string) (map[string]bool, error) {
	online := make(map[string]bool, len(userIDs))
	var remote []string

	p.mu.Lock()
	for _, id := range userIDs {
		if p.local[id] > 0 || p.offlineTimers[id] != nil {
			online[id] = true
		} else {
			remote = append(remote, id)
		}
	}
	p.mu.Unlock()

	if p.rdb == nil || len(remote) == 0 {
		return online, nil
	}

	cmds := make([]*redis.IntCmd, len(remote))
	_, err := p.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range remote {
			cmds[i] = pipe.Exists(ctx, cache.PresenceLastSeenKey(id))
		}
		return nil
	})
	if err != nil {
		return online, err
	}
	for i, id := range remote {
		if cmds[i].Val() > 0 {
			online[id] = true
		}
	}
	return online, nil
}

func (p *Presence) finalizeOffline(userID string) {
	p.mu.Lock()
	delete(p.offlineTimers, userID)
	if p.local[userID] > 0 {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	if p.rdb == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), presenceCommandTimeout)
	defer cancel()
	_, _ = p.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, cache.PresenceLastSeenKey(userID))
		pipe.SRem(ctx, cache.PresenceOnlineKey, userID)
		return nil
	})
}

// reapOnce removes users whose last-seen key expired from the online set.
func (p *Presence) reapOnce(ctx context.Context) {
	members, err := p.rdb.SMembers(ctx, cache.PresenceOnlineKey).Result()
	if err != nil {
		return
	}
	for _, userID := range members {
		exists, err := p.rdb.Exists(ctx, cache.PresenceLastSeenKey(userID)).Result()
		if err != nil || exists > 0 {
			continue
		}
		_ = p.rdb.SRem(ctx, cache.PresenceOnlineKey, userID).Err()
	}
}

func (p *Presence) reaperLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), presenceCommandTimeout)
			p.reapOnce(ctx)
			cancel()
		}
	}
}
