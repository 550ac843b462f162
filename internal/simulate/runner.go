package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/fantasyfamily/pkg/logger"
)

const idempotencyHeader = "Idempotency-Key"

// Run executes a simulation against cfg.BaseURL. Players without members get
// one drafted so every player can receive events.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	if cfg.NumEvents <= 0 || cfg.Workers <= 0 {
		return nil, errors.New("events and workers must be positive")
	}
	log := logger.Get().Named("simulate")
	start := time.Now()
	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("events", cfg.NumEvents),
		logger.Int("workers", cfg.Workers))

	if err := client.getJSON(ctx, "/healthz", nil); err != nil {
		return nil, fmt.Errorf("service health check failed: %w", err)
	}

	var defs []definition
	if err := client.getJSON(ctx, "/api/life-events", &defs); err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	if len(defs) == 0 {
		return nil, errors.New("catalog is empty")
	}

	before, err := ensureMembers(ctx, client)
	if err != nil {
		return nil, err
	}
	var memberIDs []string
	for _, p := range before {
		for _, m := range p.Members {
			memberIDs = append(memberIDs, m.ID)
		}
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1))
	subs := generateSubmissions(rng, memberIDs, defs, cfg.NumEvents, cfg.DuplicateRate)

	stats := &Stats{Players: len(before), Members: len(memberIDs)}
	applied, err := submitAll(ctx, client, cfg.Workers, subs, stats)
	if err != nil {
		return stats, err
	}

	var after []player
	if err := client.getJSON(ctx, "/api/players", &after); err != nil {
		return stats, fmt.Errorf("fetch leaderboard: %w", err)
	}
	stats.Duration = time.Since(start)

	log.Info(ctx, "simulation finished",
		logger.Int("submitted", stats.Submitted),
		logger.Int("logged", stats.Logged),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("failed", stats.Failed),
		logger.String("duration", stats.Duration.String()))

	if err := verifyScores(before, after, applied); err != nil {
		return stats, err
	}
	return stats, nil
}

// ensureMembers returns the leaderboard after drafting a member for every
// player that has none.
func ensureMembers(ctx context.Context, client *httpClient) ([]player, error) {
	var players []player
	if err := client.getJSON(ctx, "/api/players", &players); err != nil {
		return nil, fmt.Errorf("fetch players: %w", err)
	}
	if len(players) == 0 {
		return nil, errors.New("league has no players")
	}
	drafted := false
	for _, p := range players {
		if len(p.Members) > 0 {
			continue
		}
		status, body, err := client.postJSON(ctx, "/api/players/"+p.ID+"/members",
			map[string]string{"name": "Sim " + p.Name}, nil)
		if err != nil {
			return nil, fmt.Errorf("draft member for %s: %w", p.Name, err)
		}
		if status != http.StatusCreated {
			return nil, fmt.Errorf("draft member for %s: status %d: %s", p.Name, status, body)
		}
		drafted = true
	}
	if drafted {
		players = nil
		if err := client.getJSON(ctx, "/api/players", &players); err != nil {
			return nil, fmt.Errorf("fetch players: %w", err)
		}
	}
	return players, nil
}

// submitAll posts submissions from a worker pool and returns the points
// applied per player name.
func submitAll(ctx context.Context, client *httpClient, workers int, subs []submission, stats *Stats) (map[string]int, error) {
	var (
		mu         sync.Mutex
		applied    = make(map[string]int)
		logged     int64
		duplicates int64
		failed     int64
		wg         sync.WaitGroup
	)

	ch := make(chan submission, workers*2)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range ch {
				status, body, err := client.postJSON(ctx, "/api/logged-events", s, map[string]string{idempotencyHeader: s.key})
				switch {
				case err != nil:
					atomic.AddInt64(&failed, 1)
				case status == http.StatusCreated:
					var e loggedEvent
					if json.Unmarshal(body, &e) != nil {
						atomic.AddInt64(&failed, 1)
						continue
					}
					mu.Lock()
					applied[e.PlayerName] += e.Points
					mu.Unlock()
					atomic.AddInt64(&logged, 1)
				case status == http.StatusOK:
					var ack ackResponse
					if json.Unmarshal(body, &ack) == nil && ack.Duplicate {
						atomic.AddInt64(&duplicates, 1)
					} else {
						atomic.AddInt64(&failed, 1)
					}
				default:
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	for _, s := range subs {
		select {
		case <-ctx.Done():
			close(ch)
			wg.Wait()
			return applied, ctx.Err()
		case ch <- s:
		}
	}
	close(ch)
	wg.Wait()

	stats.Submitted = len(subs)
	stats.Logged = int(logged)
	stats.Duplicates = int(duplicates)
	stats.Failed = int(failed)
	return applied, nil
}
