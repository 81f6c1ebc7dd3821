package testrounds

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// pollSettledRounds fetches round snapshots until payouts land or the
// wait budget runs out. Returns the snapshots it managed to collect.
func pollSettledRounds(ctx context.Context, config *Config, rounds []RoundRecord, stats *Stats) ([]RoundSnapshot, error) {
	log.Printf("Waiting for %d rounds to settle...", len(rounds))

	client := newHTTPClient(config.Timeout)
	deadline := time.Now().Add(SettleWaitBudget)

	snapshots := make([]RoundSnapshot, len(rounds))
	var (
		settled   int64
		unsettled int64
	)

	roundChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for idx := range roundChan {
				select {
				case <-ctx.Done():
					return
				default:
					snap, ok := pollSingleRound(ctx, client, config, rounds[idx].RoundID, deadline)
					snapshots[idx] = snap
					if ok {
						atomic.AddInt64(&settled, 1)
					} else {
						atomic.AddInt64(&unsettled, 1)
					}
				}
			}
		}()
	}

	go func() {
		defer close(roundChan)
		for idx := range rounds {
			select {
			case <-ctx.Done():
				return
			case roundChan <- idx:
			}
		}
	}()

	wg.Wait()

	stats.RoundsSettled = int(atomic.LoadInt64(&settled))
	stats.RoundsUnsettled = int(atomic.LoadInt64(&unsettled))

	log.Printf("Settlement wait completed: %d settled, %d unsettled",
		stats.RoundsSettled, stats.RoundsUnsettled)
	return snapshots, nil
}

// pollSingleRound fetches one round until it settles or the deadline passes.
func pollSingleRound(ctx context.Context, client *HTTPClient, config *Config, roundID string, deadline time.Time) (RoundSnapshot, bool) {
	url := config.BaseURL + "/rounds/" + roundID

	var last RoundSnapshot
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return last, false
		default:
		}

		resp, err := client.Get(ctx, url)
		if err == nil {
			body, readErr := readResponseBody(resp)
			if readErr == nil && resp.StatusCode == StatusOK {
				var snap RoundSnapshot
				if err := unmarshalJSON(body, &snap); err == nil {
					last = snap
					if snap.Settled() {
						return snap, true
					}
				}
			}
		}

		select {
		case <-ctx.Done():
			return last, false
		case <-time.After(SettlePollInterval):
		}
	}
	return last, false
}
