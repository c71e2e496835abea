package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"party-ledger/feature/ledger/store"

	"go.uber.org/zap"
)

// ReplayReport summarizes one drain of the pending queue.
type ReplayReport struct {
	Attempted int           `json:"attempted"`
	Applied   int           `json:"applied"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Remaining int           `json:"remaining"`
	Duration  time.Duration `json:"duration"`
}

// Pending returns the durable queue in FIFO order.
func (g *Gateway) Pending() ([]store.PendingEntry, error) {
	return g.ledger.Local().Pending()
}

// PendingCount is the number of entries still waiting for the remote store.
func (g *Gateway) PendingCount() (int, error) {
	entries, err := g.Pending()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, e := range entries {
		if e.State != store.StateApplied {
			n++
		}
	}
	return n, nil
}

// Discard drops a pending entry without applying it.
func (g *Gateway) Discard(id string) error {
	g.replayMu.Lock()
	defer g.replayMu.Unlock()

	err := g.ledger.Local().UpdatePending(func(entries []store.PendingEntry) ([]store.PendingEntry, error) {
		for i, e := range entries {
			if e.ID == id {
				return append(entries[:i], entries[i+1:]...), nil
			}
		}
		return nil, fmt.Errorf("pending entry %s: %w", id, store.ErrNotFound)
	})
	if err != nil {
		return err
	}
	g.logger.Info("Pending entry discarded", zap.String("entry", id))
	g.publish(id)
	return nil
}

// NotifyOnline asks Run to replay now instead of waiting for the next probe.
func (g *Gateway) NotifyOnline() {
	select {
	case g.notify <- struct{}{}:
	default:
	}
}

// Replay drains the queue once, oldest entry first. A failed entry stays
// queued and holds back the later entries of its entity type until the
// next cycle.
func (g *Gateway) Replay(ctx context.Context) (ReplayReport, error) {
	g.replayMu.Lock()
	defer g.replayMu.Unlock()

	start := time.Now()
	var report ReplayReport

	entries, err := g.Pending()
	if err != nil {
		return report, err
	}

	blocked := make(map[store.EntityType]bool)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if entry.State == store.StateApplied {
			continue
		}
		if blocked[entry.Entity] {
			report.Skipped++
			continue
		}

		if err := g.setState(entry.ID, store.StateAttempting, nil); err != nil {
			return report, err
		}
		report.Attempted++

		attemptCtx, cancel := context.WithTimeout(ctx, g.attemptTimeout)
		_, err := g.applyRemote(attemptCtx, entry)
		cancel()

		log := g.logger.With(zap.String("entry", entry.ID), zap.String("entity", string(entry.Entity)), zap.String("id", entry.EntityID))
		if err == nil || errors.Is(err, store.ErrAlreadyProcessed) {
			if err := g.setState(entry.ID, store.StateApplied, nil); err != nil {
				return report, err
			}
			report.Applied++
			log.Info("Pending entry applied")
			continue
		}

		report.Failed++
		blocked[entry.Entity] = true
		log.Warn("Pending entry replay failed", zap.Error(err))
		if err := g.setState(entry.ID, store.StateQueued, err); err != nil {
			return report, err
		}
	}

	report.Remaining, err = g.PendingCount()
	report.Duration = time.Since(start)
	if report.Applied > 0 {
		g.publish("")
	}
	return report, err
}

// setState moves an entry through queued, attempting and applied. Applied
// entries leave the queue.
func (g *Gateway) setState(id string, state store.EntryState, cause error) error {
	now := g.nowMillis()
	return g.ledger.Local().UpdatePending(func(entries []store.PendingEntry) ([]store.PendingEntry, error) {
		out := entries[:0]
		for _, e := range entries {
			if e.ID != id {
				out = append(out, e)
				continue
			}
			if state == store.StateApplied {
				continue
			}
			e.State = state
			e.UpdatedAt = now
			if state == store.StateAttempting {
				e.Attempts++
			}
			if cause != nil {
				e.LastError = cause.Error()
			}
			out = append(out, e)
		}
		return out, nil
	})
}

// Run probes the remote store every probe interval and drains the queue
// whenever it answers. It returns when ctx is cancelled.
func (g *Gateway) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.probeInterval)
	defer ticker.Stop()

	g.logger.Info("Pending queue replay started", zap.Duration("probe_interval", g.probeInterval))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		case <-g.notify:
		}

		count, err := g.PendingCount()
		if err != nil {
			g.logger.Error("Failed to read pending queue", zap.Error(err))
			continue
		}
		if count == 0 {
			continue
		}
		if err := g.ledger.Ping(ctx); err != nil {
			g.logger.Debug("Remote store unreachable", zap.Error(err))
			continue
		}
		report, err := g.Replay(ctx)
		if err != nil && ctx.Err() == nil {
			g.logger.Error("Replay failed", zap.Error(err))
			continue
		}
		g.logger.Info("Replay finished",
			zap.Int("applied", report.Applied),
			zap.Int("failed", report.Failed),
			zap.Int("remaining", report.Remaining))
	}
}
