package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// SimulatedConfig is the shape of providers.config for KindSimulated.
type SimulatedConfig struct {
	SuccessRate float64 `json:"success_rate"`
	LatencyMS   int     `json:"latency_ms"`
}

// SimulatedAdapter stands in for a real aggregator in development and
// staging environments.
type SimulatedAdapter struct {
	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

func NewSimulatedAdapter(seed int64) *SimulatedAdapter {
	return &SimulatedAdapter{
		rnd: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

func (a *SimulatedAdapter) Fulfill(ctx context.Context, p Provider, req Request) (*Result, error) {
	cfg := SimulatedConfig{SuccessRate: 1}
	if len(p.Config) > 0 {
		if err := p.Config.Unmarshal(&cfg); err != nil {
			return nil, &CallError{Message: "invalid simulated config", Err: err}
		}
	}

	if cfg.LatencyMS > 0 {
		select {
		case <-time.After(time.Duration(cfg.LatencyMS) * time.Millisecond):
		case <-ctx.Done():
			return nil, &CallError{Message: "provider timed out", Timeout: true, Err: ctx.Err()}
		}
	}

	a.mu.Lock()
	roll := a.rnd.Float64()
	suffix := a.rnd.Intn(1_000_000)
	a.mu.Unlock()

	if roll >= cfg.SuccessRate {
		resp, _ := json.Marshal(map[string]any{"status": "failed", "attempt": req.Attempt})
		return nil, &CallError{StatusCode: 502, Message: "simulated provider failure", Response: resp}
	}

	ref := fmt.Sprintf("REF_%d_%06d", a.now().UnixMilli(), suffix)
	resp, _ := json.Marshal(map[string]any{"status": "success", "reference": ref})
	return &Result{Reference: ref, StatusCode: 200, Response: resp}, nil
}
