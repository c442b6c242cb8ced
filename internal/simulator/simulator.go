package simulator

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/EchoPBX/activity-gateway/internal/activity"
	"github.com/EchoPBX/activity-gateway/internal/config"
	"go.uber.org/zap"
)

// Simulator feeds synthetic user actions into the bus.
type Simulator struct {
	cfg atomic.Pointer[config.Config]
	log *zap.Logger
	bus *activity.Bus
	rnd *rand.Rand

	reloaded chan struct{}
}

func New(cfg *config.Config, log *zap.Logger, bus *activity.Bus) *Simulator {
	s := &Simulator{
		log: log,
		bus: bus,
		rnd: rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),

		reloaded: make(chan struct{}, 1),
	}
	s.cfg.Store(cfg)
	return s
}

// Script is the fixed demo sequence: every user logs in, buys an item,
// updates a profile field and finally logs out.
func Script(users, items, fields []string) []activity.Payload {
	var out []activity.Payload
	for _, u := range users {
		out = append(out, activity.Login{Username: u})
	}
	for i, u := range users {
		out = append(out, activity.Purchase{Username: u, Item: pick(items, i)})
	}
	for i, u := range users {
		out = append(out, activity.ProfileChange{Username: u, Field: pick(fields, i)})
	}
	for _, u := range users {
		out = append(out, activity.Logout{Username: u})
	}
	return out
}

func pick(xs []string, i int) string {
	if len(xs) == 0 {
		return ""
	}
	return xs[i%len(xs)]
}

// Run blocks until ctx is done. Publish errors are logged and skipped.
// The demo script is replayed only once, at start; a Reload applies the new
// interval to the running ticker.
func (s *Simulator) Run(ctx context.Context) {
	sc := s.cfg.Load().Simulator
	if sc.Script {
		for _, p := range Script(sc.Users, sc.Items, sc.Fields) {
			if ctx.Err() != nil {
				return
			}
			s.emit(p)
		}
	}

	interval := sc.Interval
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.reloaded:
			if next := s.cfg.Load().Simulator.Interval; next > 0 && next != interval {
				interval = next
				t.Reset(interval)
				s.log.Info("simulator interval changed", zap.Duration("interval", interval))
			}
		case <-t.C:
			s.emit(s.Next())
		}
	}
}

// Next draws a random action from the configured users, items and fields.
func (s *Simulator) Next() activity.Payload {
	sc := s.cfg.Load().Simulator
	user := pick(sc.Users, s.rnd.IntN(max(len(sc.Users), 1)))
	switch activity.Kinds()[s.rnd.IntN(4)] {
	case activity.UserLogin:
		return activity.Login{Username: user}
	case activity.UserLogout:
		return activity.Logout{Username: user}
	case activity.UserPurchase:
		return activity.Purchase{Username: user, Item: pick(sc.Items, s.rnd.IntN(max(len(sc.Items), 1)))}
	default:
		return activity.ProfileChange{Username: user, Field: pick(sc.Fields, s.rnd.IntN(max(len(sc.Fields), 1)))}
	}
}

func (s *Simulator) emit(p activity.Payload) {
	if err := activity.Emit(s.bus, p); err != nil {
		s.log.Warn("simulated event failed", zap.Stringer("kind", p.Kind()), zap.Error(err))
	}
}

func (s *Simulator) Reload(cfg *config.Config) {
	s.cfg.Store(cfg)
	select {
	case s.reloaded <- struct{}{}:
	default:
	}
}
