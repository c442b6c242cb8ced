package activity

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/EchoPBX/activity-gateway/internal/events"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrUnknownPayload = errors.New("unknown event payload")

// Record is a single logged occurrence of an event.
type Record struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	OpRecord  = "record"
	OpCleared = "cleared"
)

// Update is broadcast on the feed after every change to the aggregator.
type Update struct {
	Op     string  `json:"op"`
	Record *Record `json:"record,omitempty"`
}

type Option func(*Aggregator)

func WithLogger(l *zap.Logger) Option { return func(a *Aggregator) { a.log = l } }

func WithClock(now func() time.Time) Option { return func(a *Aggregator) { a.now = now } }

func WithFeed(f *events.Feed[Update]) Option { return func(a *Aggregator) { a.feed = f } }

// Aggregator keeps per-kind counts and the chronological event log.
// counts[k] always equals the number of records of kind k.
type Aggregator struct {
	mu      sync.Mutex
	counts  [kindCount]int
	records []Record
	last    time.Time

	log  *zap.Logger
	now  func() time.Time
	feed *events.Feed[Update]
}

func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		log: zap.NewNop(),
		now: time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Attach subscribes the aggregator to every kind on bus.
func (a *Aggregator) Attach(bus *Bus) {
	for _, k := range Kinds() {
		bus.Subscribe(k, a.handle)
	}
}

func (a *Aggregator) handle(p Payload) error {
	_, err := a.Record(p)
	return err
}

// Record formats p, appends it to the log and bumps its counter.
func (a *Aggregator) Record(p Payload) (Record, error) {
	if err := checkPayload(p); err != nil {
		return Record{}, err
	}
	msg := describe(p)

	a.mu.Lock()
	ts := a.now()
	if ts.Before(a.last) {
		ts = a.last
	}
	a.last = ts
	rec := Record{
		ID:        uuid.NewString(),
		Kind:      p.Kind(),
		Message:   msg,
		Timestamp: ts,
	}
	a.records = append(a.records, rec)
	a.counts[rec.Kind]++
	if a.feed != nil {
		// inside the lock so stream consumers see log order
		a.feed.Publish(Update{Op: OpRecord, Record: &rec})
	}
	a.mu.Unlock()

	a.log.Info(msg, zap.Stringer("kind", rec.Kind), zap.String("id", rec.ID))
	return rec, nil
}

// describe expects a payload already accepted by checkPayload.
func describe(p Payload) string {
	switch v := p.(type) {
	case Login:
		return fmt.Sprintf("LOGIN: %s logged in", v.Username)
	case Logout:
		return fmt.Sprintf("LOGOUT: %s logged out", v.Username)
	case Purchase:
		return fmt.Sprintf("PURCHASE: %s bought %s", v.Username, v.Item)
	case ProfileChange:
		return fmt.Sprintf("UPDATE: %s updated %s", v.Username, v.Field)
	}
	panic(fmt.Sprintf("describe: unchecked payload %T", p))
}

// Summary returns a snapshot that shares no memory with the aggregator.
func (a *Aggregator) Summary() Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Summary{
		Counts: make(map[Kind]int, kindCount),
		Log:    make([]Record, len(a.records)),
	}
	for _, k := range Kinds() {
		s.Counts[k] = a.counts[k]
	}
	copy(s.Log, a.records)
	return s
}

// Len is the number of records currently logged.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.records)
}

// Reset empties the log and zeroes every counter.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	dropped := len(a.records)
	a.records = nil
	a.counts = [kindCount]int{}
	if a.feed != nil {
		a.feed.Publish(Update{Op: OpCleared})
	}
	a.mu.Unlock()

	a.log.Info("all events cleared", zap.Int("dropped", dropped))
}
