package simulator

import (
	"context"
	"testing"
	"time"

	"github.com/EchoPBX/activity-gateway/internal/activity"
	"github.com/EchoPBX/activity-gateway/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestScriptMatchesDemo(t *testing.T) {
	c := config.Default()
	bus := activity.NewBus()
	agg := activity.NewAggregator()
	agg.Attach(bus)

	for _, p := range Script(c.Simulator.Users, c.Simulator.Items, c.Simulator.Fields) {
		require.NoError(t, activity.Emit(bus, p))
	}

	s := agg.Summary()
	for _, k := range activity.Kinds() {
		assert.Equal(t, 2, s.Counts[k], k.String())
	}
	msgs := make([]string, 0, len(s.Log))
	for _, r := range s.Log {
		msgs = append(msgs, r.Message)
	}
	assert.Equal(t, []string{
		"LOGIN: Vrund logged in",
		"LOGIN: patel logged in",
		"PURCHASE: Vrund bought Laptop",
		"PURCHASE: patel bought Headphones",
		"UPDATE: Vrund updated Email",
		"UPDATE: patel updated Password",
		"LOGOUT: Vrund logged out",
		"LOGOUT: patel logged out",
	}, msgs)
}

func TestNextUsesConfiguredValues(t *testing.T) {
	c := config.Default()
	c.Simulator.Users = []string{"only"}
	c.Simulator.Items = []string{"Pen"}
	c.Simulator.Fields = []string{"Bio"}
	s := New(c, zap.NewNop(), activity.NewBus())

	for i := 0; i < 50; i++ {
		switch p := s.Next().(type) {
		case activity.Login:
			assert.Equal(t, "only", p.Username)
		case activity.Logout:
			assert.Equal(t, "only", p.Username)
		case activity.Purchase:
			assert.Equal(t, "Pen", p.Item)
		case activity.ProfileChange:
			assert.Equal(t, "Bio", p.Field)
		default:
			t.Fatalf("unexpected payload %T", p)
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	c := config.Default()
	c.Simulator.Script = true
	c.Simulator.Interval = 5 * time.Millisecond

	bus := activity.NewBus()
	agg := activity.NewAggregator()
	agg.Attach(bus)
	s := New(c, zap.NewNop(), bus)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return agg.Len() > 8 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestReloadChangesInterval(t *testing.T) {
	c := config.Default()
	c.Simulator.Interval = time.Hour

	bus := activity.NewBus()
	agg := activity.NewAggregator()
	agg.Attach(bus)
	s := New(c, zap.NewNop(), bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	faster := config.Default()
	faster.Simulator.Interval = 5 * time.Millisecond
	s.Reload(faster)

	require.Eventually(t, func() bool { return agg.Len() >= 3 }, time.Second, 5*time.Millisecond)
}
