package heartbeat

import (
	"context"
	"testing"
	"time"

	"ecio-go/bus"
	"ecio-go/drivers/ahc1ec0"
	"ecio-go/drivers/ahc1ec0/ecsim"
	"ecio-go/types"
)

func newService(t *testing.T, sim *ecsim.Controller, b *bus.Bus) *Service {
	t.Helper()
	dev, err := ahc1ec0.New(sim, ahc1ec0.Config{
		RetryCount: 8,
		RetryDelay: time.Microsecond,
		Delay:      func(time.Duration) {},
	})
	if err != nil {
		t.Fatal(err)
	}
	return New(b.NewConnection("heartbeat"), dev, 10*time.Millisecond, nil)
}

func recvHeartbeat(t *testing.T, sub *bus.Subscription) types.Heartbeat {
	t.Helper()
	select {
	case msg := <-sub.Channel():
		hb, ok := msg.Payload.(types.Heartbeat)
		if !ok {
			t.Fatalf("payload %T, want types.Heartbeat", msg.Payload)
		}
		return hb
	case <-time.After(2 * time.Second):
		t.Fatal("no heartbeat published")
		return types.Heartbeat{}
	}
}

func TestHeartbeatUp(t *testing.T) {
	b := bus.NewBus(16)
	svc := newService(t, ecsim.New(), b)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	obs := b.NewConnection("observer")
	sub := obs.Subscribe(bus.T("heartbeat"))
	defer obs.Unsubscribe(sub)

	if hb := recvHeartbeat(t, sub); !hb.OK {
		t.Fatal("heartbeat reports down against a live controller")
	}
}

func TestHeartbeatDown(t *testing.T) {
	b := bus.NewBus(16)
	sim := ecsim.New()
	svc := newService(t, sim, b)
	sim.WedgeBusy()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	obs := b.NewConnection("observer")
	sub := obs.Subscribe(bus.T("heartbeat"))
	defer obs.Unsubscribe(sub)

	if hb := recvHeartbeat(t, sub); hb.OK {
		t.Fatal("heartbeat reports up against a wedged controller")
	}
}
