package hwmon

import (
	"context"
	"testing"
	"time"

	"ecio-go/bus"
	"ecio-go/drivers/ahc1ec0"
	"ecio-go/drivers/ahc1ec0/ecsim"
	"ecio-go/types"
)

func testSensors(t *testing.T) *ahc1ec0.Sensors {
	t.Helper()
	sim := ecsim.New()
	sim.AddTableEntry(0x50, 0) // CMOS battery
	sim.AddTableEntry(0x59, 1) // 5V standby
	sim.AddTableEntry(0x6B, 2) // onboard DC (12V fallback)
	sim.AddTableEntry(0x65, 3) // VCore
	sim.AddTableEntry(0x74, 4) // current
	for pin := byte(0); pin < 5; pin++ {
		sim.SetAD(pin, uint16(pin)*100+100)
	}
	sim.SetACPI(0x61, 55)

	dev, err := ahc1ec0.New(sim, ahc1ec0.Config{
		RetryCount: 64,
		RetryDelay: time.Microsecond,
		Delay:      func(time.Duration) {},
	})
	if err != nil {
		t.Fatal(err)
	}
	p, err := ahc1ec0.ProfileByIndex(int(ahc1ec0.ProfileTemplate))
	if err != nil {
		t.Fatal(err)
	}
	return ahc1ec0.NewSensors(dev, p)
}

func recvReading(t *testing.T, sub *bus.Subscription) types.Reading {
	t.Helper()
	select {
	case msg := <-sub.Channel():
		r, ok := msg.Payload.(types.Reading)
		if !ok {
			t.Fatalf("payload %T, want types.Reading", msg.Payload)
		}
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no reading published")
		return types.Reading{}
	}
}

func TestServicePublishesReadings(t *testing.T) {
	b := bus.NewBus(32)
	sensors := testSensors(t)
	svc := New(b.NewConnection("hwmon"), sensors, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	obs := b.NewConnection("observer")
	inSub := obs.Subscribe(bus.T("hwmon", "in", 0, "value"))
	defer obs.Unsubscribe(inSub)
	tempSub := obs.Subscribe(bus.T("hwmon", "temp", 0, "value"))
	defer obs.Unsubscribe(tempSub)

	r := recvReading(t, inSub)
	if r.Label != "VBAT" || r.Channel != 0 {
		t.Fatalf("in reading = %+v", r)
	}
	if r.Value <= 0 {
		t.Fatalf("in reading value = %d, want > 0", r.Value)
	}

	tr := recvReading(t, tempSub)
	if tr.Label != "CPU Temp" || tr.Value != 55000 {
		t.Fatalf("temp reading = %+v, want CPU Temp 55000", tr)
	}
}

func TestServiceRetainsChannelInfo(t *testing.T) {
	b := bus.NewBus(32)
	sensors := testSensors(t)
	svc := New(b.NewConnection("hwmon"), sensors, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	// give the service a moment to publish its retained metadata
	deadline := time.After(2 * time.Second)
	obs := b.NewConnection("observer")
	for {
		sub := obs.Subscribe(bus.T("hwmon", "temp", 0, "info"))
		select {
		case msg := <-sub.Channel():
			info, ok := msg.Payload.(types.ChannelInfo)
			if !ok {
				t.Fatalf("payload %T, want types.ChannelInfo", msg.Payload)
			}
			if info.Label != "CPU Temp" || info.Crit != ahc1ec0.TempCritDefault {
				t.Fatalf("info = %+v", info)
			}
			obs.Unsubscribe(sub)
			return
		case <-time.After(10 * time.Millisecond):
			obs.Unsubscribe(sub)
		case <-deadline:
			t.Fatal("retained channel info never appeared")
		}
	}
}

func TestServiceReadOnDemand(t *testing.T) {
	b := bus.NewBus(32)
	sensors := testSensors(t)
	// interval long enough that only the initial and requested samples run
	svc := New(b.NewConnection("hwmon"), sensors, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	req := b.NewConnection("requester")
	rctx, rcancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer rcancel()
	reply, err := req.RequestWait(rctx, req.NewMessage(bus.T("hwmon", "control", "read"), nil, false))
	if err != nil {
		t.Fatalf("RequestWait: %v", err)
	}
	if ok, _ := reply.Payload.(types.OKReply); !ok.OK {
		t.Fatalf("reply = %+v, want OK", reply.Payload)
	}
}

func TestServiceRejectsUnknownVerb(t *testing.T) {
	b := bus.NewBus(32)
	svc := New(b.NewConnection("hwmon"), testSensors(t), time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	req := b.NewConnection("requester")
	rctx, rcancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer rcancel()
	reply, err := req.RequestWait(rctx, req.NewMessage(bus.T("hwmon", "control", "calibrate"), nil, false))
	if err != nil {
		t.Fatalf("RequestWait: %v", err)
	}
	er, ok := reply.Payload.(types.ErrorReply)
	if !ok || er.Error != "unsupported" {
		t.Fatalf("reply = %+v, want unsupported", reply.Payload)
	}
}
