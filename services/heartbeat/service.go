// Package heartbeat periodically verifies the controller still answers the
// handshake and publishes liveness retained, so observers can tell a quiet
// bus from a dead controller.
package heartbeat

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"ecio-go/bus"
	"ecio-go/drivers/ahc1ec0"
	"ecio-go/types"
	"ecio-go/x/timex"
)

const defaultInterval = 5 * time.Second

// probeAddr is a harmless HW RAM byte; only the completed round trip
// matters, not the value.
const probeAddr = 0x00

func stateTopic() bus.Topic { return bus.T("heartbeat") }

type Service struct {
	conn     *bus.Connection
	dev      *ahc1ec0.Device
	interval time.Duration
	log      *logrus.Entry
}

func New(conn *bus.Connection, dev *ahc1ec0.Device, interval time.Duration, log *logrus.Entry) *Service {
	if interval <= 0 {
		interval = defaultInterval
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{conn: conn, dev: dev, interval: interval, log: log.WithField("service", "heartbeat")}
}

// Run blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	s.probe()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("stopping")
			return
		case <-tick.C:
			s.probe()
		}
	}
}

func (s *Service) probe() {
	_, err := s.dev.ReadRAM(probeAddr)
	hb := types.Heartbeat{OK: err == nil, TSms: timex.NowMs()}
	if err != nil {
		s.log.WithError(err).Warn("controller not answering")
	}
	s.conn.Publish(s.conn.NewMessage(stateTopic(), hb, true))
}
