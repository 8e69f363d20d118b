// Package hwmon periodically samples the controller's sensor channels and
// publishes them over the bus. Channel metadata is retained so late
// subscribers see the surface without waiting for a sample.
package hwmon

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"ecio-go/bus"
	"ecio-go/drivers/ahc1ec0"
	"ecio-go/errcode"
	"ecio-go/types"
	"ecio-go/x/timex"
)

const defaultInterval = 2 * time.Second

// Topic layout:
//   hwmon/in/<ch>/info     retained types.ChannelInfo
//   hwmon/in/<ch>/value    retained types.Reading
//   hwmon/temp/<ch>/info   retained types.ChannelInfo
//   hwmon/temp/<ch>/value  retained types.Reading
//   hwmon/control/<verb>   request; "read" samples immediately

func inInfo(ch int) bus.Topic    { return bus.T("hwmon", "in", ch, "info") }
func inValue(ch int) bus.Topic   { return bus.T("hwmon", "in", ch, "value") }
func tempInfo(ch int) bus.Topic  { return bus.T("hwmon", "temp", ch, "info") }
func tempValue(ch int) bus.Topic { return bus.T("hwmon", "temp", ch, "value") }

func ctrlWildcard() bus.Topic { return bus.T("hwmon", "control", bus.Wild) }

type Service struct {
	conn     *bus.Connection
	sensors  *ahc1ec0.Sensors
	interval time.Duration
	log      *logrus.Entry
}

// New wires the service; a zero interval selects the default poll rate.
func New(conn *bus.Connection, sensors *ahc1ec0.Sensors, interval time.Duration, log *logrus.Entry) *Service {
	if interval <= 0 {
		interval = defaultInterval
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{
		conn:     conn,
		sensors:  sensors,
		interval: interval,
		log:      log.WithField("service", "hwmon"),
	}
}

// Run blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) {
	s.publishInfo()

	ctrl := s.conn.Subscribe(ctrlWildcard())
	defer s.conn.Unsubscribe(ctrl)

	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	s.sample()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("stopping")
			return
		case <-tick.C:
			s.sample()
		case msg := <-ctrl.Channel():
			s.handleControl(msg)
		}
	}
}

func (s *Service) publishInfo() {
	for ch := 0; ch < s.sensors.InCount(); ch++ {
		label, _ := s.sensors.InLabel(ch)
		s.conn.Publish(s.conn.NewMessage(inInfo(ch),
			types.ChannelInfo{Channel: ch, Label: label}, true))
	}
	for ch := 0; ch < s.sensors.TempCount(); ch++ {
		label, _ := s.sensors.TempLabel(ch)
		crit, _ := s.sensors.TempCrit(ch)
		s.conn.Publish(s.conn.NewMessage(tempInfo(ch),
			types.ChannelInfo{Channel: ch, Label: label, Crit: crit}, true))
	}
}

func (s *Service) sample() {
	now := timex.NowMs()
	for ch := 0; ch < s.sensors.InCount(); ch++ {
		v, err := s.sensors.ReadIn(ch)
		if err != nil {
			s.logReadErr("in", ch, err)
			continue
		}
		label, _ := s.sensors.InLabel(ch)
		s.conn.Publish(s.conn.NewMessage(inValue(ch),
			types.Reading{Channel: ch, Label: label, Value: v, TSms: now}, true))
	}
	for ch := 0; ch < s.sensors.TempCount(); ch++ {
		v, err := s.sensors.ReadTemp(ch)
		if err != nil {
			s.logReadErr("temp", ch, err)
			continue
		}
		label, _ := s.sensors.TempLabel(ch)
		s.conn.Publish(s.conn.NewMessage(tempValue(ch),
			types.Reading{Channel: ch, Label: label, Value: v, TSms: now}, true))
	}
}

func (s *Service) logReadErr(kind string, ch int, err error) {
	entry := s.log.WithField(kind, ch).WithError(err)
	if err == ahc1ec0.ErrNotConfigured {
		// not routed on this board; expected, not a fault
		entry.Debug("channel not configured")
		return
	}
	entry.Warn("sample failed")
}

func (s *Service) handleControl(msg *bus.Message) {
	verb, _ := msg.Topic[len(msg.Topic)-1].(string)
	switch verb {
	case "read":
		s.sample()
		if msg.CanReply() {
			s.conn.Reply(msg, types.OKReply{OK: true}, false)
		}
	default:
		if msg.CanReply() {
			s.conn.Reply(msg, types.ErrorReply{Error: string(errcode.Unsupported)}, false)
		}
	}
}
