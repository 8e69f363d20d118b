// Package watchdog exposes the controller watchdog over the bus and keeps
// its state retained for observers. Cancellation force-stops the countdown
// so a clean shutdown is never interrupted by a reset.
package watchdog

import (
	"context"

	"github.com/sirupsen/logrus"

	"ecio-go/bus"
	"ecio-go/drivers/ahc1ec0"
	"ecio-go/errcode"
	"ecio-go/types"
	"ecio-go/x/mathx"
	"ecio-go/x/timex"
)

// MaxSeconds narrows the controller's raw range to what the front end
// accepts. The lower bound is the controller's own.
const MaxSeconds = 600

// Topic layout:
//   watchdog/state           retained types.WatchdogState
//   watchdog/control/<verb>  request; start/stop/ping/set_timeout

func stateTopic() bus.Topic   { return bus.T("watchdog", "state") }
func ctrlWildcard() bus.Topic { return bus.T("watchdog", "control", bus.Wild) }

type Service struct {
	conn *bus.Connection
	wd   *ahc1ec0.Watchdog
	log  *logrus.Entry
}

func New(conn *bus.Connection, wd *ahc1ec0.Watchdog, log *logrus.Entry) *Service {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{conn: conn, wd: wd, log: log.WithField("service", "watchdog")}
}

// Run blocks until the context is cancelled, then disarms the countdown.
func (s *Service) Run(ctx context.Context) {
	ctrl := s.conn.Subscribe(ctrlWildcard())
	defer s.conn.Unsubscribe(ctrl)

	s.publishState()
	for {
		select {
		case <-ctx.Done():
			if err := s.wd.Shutdown(); err != nil {
				s.log.WithError(err).Error("disarm on shutdown failed")
			}
			s.publishState()
			s.log.Info("stopping")
			return
		case msg := <-ctrl.Channel():
			s.handleControl(msg)
		}
	}
}

func (s *Service) publishState() {
	s.conn.Publish(s.conn.NewMessage(stateTopic(), types.WatchdogState{
		Armed:    s.wd.Armed(),
		TimeoutS: s.wd.Timeout(),
		TSms:     timex.NowMs(),
	}, true))
}

func (s *Service) handleControl(msg *bus.Message) {
	verb, _ := msg.Topic[len(msg.Topic)-1].(string)
	var err error
	switch verb {
	case "start":
		var seconds int
		if seconds, err = secondsArg(msg.Payload); err == nil {
			err = s.wd.Start(seconds)
		}
	case "stop":
		err = s.wd.Stop()
	case "ping":
		err = s.wd.Ping()
	case "set_timeout":
		var seconds int
		if seconds, err = secondsArg(msg.Payload); err == nil {
			err = s.wd.SetTimeout(seconds)
		}
	default:
		err = errcode.Unsupported
	}

	if err != nil {
		s.log.WithError(err).WithField("verb", verb).Warn("control failed")
		s.replyErr(msg, err)
		return
	}
	s.publishState()
	if msg.CanReply() {
		s.conn.Reply(msg, types.OKReply{OK: true}, false)
	}
}

func (s *Service) replyErr(msg *bus.Message, err error) {
	if !msg.CanReply() {
		return
	}
	code := errcode.Of(err)
	if code == errcode.Error && err == ahc1ec0.ErrTimeout {
		code = errcode.Timeout
	}
	s.conn.Reply(msg, types.ErrorReply{Error: string(code)}, false)
}

// secondsArg extracts the timeout argument and applies the front-end range.
func secondsArg(payload any) (int, error) {
	var seconds int
	switch v := payload.(type) {
	case int:
		seconds = v
	case int64:
		seconds = int(v)
	case float64:
		seconds = int(v)
	default:
		return 0, errcode.InvalidPayload
	}
	if !mathx.Between(seconds, ahc1ec0.WatchdogMinSeconds, MaxSeconds) {
		return 0, errcode.OutOfRange
	}
	return seconds, nil
}
