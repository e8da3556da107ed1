// Package stream carries frames and estimates over NATS. Frames arrive as
// packed binary messages, estimates leave as JSON.
package stream

import (
	"context"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"

	"gopulse/harmonic"
	"gopulse/pipeline"
)

// Service feeds frame messages into a pipeline.Driver and publishes every
// analysis it produces.
type Service struct {
	driver  *pipeline.Driver
	pub     Publisher
	subject string
	log     logrus.FieldLogger
	now     func() time.Time

	mu sync.Mutex
}

func NewService(driver *pipeline.Driver, pub Publisher, subject string, log logrus.FieldLogger) *Service {
	return &Service{
		driver:  driver,
		pub:     pub,
		subject: subject,
		log:     log,
		now:     time.Now,
	}
}

// Handle is a nats.MsgHandler.
func (s *Service) Handle(msg *nats.Msg) {
	if err := s.HandleData(msg.Data); err != nil {
		s.log.WithError(err).WithField("subject", msg.Subject).Warn("dropping frame message")
	}
}

// HandleData decodes one message, pushes its frames and publishes any
// analyses that fall due.
func (s *Service) HandleData(data []byte) error {
	frames, err := DecodeFrames(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range frames {
		result, ok := s.driver.Push(f)
		if !ok {
			continue
		}

		msgs, err := EstimateMessages(result, s.driver.Options.CountCrossings, s.now())
		if err != nil {
			return err
		}

		for _, b := range msgs {
			if err := s.pub.Publish(s.subject, b); err != nil {
				return err
			}
		}

		s.log.WithFields(logrus.Fields{
			"bpm":      result.Spectral.BPM,
			"snr":      result.Spectral.SNR,
			"tooNoisy": result.Spectral.TooNoisy,
		}).Debug("published estimate")
	}

	return nil
}

// Serve subscribes to subject and handles messages until ctx is done.
func Serve(ctx context.Context, nc *nats.Conn, subject string, s *Service) error {
	sub, err := nc.Subscribe(subject, s.Handle)
	if err != nil {
		return err
	}

	s.log.WithField("subject", subject).Info("processor running")
	<-ctx.Done()

	return sub.Unsubscribe()
}

// FrameGenerator yields frames on demand, *synth.Pulse is one.
type FrameGenerator interface {
	Next() harmonic.Frame
}

// Produce publishes batches of generated frames at one frame per period
// until ctx is done.
func Produce(ctx context.Context, pub Publisher, subject string, gen FrameGenerator, batch int, period time.Duration) error {
	if batch < 1 {
		batch = 1
	}

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	buffer := make([]harmonic.Frame, 0, batch)

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			buffer = append(buffer, gen.Next())

			if len(buffer) >= batch {
				if err := pub.Publish(subject, EncodeFrames(buffer...)); err != nil {
					return err
				}
				buffer = buffer[:0]
			}
		}
	}
}
