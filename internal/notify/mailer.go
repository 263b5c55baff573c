package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogMailer stands in for outbound email. It consumes signup and activation
// events and logs the message that would be sent.
type LogMailer struct {
	log logrus.FieldLogger
}

func NewLogMailer(log logrus.FieldLogger) *LogMailer {
	return &LogMailer{log: log}
}

func (m *LogMailer) SignupHandler(_ context.Context, event Event) error {
	m.log.WithFields(logrus.Fields{
		"user_id": event.UserID,
		"email":   event.Email,
	}).Info("activation email queued")
	return nil
}

func (m *LogMailer) ActivatedHandler(_ context.Context, event Event) error {
	m.log.WithFields(logrus.Fields{
		"user_id": event.UserID,
		"email":   event.Email,
	}).Info("welcome email queued")
	return nil
}
