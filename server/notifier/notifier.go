// Package notifier builds & dispatches the emergency-contact SMS alerts
// that go out when elevated access is claimed against a profile.
package notifier

import (
	"fmt"

	"github.com/crisislink/crisislink/server/logger"
	"github.com/crisislink/crisislink/server/models"
)

var logg = logger.NewLogger()

// SMSSender is the slice of the Twilio client wrapper the notifier needs.
type SMSSender interface {
	SendMessage(to, msg string) error
}

type Notifier struct {
	sender SMSSender
}

func New(sender SMSSender) *Notifier {
	return &Notifier{sender: sender}
}

// NotifyContacts alerts every emergency contact, priority 1 first. One
// contact failing does not stop the rest; the first failure is returned so
// the job queue can retry the whole batch - duplicate alerts on retry are
// acceptable, missing ones are not.
func (n *Notifier) NotifyContacts(patientName, location string, contacts []models.Contact) error {
	var firstErr error

	for _, contact := range contacts {
		msg := alertMessage(patientName, location, contact.Priority)

		err := n.sender.SendMessage(contact.Phone, msg)
		if err != nil {
			logg.Errorf("failed to notify %v (priority %v): %v", contact.Name, contact.Priority, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

func alertMessage(patientName, location string, priority int) string {
	locationLine := "Location: Unknown"
	if location != "" {
		locationLine = fmt.Sprintf("Location: %v", location)
	}

	return fmt.Sprintf(
		"🚨 EMERGENCY ALERT 🚨\n\n"+
			"%v has activated their emergency profile.\n\n"+
			"%v\n\n"+
			"First responders have been notified.\n"+
			"You are listed as emergency contact #%v.\n\n"+
			"Reply CONFIRM when you receive this message.",
		patientName, locationLine, priority)
}
