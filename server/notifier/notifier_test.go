package notifier

import (
	"errors"
	"testing"

	"github.com/crisislink/crisislink/server/models"
	"github.com/stretchr/testify/assert"
)

type scriptedSender struct {
	sent    []string
	failFor map[string]error
}

func (sender *scriptedSender) SendMessage(to, msg string) error {
	if err := sender.failFor[to]; err != nil {
		return err
	}

	sender.sent = append(sender.sent, to)
	return nil
}

func TestNotifyContactsInPriorityOrder(t *testing.T) {
	sender := &scriptedSender{}

	err := New(sender).NotifyContacts("Tony Stark", "Scene of accident", []models.Contact{
		{Name: "Pepper Potts", Phone: "+12345678900", Priority: 1},
		{Name: "Happy Hogan", Phone: "+12345678901", Priority: 2},
	})
	assert.Nil(t, err)
	assert.Equal(t, []string{"+12345678900", "+12345678901"}, sender.sent)
}

func TestNotifyContactsKeepsGoingOnFailure(t *testing.T) {
	boom := errors.New("carrier unavailable")
	sender := &scriptedSender{failFor: map[string]error{"+12345678900": boom}}

	err := New(sender).NotifyContacts("Tony Stark", "", []models.Contact{
		{Name: "Pepper Potts", Phone: "+12345678900", Priority: 1},
		{Name: "Happy Hogan", Phone: "+12345678901", Priority: 2},
	})

	// The first failure is surfaced for retry, but later contacts were
	// still attempted
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"+12345678901"}, sender.sent)
}

func TestAlertMessage(t *testing.T) {
	msg := alertMessage("Tony Stark", "5th & Main", 2)
	assert.Contains(t, msg, "EMERGENCY ALERT")
	assert.Contains(t, msg, "Tony Stark has activated their emergency profile")
	assert.Contains(t, msg, "Location: 5th & Main")
	assert.Contains(t, msg, "emergency contact #2")
	assert.Contains(t, msg, "Reply CONFIRM")

	assert.Contains(t, alertMessage("Tony Stark", "", 1), "Location: Unknown")
}
