// Package audit records access events & fans out emergency-contact
// notifications when a viewer claims elevated access. Both side effects run
// through the db-backed job queue: at-least-once, asynchronous, and
// isolated so their failures can never taint the disclosure response.
package audit

import (
	"errors"
	"fmt"

	"github.com/crisislink/crisislink/server/disclosure"
	"github.com/crisislink/crisislink/server/logger"
	"github.com/crisislink/crisislink/server/models"
	"github.com/crisislink/crisislink/server/notifier"
	"github.com/crisislink/crisislink/server/work"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RECORD_ACCESS_HANDLER   = "record_access_event"
	NOTIFY_CONTACTS_HANDLER = "notify_emergency_contacts"
)

var logg = logger.NewLogger()

type Emitter struct {
	pool     *work.WorkerPoolAdapter
	notifier *notifier.Notifier
}

// NewEmitter wires the emitter's job handlers into the worker pool.
func NewEmitter(pool *work.WorkerPoolAdapter, contactNotifier *notifier.Notifier) (*Emitter, error) {
	emitter := &Emitter{pool: pool, notifier: contactNotifier}

	if err := pool.Register(RECORD_ACCESS_HANDLER, emitter.recordAccessEvent); err != nil {
		return nil, err
	}

	if err := pool.Register(NOTIFY_CONTACTS_HANDLER, emitter.notifyContacts); err != nil {
		return nil, err
	}

	return emitter, nil
}

// EmitAccessClaim enqueues the audit write & the contact notification for
// an elevated-access claim. Failure to enqueue is loud in the logs but
// never surfaces to the viewer - the disclosure response must not block on
// its side effects.
func (emitter *Emitter) EmitAccessClaim(claim disclosure.AccessClaim) {
	eventUUID := uuid.NewString()

	err := emitter.pool.Perform(work.JobParams{
		Name:    fmt.Sprintf("%v_%v", RECORD_ACCESS_HANDLER, eventUUID),
		Handler: RECORD_ACCESS_HANDLER,
		Args: map[string]interface{}{
			"event_uuid":     eventUUID,
			"user_id":        claim.UserID,
			"username":       claim.Username,
			"viewer_role":    string(claim.Viewer.Role),
			"access_type":    claim.AccessType,
			"responder_info": claim.ResponderInfo,
			"location":       claim.Location,
		},
	})
	if err != nil {
		logg.Errorf("OPERATOR ATTENTION: failed to enqueue audit write for %v: %v", claim.Username, err)
	}

	err = emitter.pool.Perform(work.JobParams{
		Name:    fmt.Sprintf("%v_%v", NOTIFY_CONTACTS_HANDLER, eventUUID),
		Handler: NOTIFY_CONTACTS_HANDLER,
		Args: map[string]interface{}{
			"user_id":  claim.UserID,
			"location": claim.Location,
		},
	})
	if err != nil {
		logg.Errorf("failed to enqueue contact notification for %v: %v", claim.Username, err)
	}
}

// ---------------------------------------------------------------------------------//
// Job handlers
// --------------------------------------------------------------------------------//

// recordAccessEvent appends one audit record. Retries are tolerated: a
// duplicate event uuid means a previous attempt already landed, which
// counts as success.
func (emitter *Emitter) recordAccessEvent(args map[string]interface{}) error {
	eventUUID := stringArg(args, "event_uuid")

	err := models.CreateAccessEvent(&models.AccessEvent{
		EventUUID:     eventUUID,
		UserID:        uintArg(args, "user_id"),
		Username:      stringArg(args, "username"),
		ViewerRole:    stringArg(args, "viewer_role"),
		AccessType:    stringArg(args, "access_type"),
		ResponderInfo: stringArg(args, "responder_info"),
		Location:      stringArg(args, "location"),
	})
	if err != nil && isDuplicateEvent(eventUUID) {
		return nil
	}

	return err
}

func (emitter *Emitter) notifyContacts(args map[string]interface{}) error {
	userID := uintArg(args, "user_id")

	profile, err := models.FindProfileByUserID(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Profile deleted since the claim; nothing to notify about.
		return nil
	}
	if err != nil {
		return err
	}

	contacts, err := models.ContactsByPriority(userID)
	if err != nil {
		return err
	}

	return emitter.notifier.NotifyContacts(profile.FullName, stringArg(args, "location"), contacts)
}

// ---------------------------------------------------------------------------------//
// Helper functions
// --------------------------------------------------------------------------------//

// Job args round-trip through JSON, so numbers come back as float64.
func uintArg(args map[string]interface{}, key string) uint {
	switch value := args[key].(type) {
	case float64:
		return uint(value)
	case uint:
		return value
	case int:
		return uint(value)
	default:
		return 0
	}
}

func stringArg(args map[string]interface{}, key string) string {
	value, _ := args[key].(string)
	return value
}

func isDuplicateEvent(eventUUID string) bool {
	if eventUUID == "" {
		return false
	}

	_, err := models.FindAccessEventByUUID(eventUUID)
	return err == nil
}
