package models

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCreateAndFindAccessEvent(t *testing.T) {
	InitializeTestDb()

	event := &AccessEvent{
		EventUUID:     uuid.NewString(),
		UserID:        1,
		Username:      "tony",
		ViewerRole:    "medicalProfessionalClaimed",
		AccessType:    QR_ACCESS,
		ResponderInfo: "10.0.0.1",
		Location:      "Scene of accident",
	}
	assert.Nil(t, CreateAccessEvent(event))

	found, err := FindAccessEventByUUID(event.EventUUID)
	assert.Nil(t, err)
	assert.Equal(t, "tony", found.Username)
	assert.Equal(t, QR_ACCESS, found.AccessType)

	// The event uuid is the dedupe key - inserting it twice must fail
	err = CreateAccessEvent(&AccessEvent{
		EventUUID:  event.EventUUID,
		UserID:     1,
		Username:   "tony",
		ViewerRole: "medicalProfessionalClaimed",
	})
	assert.NotNil(t, err)

	total, err := CountAccessEventsForUser(1)
	assert.Nil(t, err)
	assert.Equal(t, int64(1), total)
}

func TestAccessEventsForUserNewestFirst(t *testing.T) {
	InitializeTestDb()

	for i := 0; i < 3; i++ {
		err := CreateAccessEvent(&AccessEvent{
			EventUUID:  uuid.NewString(),
			UserID:     1,
			Username:   "tony",
			ViewerRole: "medicalProfessionalClaimed",
			Location:   fmt.Sprintf("location-%v", i),
		})
		assert.Nil(t, err)
	}

	events, paging, err := AccessEventsForUser(1, 1)
	assert.Nil(t, err)
	assert.Len(t, events, 3)
	assert.Equal(t, "location-2", events[0].Location)
	assert.Equal(t, int64(3), paging.Total)

	// Another user's dashboard sees nothing
	events, _, err = AccessEventsForUser(2, 1)
	assert.Nil(t, err)
	assert.Empty(t, events)
}
