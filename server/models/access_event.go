package models

// Access types recorded on emergency lookups.
const (
	URL_ACCESS = "url_access"
	QR_ACCESS  = "qr_scan"
)

// AccessEvent is an immutable audit record of an elevated-access claim
// against a profile. Rows are only ever appended - there is no update or
// delete path on purpose.
type AccessEvent struct {
	BaseModel
	EventUUID     string `json:"event_uuid" gorm:"not null;unique"`
	UserID        uint   `json:"user_id" gorm:"not null"`
	Username      string `json:"username" gorm:"not null"`
	ViewerRole    string `json:"viewer_role" gorm:"not null"`
	AccessType    string `json:"access_type"`
	ResponderInfo string `json:"responder_info"`
	Location      string `json:"location"`
}

func CreateAccessEvent(event *AccessEvent) error {
	return db.Create(event).Error
}

// AccessEventsForUser returns the newest events first, for the owner's
// dashboard.
func AccessEventsForUser(userID interface{}, page int) ([]AccessEvent, *Paging, error) {
	var total int64
	events := []AccessEvent{}

	err := db.Model(&AccessEvent{}).Where("user_id = ?", userID).Count(&total).Error
	if err != nil {
		return nil, nil, err
	}

	err = db.Scopes(paginate(page, MAX_PAGE_SIZE)).
		Order("id desc").Find(&events, "user_id = ?", userID).Error
	if err != nil {
		return nil, nil, err
	}

	return events, newPaging(int64(page), MAX_PAGE_SIZE, total), nil
}

func FindAccessEventByUUID(eventUUID string) (*AccessEvent, error) {
	event := AccessEvent{}
	err := db.First(&event, "event_uuid = ?", eventUUID).Error
	if err != nil {
		return nil, err
	}

	return &event, nil
}

func CountAccessEventsForUser(userID interface{}) (int64, error) {
	var total int64
	err := db.Model(&AccessEvent{}).Where("user_id = ?", userID).Count(&total).Error
	return total, err
}
