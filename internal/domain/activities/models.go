package activities

import (
	"time"

	"agency-data-service/internal/decode"
	"agency-data-service/internal/docstore"
)

// Collection is the document-store collection backing activities.
const Collection = "activities"

// Activity is a dated note attached to a client: a call, a scouting visit,
// a medical, whatever the agent wants on record.
type Activity struct {
	ID        string     `json:"id"`
	ClientID  string     `json:"clientId,omitempty"`
	Kind      string     `json:"kind,omitempty"`
	Title     string     `json:"title"`
	Notes     string     `json:"notes,omitempty"`
	Date      *time.Time `json:"date,omitempty"`
	CreatedBy string     `json:"createdBy,omitempty"`
}

// Key returns the document ID.
func (a Activity) Key() string { return a.ID }

const (
	fieldClientID  = "clientId"
	fieldKind      = "kind"
	fieldTitle     = "title"
	fieldNotes     = "notes"
	fieldDate      = "date"
	fieldCreatedBy = "createdBy"
)

// Decode maps a raw document to an Activity.
func Decode(doc docstore.Document) (Activity, error) {
	title, err := decode.String(doc.Fields, fieldTitle)
	if err != nil {
		return Activity{}, err
	}
	return Activity{
		ID:        doc.ID,
		ClientID:  decode.OptionalString(doc.Fields, fieldClientID),
		Kind:      decode.OptionalString(doc.Fields, fieldKind),
		Title:     title,
		Notes:     decode.OptionalString(doc.Fields, fieldNotes),
		Date:      decode.OptionalTime(doc.Fields, fieldDate),
		CreatedBy: decode.OptionalString(doc.Fields, fieldCreatedBy),
	}, nil
}

// Encode maps an Activity to its stored field set.
func Encode(a Activity) map[string]any {
	fields := map[string]any{fieldTitle: a.Title}
	if a.ClientID != "" {
		fields[fieldClientID] = a.ClientID
	}
	if a.Kind != "" {
		fields[fieldKind] = a.Kind
	}
	if a.Notes != "" {
		fields[fieldNotes] = a.Notes
	}
	if a.Date != nil {
		fields[fieldDate] = a.Date.Format(time.RFC3339)
	}
	if a.CreatedBy != "" {
		fields[fieldCreatedBy] = a.CreatedBy
	}
	return fields
}

// ClientFilter scopes a query to one client's activities.
func ClientFilter(clientID string) docstore.Filter {
	return docstore.Filter{Field: fieldClientID, Value: clientID}
}
