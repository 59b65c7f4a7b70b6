package contracts

import (
	"time"

	"agency-data-service/internal/decode"
	"agency-data-service/internal/docstore"
)

// Collection is the document-store collection backing contracts.
const Collection = "contracts"

// Contract links a client to a club for a period. The client reference is
// required; everything else is optional.
type Contract struct {
	ID          string     `json:"id"`
	ClientID    string     `json:"clientId"`
	ClubID      string     `json:"clubId,omitempty"`
	Start       *time.Time `json:"start,omitempty"`
	End         *time.Time `json:"end,omitempty"`
	Salary      *float64   `json:"salary,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	DocumentURL string     `json:"documentUrl,omitempty"`
}

// Key returns the document ID.
func (c Contract) Key() string { return c.ID }

const (
	fieldClientID    = "clientId"
	fieldClubID      = "clubId"
	fieldStart       = "start"
	fieldEnd         = "end"
	fieldSalary      = "salary"
	fieldNotes       = "notes"
	fieldDocumentURL = "documentUrl"
)

// Decode maps a raw document to a Contract.
func Decode(doc docstore.Document) (Contract, error) {
	clientID, err := decode.String(doc.Fields, fieldClientID)
	if err != nil {
		return Contract{}, err
	}
	return Contract{
		ID:          doc.ID,
		ClientID:    clientID,
		ClubID:      decode.OptionalString(doc.Fields, fieldClubID),
		Start:       decode.OptionalTime(doc.Fields, fieldStart),
		End:         decode.OptionalTime(doc.Fields, fieldEnd),
		Salary:      decode.OptionalFloat(doc.Fields, fieldSalary),
		Notes:       decode.OptionalString(doc.Fields, fieldNotes),
		DocumentURL: decode.OptionalString(doc.Fields, fieldDocumentURL),
	}, nil
}

// Encode maps a Contract to its stored field set.
func Encode(c Contract) map[string]any {
	fields := map[string]any{fieldClientID: c.ClientID}
	if c.ClubID != "" {
		fields[fieldClubID] = c.ClubID
	}
	if c.Start != nil {
		fields[fieldStart] = c.Start.Format(time.RFC3339)
	}
	if c.End != nil {
		fields[fieldEnd] = c.End.Format(time.RFC3339)
	}
	if c.Salary != nil {
		fields[fieldSalary] = *c.Salary
	}
	if c.Notes != "" {
		fields[fieldNotes] = c.Notes
	}
	if c.DocumentURL != "" {
		fields[fieldDocumentURL] = c.DocumentURL
	}
	return fields
}

// DocumentPatch builds the merge patch persisted after a document upload.
func DocumentPatch(url string) map[string]any {
	return map[string]any{fieldDocumentURL: url}
}

// ClientFilter scopes a query to one client's contracts.
func ClientFilter(clientID string) docstore.Filter {
	return docstore.Filter{Field: fieldClientID, Value: clientID}
}
