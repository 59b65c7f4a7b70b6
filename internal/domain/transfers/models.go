package transfers

import (
	"time"

	"agency-data-service/internal/decode"
	"agency-data-service/internal/docstore"
)

// Collection is the document-store collection backing transfers.
const Collection = "transfers"

// ProcessCollection backs the per-transfer negotiation log.
const ProcessCollection = "transferProcesses"

// Stage tracks how far a transfer has progressed.
type Stage string

const (
	StageInquiry     Stage = "inquiry"
	StageNegotiating Stage = "negotiating"
	StageAgreed      Stage = "agreed"
	StageCompleted   Stage = "completed"
	StageCollapsed   Stage = "collapsed"
)

// Transfer records a client moving between clubs.
type Transfer struct {
	ID         string     `json:"id"`
	ClientID   string     `json:"clientId"`
	FromClubID string     `json:"fromClubId,omitempty"`
	ToClubID   string     `json:"toClubId,omitempty"`
	Fee        *float64   `json:"fee,omitempty"`
	Date       *time.Time `json:"date,omitempty"`
	Stage      Stage      `json:"stage,omitempty"`
}

// Key returns the document ID.
func (t Transfer) Key() string { return t.ID }

// Process is one step in a transfer negotiation.
type Process struct {
	ID         string     `json:"id"`
	TransferID string     `json:"transferId"`
	Stage      Stage      `json:"stage,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	UpdatedAt  *time.Time `json:"updatedAt,omitempty"`
}

// Key returns the document ID.
func (p Process) Key() string { return p.ID }

const (
	fieldClientID   = "clientId"
	fieldFromClubID = "fromClubId"
	fieldToClubID   = "toClubId"
	fieldFee        = "fee"
	fieldDate       = "date"
	fieldStage      = "stage"
	fieldTransferID = "transferId"
	fieldNotes      = "notes"
	fieldUpdatedAt  = "updatedAt"
)

// Decode maps a raw document to a Transfer.
func Decode(doc docstore.Document) (Transfer, error) {
	clientID, err := decode.String(doc.Fields, fieldClientID)
	if err != nil {
		return Transfer{}, err
	}
	return Transfer{
		ID:         doc.ID,
		ClientID:   clientID,
		FromClubID: decode.OptionalString(doc.Fields, fieldFromClubID),
		ToClubID:   decode.OptionalString(doc.Fields, fieldToClubID),
		Fee:        decode.OptionalFloat(doc.Fields, fieldFee),
		Date:       decode.OptionalTime(doc.Fields, fieldDate),
		Stage:      Stage(decode.OptionalString(doc.Fields, fieldStage)),
	}, nil
}

// Encode maps a Transfer to its stored field set.
func Encode(t Transfer) map[string]any {
	fields := map[string]any{fieldClientID: t.ClientID}
	if t.FromClubID != "" {
		fields[fieldFromClubID] = t.FromClubID
	}
	if t.ToClubID != "" {
		fields[fieldToClubID] = t.ToClubID
	}
	if t.Fee != nil {
		fields[fieldFee] = *t.Fee
	}
	if t.Date != nil {
		fields[fieldDate] = t.Date.Format(time.RFC3339)
	}
	if t.Stage != "" {
		fields[fieldStage] = string(t.Stage)
	}
	return fields
}

// DecodeProcess maps a raw document to a negotiation Process step.
func DecodeProcess(doc docstore.Document) (Process, error) {
	transferID, err := decode.String(doc.Fields, fieldTransferID)
	if err != nil {
		return Process{}, err
	}
	return Process{
		ID:         doc.ID,
		TransferID: transferID,
		Stage:      Stage(decode.OptionalString(doc.Fields, fieldStage)),
		Notes:      decode.OptionalString(doc.Fields, fieldNotes),
		UpdatedAt:  decode.OptionalTime(doc.Fields, fieldUpdatedAt),
	}, nil
}

// EncodeProcess maps a Process to its stored field set.
func EncodeProcess(p Process) map[string]any {
	fields := map[string]any{fieldTransferID: p.TransferID}
	if p.Stage != "" {
		fields[fieldStage] = string(p.Stage)
	}
	if p.Notes != "" {
		fields[fieldNotes] = p.Notes
	}
	if p.UpdatedAt != nil {
		fields[fieldUpdatedAt] = p.UpdatedAt.Format(time.RFC3339)
	}
	return fields
}

// ClientFilter scopes a query to one client's transfers.
func ClientFilter(clientID string) docstore.Filter {
	return docstore.Filter{Field: fieldClientID, Value: clientID}
}
