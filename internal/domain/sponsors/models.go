package sponsors

import (
	"agency-data-service/internal/decode"
	"agency-data-service/internal/docstore"
)

// Collection is the document-store collection backing sponsors.
const Collection = "sponsors"

// Sponsor is a commercial partner attached to zero or more clients.
type Sponsor struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Contact   string   `json:"contact,omitempty"`
	ClientIDs []string `json:"clientIds,omitempty"`
	LogoURL   string   `json:"logoUrl,omitempty"`
}

// Key returns the document ID.
func (s Sponsor) Key() string { return s.ID }

const (
	fieldName      = "name"
	fieldContact   = "contact"
	fieldClientIDs = "clientIds"
	fieldLogoURL   = "logoUrl"
)

// Decode maps a raw document to a Sponsor.
func Decode(doc docstore.Document) (Sponsor, error) {
	name, err := decode.String(doc.Fields, fieldName)
	if err != nil {
		return Sponsor{}, err
	}
	return Sponsor{
		ID:        doc.ID,
		Name:      name,
		Contact:   decode.OptionalString(doc.Fields, fieldContact),
		ClientIDs: decode.StringList(doc.Fields, fieldClientIDs),
		LogoURL:   decode.OptionalString(doc.Fields, fieldLogoURL),
	}, nil
}

// Encode maps a Sponsor to its stored field set.
func Encode(s Sponsor) map[string]any {
	fields := map[string]any{fieldName: s.Name}
	if s.Contact != "" {
		fields[fieldContact] = s.Contact
	}
	if len(s.ClientIDs) > 0 {
		fields[fieldClientIDs] = append([]string(nil), s.ClientIDs...)
	}
	if s.LogoURL != "" {
		fields[fieldLogoURL] = s.LogoURL
	}
	return fields
}
