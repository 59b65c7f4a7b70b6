package clubs

import (
	"agency-data-service/internal/decode"
	"agency-data-service/internal/docstore"
)

const (
	fieldName      = "name"
	fieldCountry   = "country"
	fieldCity      = "city"
	fieldLeague    = "league"
	fieldLogoURL   = "logoUrl"
	fieldCreatedBy = "createdBy"
)

// Decode maps a raw document to a Club. Only the name is required.
func Decode(doc docstore.Document) (Club, error) {
	name, err := decode.String(doc.Fields, fieldName)
	if err != nil {
		return Club{}, err
	}
	return Club{
		ID:        doc.ID,
		Name:      name,
		Country:   decode.OptionalString(doc.Fields, fieldCountry),
		City:      decode.OptionalString(doc.Fields, fieldCity),
		League:    decode.OptionalString(doc.Fields, fieldLeague),
		LogoURL:   decode.OptionalString(doc.Fields, fieldLogoURL),
		CreatedBy: decode.OptionalString(doc.Fields, fieldCreatedBy),
	}, nil
}

// Encode maps a Club to its stored field set.
func Encode(c Club) map[string]any {
	fields := map[string]any{fieldName: c.Name}
	if c.Country != "" {
		fields[fieldCountry] = c.Country
	}
	if c.City != "" {
		fields[fieldCity] = c.City
	}
	if c.League != "" {
		fields[fieldLeague] = c.League
	}
	if c.LogoURL != "" {
		fields[fieldLogoURL] = c.LogoURL
	}
	if c.CreatedBy != "" {
		fields[fieldCreatedBy] = c.CreatedBy
	}
	return fields
}

// LogoPatch builds the merge patch persisted after a logo upload.
func LogoPatch(url string) map[string]any {
	return map[string]any{fieldLogoURL: url}
}
