package clients

import (
	"time"

	"agency-data-service/internal/decode"
	"agency-data-service/internal/docstore"
)

// Stored field names. New optional fields are added here and tolerated as
// absent by every reader; there is no migration mechanism.
const (
	fieldRole          = "type"
	fieldFamilyName    = "name"
	fieldGivenName     = "givenName"
	fieldGender        = "gender"
	fieldClubID        = "clubId"
	fieldNationalities = "nationalities"
	fieldBirthDate     = "birthDate"
	fieldContractUntil = "contractUntil"
	fieldSalary        = "salary"
	fieldHeight        = "height"
	fieldWeight        = "weight"
	fieldPositions     = "positions"
	fieldOwnerID       = "ownerId"
	fieldCreatedBy     = "createdBy"
	fieldPhotoURL      = "photoUrl"
)

// Decode maps a raw document to a Client. Role, family name, given name,
// and gender are required; everything else resolves to unset when absent
// or of an unexpected shape.
func Decode(doc docstore.Document) (Client, error) {
	role, err := decode.String(doc.Fields, fieldRole)
	if err != nil {
		return Client{}, err
	}
	familyName, err := decode.String(doc.Fields, fieldFamilyName)
	if err != nil {
		return Client{}, err
	}
	givenName, err := decode.String(doc.Fields, fieldGivenName)
	if err != nil {
		return Client{}, err
	}
	gender, err := decode.String(doc.Fields, fieldGender)
	if err != nil {
		return Client{}, err
	}

	return Client{
		ID:            doc.ID,
		Role:          Role(role),
		FamilyName:    familyName,
		GivenName:     givenName,
		Gender:        Gender(gender),
		ClubID:        decode.OptionalString(doc.Fields, fieldClubID),
		Nationalities: decode.StringList(doc.Fields, fieldNationalities),
		BirthDate:     decode.OptionalTime(doc.Fields, fieldBirthDate),
		ContractUntil: decode.OptionalTime(doc.Fields, fieldContractUntil),
		Salary:        decode.OptionalFloat(doc.Fields, fieldSalary),
		HeightCM:      decode.OptionalInt(doc.Fields, fieldHeight),
		WeightKG:      decode.OptionalInt(doc.Fields, fieldWeight),
		Positions:     decode.StringList(doc.Fields, fieldPositions),
		OwnerID:       decode.OptionalString(doc.Fields, fieldOwnerID),
		CreatedBy:     decode.OptionalString(doc.Fields, fieldCreatedBy),
		PhotoURL:      decode.OptionalString(doc.Fields, fieldPhotoURL),
	}, nil
}

// Encode maps a Client to its stored field set. The ID is not a field;
// it is the document key.
func Encode(c Client) map[string]any {
	fields := map[string]any{
		fieldRole:       string(c.Role),
		fieldFamilyName: c.FamilyName,
		fieldGivenName:  c.GivenName,
		fieldGender:     string(c.Gender),
	}
	if c.ClubID != "" {
		fields[fieldClubID] = c.ClubID
	}
	if len(c.Nationalities) > 0 {
		fields[fieldNationalities] = append([]string(nil), c.Nationalities...)
	}
	if c.BirthDate != nil {
		fields[fieldBirthDate] = c.BirthDate.Format(time.RFC3339)
	}
	if c.ContractUntil != nil {
		fields[fieldContractUntil] = c.ContractUntil.Format(time.RFC3339)
	}
	if c.Salary != nil {
		fields[fieldSalary] = *c.Salary
	}
	if c.HeightCM != nil {
		fields[fieldHeight] = *c.HeightCM
	}
	if c.WeightKG != nil {
		fields[fieldWeight] = *c.WeightKG
	}
	if len(c.Positions) > 0 {
		fields[fieldPositions] = append([]string(nil), c.Positions...)
	}
	if c.OwnerID != "" {
		fields[fieldOwnerID] = c.OwnerID
	}
	if c.CreatedBy != "" {
		fields[fieldCreatedBy] = c.CreatedBy
	}
	if c.PhotoURL != "" {
		fields[fieldPhotoURL] = c.PhotoURL
	}
	return fields
}

// PhotoPatch builds the merge patch persisted after a photo upload.
func PhotoPatch(url string) map[string]any {
	return map[string]any{fieldPhotoURL: url}
}

// OwnerFilter scopes a query to clients owned by a user.
func OwnerFilter(userID string) docstore.Filter {
	return docstore.Filter{Field: fieldOwnerID, Value: userID}
}

// RoleFilter scopes a query to one role.
func RoleFilter(role Role) docstore.Filter {
	return docstore.Filter{Field: fieldRole, Value: string(role)}
}

// ClubFilter scopes a query to members of one club.
func ClubFilter(clubID string) docstore.Filter {
	return docstore.Filter{Field: fieldClubID, Value: clubID}
}

// ClubPatch clears or reassigns the club reference.
func ClubPatch(clubID string) map[string]any {
	return map[string]any{fieldClubID: clubID}
}

// ProfilePatch builds a merge patch from enrichment results.
func ProfilePatch(height, weight *int, positions, nationalities []string) map[string]any {
	fields := map[string]any{}
	if height != nil {
		fields[fieldHeight] = *height
	}
	if weight != nil {
		fields[fieldWeight] = *weight
	}
	if len(positions) > 0 {
		fields[fieldPositions] = append([]string(nil), positions...)
	}
	if len(nationalities) > 0 {
		fields[fieldNationalities] = append([]string(nil), nationalities...)
	}
	return fields
}
