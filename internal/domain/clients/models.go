package clients

import "time"

// Collection is the document-store collection backing clients.
const Collection = "clients"

// Role classifies the represented person.
type Role string

const (
	RolePlayer Role = "player"
	RoleCoach  Role = "coach"
	RoleStaff  Role = "staff"
)

// Gender mirrors the stored single-letter encoding.
type Gender string

const (
	GenderFemale Gender = "f"
	GenderMale   Gender = "m"
	GenderOther  Gender = "d"
)

// Client is a represented player, coach, or staff member. An empty ID means
// the client has not been persisted yet; once assigned the ID never changes.
type Client struct {
	ID            string     `json:"id"`
	Role          Role       `json:"role"`
	FamilyName    string     `json:"familyName"`
	GivenName     string     `json:"givenName"`
	Gender        Gender     `json:"gender"`
	ClubID        string     `json:"clubId,omitempty"`
	Nationalities []string   `json:"nationalities,omitempty"`
	BirthDate     *time.Time `json:"birthDate,omitempty"`
	ContractUntil *time.Time `json:"contractUntil,omitempty"`
	Salary        *float64   `json:"salary,omitempty"`
	HeightCM      *int       `json:"heightCm,omitempty"`
	WeightKG      *int       `json:"weightKg,omitempty"`
	Positions     []string   `json:"positions,omitempty"`
	OwnerID       string     `json:"ownerId,omitempty"`
	CreatedBy     string     `json:"createdBy,omitempty"`
	PhotoURL      string     `json:"photoUrl,omitempty"`
}

// Key returns the document ID.
func (c Client) Key() string { return c.ID }

// FullName joins given and family name for display.
func (c Client) FullName() string {
	switch {
	case c.GivenName == "":
		return c.FamilyName
	case c.FamilyName == "":
		return c.GivenName
	default:
		return c.GivenName + " " + c.FamilyName
	}
}

// SortName concatenates given name and family name without a separator.
// Name sorting compares this concatenation, so "Anna Zimmer" orders before
// "Ben Adler" — this matches the historical list behavior and is kept as is.
func (c Client) SortName() string {
	return c.GivenName + c.FamilyName
}
