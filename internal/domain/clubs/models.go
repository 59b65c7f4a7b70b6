package clubs

// Collection is the document-store collection backing clubs.
const Collection = "clubs"

// Club is a team a client can be affiliated with. Client documents refer to
// clubs by ID only; a dangling reference resolves to "unknown" at read time.
type Club struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Country   string `json:"country,omitempty"`
	City      string `json:"city,omitempty"`
	League    string `json:"league,omitempty"`
	LogoURL   string `json:"logoUrl,omitempty"`
	CreatedBy string `json:"createdBy,omitempty"`
}

// Key returns the document ID.
func (c Club) Key() string { return c.ID }

// NameOf resolves a club reference against a snapshot by linear scan.
// Empty and dangling references resolve to the empty string, which
// serializes as an absent club name.
func NameOf(all []Club, id string) string {
	if id == "" {
		return ""
	}
	for _, c := range all {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}
