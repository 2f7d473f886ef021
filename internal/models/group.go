package models

// Group represents a reusable participant list.
// Sessions can belong to a group, which enables group-wide balances.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string `json:"id"`

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string `json:"name"`

	// Description is optional free text.
	Description string `json:"description,omitempty"`

	// OwnerID is the user who created the group.
	OwnerID string `json:"ownerId"`

	// Members is the list of member user IDs.
	Members []string `json:"members"`

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64 `json:"createdAt"`
}

// HasMember reports whether id is one of the group's members.
func (g *Group) HasMember(id string) bool {
	return contains(g.Members, id)
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}
