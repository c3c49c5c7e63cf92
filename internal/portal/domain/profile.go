package domain

import (
	"strings"
	"time"
)

// Profile is the denormalised row kept per identity in the profiles table.
// ID equals Identity.ID; there is at most one row per identity.
type Profile struct {
	ID        string
	FirstName string
	LastName  string
	Phone     string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Metadata field names written to the identity backend alongside a profile.
const (
	MetaFirstName = "first_name"
	MetaLastName  = "last_name"
	MetaFullName  = "full_name"
	MetaName      = "name"
	MetaPhone     = "phone"
)

// ProfileMetadata renders profile fields as identity metadata.
func ProfileMetadata(firstName, lastName, phone string) map[string]any {
	md := map[string]any{
		MetaFirstName: firstName,
		MetaLastName:  lastName,
		MetaFullName:  strings.TrimSpace(firstName + " " + lastName),
	}
	if phone != "" {
		md[MetaPhone] = phone
	}
	return md
}

// ProfileFromIdentity seeds a profile from the metadata captured at sign-up.
func ProfileFromIdentity(id Identity) Profile {
	name := DeriveDisplayName(nil, id)
	return Profile{
		ID:        id.ID,
		FirstName: name.First,
		LastName:  name.Last,
		Phone:     id.MetadataString(MetaPhone),
		Email:     id.Email,
	}
}
