package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultGreetingName is used when nothing better is known about a user.
const DefaultGreetingName = "there"

// DisplayName is the name shown on the dashboard.
type DisplayName struct {
	First string
	Last  string
}

// Full joins first and last name.
func (n DisplayName) Full() string {
	return strings.TrimSpace(n.First + " " + n.Last)
}

// DeriveDisplayName picks a name from the first source that has one:
//
//  1. profile first/last name
//  2. metadata first_name/last_name
//  3. metadata full_name
//  4. metadata name
//  5. the local part of the email address
//  6. DefaultGreetingName
//
// Single-string sources are split on the first run of whitespace.
func DeriveDisplayName(profile *Profile, id Identity) DisplayName {
	if profile != nil {
		if n := fromParts(profile.FirstName, profile.LastName); n.First != "" {
			return n
		}
	}

	if n := fromParts(id.MetadataString(MetaFirstName), id.MetadataString(MetaLastName)); n.First != "" {
		return n
	}

	for _, key := range []string{MetaFullName, MetaName} {
		if n := fromFull(id.MetadataString(key)); n.First != "" {
			return n
		}
	}

	email := id.Email
	if email == "" && profile != nil {
		email = profile.Email
	}
	if local, _, ok := strings.Cut(strings.TrimSpace(email), "@"); ok && local != "" {
		return DisplayName{First: capitalize(local)}
	}

	return DisplayName{First: DefaultGreetingName}
}

func fromParts(first, last string) DisplayName {
	first, last = strings.TrimSpace(first), strings.TrimSpace(last)
	if first == "" {
		// A lone last name still identifies the user.
		first, last = last, ""
	}
	return DisplayName{First: capitalize(first), Last: capitalize(last)}
}

func fromFull(full string) DisplayName {
	fields := strings.Fields(full)
	switch len(fields) {
	case 0:
		return DisplayName{}
	case 1:
		return DisplayName{First: capitalize(fields[0])}
	default:
		return DisplayName{
			First: capitalize(fields[0]),
			Last:  capitalize(strings.Join(fields[1:], " ")),
		}
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

