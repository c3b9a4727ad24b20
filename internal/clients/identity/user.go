package identity

import "strings"

// UserPayload is the provider's user object, shared by webhook deliveries
// and the users API.
type UserPayload struct {
	ID             string         `json:"id"`
	EmailAddresses []EmailAddress `json:"email_addresses"`
	PrimaryEmailID string         `json:"primary_email_address_id"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	ImageURL       string         `json:"image_url"`
	PublicMetadata struct {
		Role string `json:"role"`
	} `json:"public_metadata"`
}

type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

// Profile is the normalized identity record applied to the local user.
type Profile struct {
	SubjectID   string
	Email       string
	DisplayName string
	AvatarURL   string
	Role        string
}

func (u UserPayload) Profile() Profile {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	return Profile{
		SubjectID:   strings.TrimSpace(u.ID),
		Email:       u.primaryEmail(),
		DisplayName: name,
		AvatarURL:   strings.TrimSpace(u.ImageURL),
		Role:        strings.TrimSpace(u.PublicMetadata.Role),
	}
}

func (u UserPayload) primaryEmail() string {
	for _, e := range u.EmailAddresses {
		if u.PrimaryEmailID != "" && e.ID == u.PrimaryEmailID {
			return strings.TrimSpace(e.EmailAddress)
		}
	}
	if len(u.EmailAddresses) > 0 {
		return strings.TrimSpace(u.EmailAddresses[0].EmailAddress)
	}
	return ""
}
