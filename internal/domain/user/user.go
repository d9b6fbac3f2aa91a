package user

// User is a registered email with its key material. Rows are never updated.
type User struct {
	ID                  string `json:"id"`
	Email               string `json:"email"`
	Active              bool   `json:"active"`
	PrivateKey          string `json:"-"` // never echoed back
	AggregatedPublicKey string `json:"aggregated_public_key"`
}

type CreateUserRequest struct {
	Email               string `json:"email" binding:"required,email"`
	PrivateKey          string `json:"private_key" binding:"required"`
	AggregatedPublicKey string `json:"aggregated_public_key" binding:"required"`
}

type CreateUserResponse struct {
	Success bool `json:"success"`
}

// EmailLookup is the lookup result. The key is omitted, not blanked, when
// the email is unknown.
type EmailLookup struct {
	Exists              bool    `json:"exists"`
	AggregatedPublicKey *string `json:"aggregated_public_key,omitempty"`
}

func Found(key string) EmailLookup {
	return EmailLookup{Exists: true, AggregatedPublicKey: &key}
}

func NotFound() EmailLookup {
	return EmailLookup{Exists: false}
}
