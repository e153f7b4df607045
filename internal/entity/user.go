package entity

import (
	"encoding/json"
	"fmt"
)

// User is one record in the credential store document. The username is the
// document key, not a field of the serialized value.
type User struct {
	Username    string                `json:"-"`
	Password    PasswordRecord        `json:"password"`
	Books       []Book                `json:"books"`
	Collections map[string]Collection `json:"collections"`
}

// Collection is a named grouping of books. Membership lives on each Book's
// collections list, not here.
type Collection struct {
	Description string `json:"description"`
}

// PasswordRecord holds the salted hash of a user's password. The credential
// document stores it as a two-element array [hash, salt].
type PasswordRecord struct {
	Hash string
	Salt string
}

func (p PasswordRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{p.Hash, p.Salt})
}

func (p *PasswordRecord) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("password record: %w", err)
	}
	p.Hash, p.Salt = pair[0], pair[1]
	return nil
}
