package models

// Token is one issued session token. Users keep one per logged-in device.
type Token struct {
	Token string `bson:"token" json:"token"`
}

// User is both the lead captured by the pre-signup form and, once the full
// profile is filled in, the customer account.
type User struct {
	Base `bson:",inline"`

	CPF      string `bson:"cpf" json:"cpf"`
	Password string `bson:"password" json:"-"` // argon2id hash, never returned in JSON
	Name     string `bson:"name,omitempty" json:"name,omitempty"`
	Email    string `bson:"email,omitempty" json:"email,omitempty"`
	Age      int    `bson:"age" json:"age"`
	IsLead   bool   `bson:"isLead" json:"isLead"`

	Tokens []Token `bson:"tokens" json:"-"`
}

// HasToken reports whether raw is one of the user's active tokens.
func (u *User) HasToken(raw string) bool {
	for _, t := range u.Tokens {
		if t.Token == raw {
			return true
		}
	}
	return false
}

func (u *User) AddToken(raw string) {
	u.Tokens = append(u.Tokens, Token{Token: raw})
}

// RemoveToken drops the first entry matching raw and reports whether one was found.
func (u *User) RemoveToken(raw string) bool {
	for i, t := range u.Tokens {
		if t.Token == raw {
			u.Tokens = append(u.Tokens[:i:i], u.Tokens[i+1:]...)
			return true
		}
	}
	return false
}

// TokenStrings returns a copy of the raw token values.
func (u *User) TokenStrings() []string {
	out := make([]string, 0, len(u.Tokens))
	for _, t := range u.Tokens {
		out = append(out, t.Token)
	}
	return out
}
