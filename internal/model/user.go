package model

type User struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
	First    string `json:"first_name,omitempty"`
	Last     string `json:"last_name,omitempty"`
	Role     Role   `json:"role"`
}

func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	switch {
	case u.First != "" && u.Last != "":
		return u.First + " " + u.Last
	case u.First != "":
		return u.First
	case u.Username != "":
		return u.Username
	}
	return u.Email
}
