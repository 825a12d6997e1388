package models

import "time"

type User struct {
	ID            string     `json:"id" bson:"_id,omitempty"`
	Email         string     `json:"email" bson:"email"`
	ChildNickname string     `json:"childNickname" bson:"childNickname"`
	Friends       []string   `json:"friends" bson:"friends"`
	CreatedAt     *time.Time `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// DefaultUser is the placeholder returned when a user record can't be loaded.
func DefaultUser(id string) User {
	return User{ID: id, Friends: []string{}}
}

// HasFriend reports whether id is already in the friends list.
func (u *User) HasFriend(id string) bool {
	return contains(u.Friends, id)
}

// AddFriend appends id unless it is already present. It reports whether the
// list changed.
func (u *User) AddFriend(id string) bool {
	if u.HasFriend(id) {
		return false
	}
	u.Friends = append(u.Friends, id)
	return true
}

// Credential is the sign-in record kept next to the directory user. Its id is
// the user id.
type Credential struct {
	ID           string `json:"id" bson:"_id,omitempty"`
	Email        string `json:"email" bson:"email"`
	PasswordHash string `json:"passwordHash" bson:"passwordHash"`
}
