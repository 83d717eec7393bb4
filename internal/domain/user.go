package domain

import "time"

type User struct {
	ID             int64
	FirstName      string
	LastName       string
	Email          string
	Username       string
	HashedPassword []byte
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// UserRef is the public identity shown as a spot Owner or a review author.
type UserRef struct {
	ID        int64
	FirstName string
	LastName  string
}

func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
}
