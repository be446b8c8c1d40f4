package userstore

import "fmt"

type (
	DuplicateEmail struct {
		Email string
	}

	NotFound struct {
		Lookup string
	}

	StaleRecord struct {
		ID string
	}
)

func (d DuplicateEmail) Error() string {
	return fmt.Sprintf("email %v is already registered", d.Email)
}

func (n NotFound) Error() string {
	return fmt.Sprintf("user not found by %v", n.Lookup)
}

func (s StaleRecord) Error() string {
	return fmt.Sprintf("user %v was modified concurrently", s.ID)
}
