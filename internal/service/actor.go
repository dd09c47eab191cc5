package service

import "github.com/google/uuid"

// Actor is the signed-in user performing an operation.
type Actor struct {
	ID    uuid.UUID
	Email string
	Name  string
	Role  string
}

func (a Actor) userID() *uuid.UUID {
	if a.ID == uuid.Nil {
		return nil
	}
	id := a.ID
	return &id
}

func (a Actor) email() *string {
	if a.Email == "" {
		return nil
	}
	e := a.Email
	return &e
}
