package model

import "time"

// Contact is the data structure for a person that we know, as exchanged with the REST API.
// Name and MobilePhone are required on create and update. The timestamps are assigned by the
// service and ignored when sent.
type Contact struct {
	Id          int64      `json:"id"`
	Name        string     `json:"name"`
	MobilePhone string     `json:"mobilePhone"`
	JobTitle    *string    `json:"jobTitle,omitempty"`
	BirthDate   *time.Time `json:"birthDate,omitempty"`
	CreatedDate time.Time  `json:"createdDate"`
	UpdatedDate time.Time  `json:"updatedDate"`
}

// Message is the body of error responses and of successful deletions.
type Message struct {
	Message string `json:"message"`
}

// UpdateResult is the body returned by a successful update.
type UpdateResult struct {
	Message string  `json:"message"`
	Contact Contact `json:"contact"`
}
