package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// birthDateLayouts are the accepted spellings of a birth date in a request body.
var birthDateLayouts = []string{
	time.DateOnly,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
}

// Contact is the data structure for a person that we know.
// Name and MobilePhone are required, everything else is optional. CreatedDate and UpdatedDate are
// maintained by the service and never taken from a request body.
type Contact struct {
	Id          int64      `json:"id"          db:"id"`
	Name        string     `json:"name"        db:"name"         validate:"notblank,max=100"`
	MobilePhone string     `json:"mobilePhone" db:"mobile_phone" validate:"notblank"`
	JobTitle    *string    `json:"jobTitle"    db:"job_title"    validate:"omitempty,max=100"`
	BirthDate   *time.Time `json:"birthDate"   db:"birth_date"`
	CreatedDate time.Time  `json:"createdDate" db:"created_date"`
	UpdatedDate time.Time  `json:"updatedDate" db:"updated_date"`
}

// Page restricts a list query to a window of the sorted result set. A zero Limit means no limit.
type Page struct {
	Limit  int
	Offset int
}

// UnmarshalJSON decodes a contact and accepts the birth date either as a plain date
// ("1990-05-15") or as a timestamp. An empty string counts as no birth date.
func (c *Contact) UnmarshalJSON(data []byte) error {
	type contact Contact
	aux := struct {
		*contact
		BirthDate *string `json:"birthDate"`
	}{contact: (*contact)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	birthDate, err := parseBirthDate(aux.BirthDate)
	if err != nil {
		return err
	}
	c.BirthDate = birthDate
	return nil
}

func parseBirthDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	for _, layout := range birthDateLayouts {
		if t, err := time.Parse(layout, *s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid birth date %q", *s)
}
