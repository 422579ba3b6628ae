package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalBirthDate(t *testing.T) {
	may15 := time.Date(1990, time.May, 15, 0, 0, 0, 0, time.UTC)
	for _, test := range []struct {
		body     string
		expected *time.Time
	}{
		{`{"birthDate": "1990-05-15"}`, &may15},
		{`{"birthDate": "1990-05-15T00:00:00Z"}`, &may15},
		{`{"birthDate": "1990-05-15T00:00:00.000Z"}`, &may15},
		{`{"birthDate": "1990-05-15T00:00:00"}`, &may15},
		{`{"birthDate": ""}`, nil},
		{`{"birthDate": null}`, nil},
		{`{}`, nil},
	} {
		body, expected := test.body, test.expected
		var contact Contact
		require.NoError(t, json.Unmarshal([]byte(body), &contact), body)
		if expected == nil {
			assert.Nil(t, contact.BirthDate, body)
			continue
		}
		require.NotNil(t, contact.BirthDate, body)
		assert.True(t, expected.Equal(*contact.BirthDate), body)
	}
}

func TestUnmarshalKeepsOtherFields(t *testing.T) {
	var contact Contact
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 3,
		"name": "Erika Mustermann",
		"mobilePhone": "+49 0815",
		"jobTitle": "Chemist",
		"birthDate": "1964-08-12",
		"createdDate": "2024-05-01T10:00:00Z"
	}`), &contact))
	assert.Equal(t, int64(3), contact.Id)
	assert.Equal(t, "Erika Mustermann", contact.Name)
	assert.Equal(t, "+49 0815", contact.MobilePhone)
	require.NotNil(t, contact.JobTitle)
	assert.Equal(t, "Chemist", *contact.JobTitle)
	assert.Equal(t, time.Date(1964, time.August, 12, 0, 0, 0, 0, time.UTC), *contact.BirthDate)
	assert.Equal(t, time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC), contact.CreatedDate)
}

func TestUnmarshalInvalidBirthDate(t *testing.T) {
	for _, body := range []string{
		`{"birthDate": "15.05.1990"}`,
		`{"birthDate": "1990-13-01"}`,
		`{"birthDate": 19900515}`,
	} {
		var contact Contact
		assert.Error(t, json.Unmarshal([]byte(body), &contact), body)
	}
}
