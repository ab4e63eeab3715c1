package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameterPath(t *testing.T) {
	assert.Equal(t, "/password-manager/alice", ParameterPath("alice", ""))
	assert.Equal(t, "/password-manager/alice/github", ParameterPath("alice", "github"))
}

func TestAppNameFromPath(t *testing.T) {
	assert.Equal(t, "github", AppNameFromPath("/password-manager/alice/github"))
	assert.Equal(t, "github", AppNameFromPath("github"))
}

func TestEntryValueRoundTrip(t *testing.T) {
	e := PasswordEntry{
		AppName:  "github",
		URL:      "https://github.com",
		Username: "alice",
		Password: "s3cr3t",
		Memo:     "work account",
	}

	value, err := e.MarshalValue()
	require.NoError(t, err)
	assert.NotContains(t, value, "app_name")

	got, err := EntryFromValue("/password-manager/alice/github", value)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestEntryFromValue_MissingFieldsDefaultEmpty(t *testing.T) {
	got, err := EntryFromValue("/password-manager/alice/legacy", `{"username":"bob"}`)
	require.NoError(t, err)
	assert.Equal(t, "legacy", got.AppName)
	assert.Equal(t, "bob", got.Username)
	assert.Empty(t, got.URL)
	assert.Empty(t, got.Memo)
}

func TestEntryFromValue_LegacyWebsiteKey(t *testing.T) {
	got, err := EntryFromValue("/password-manager/alice/oldapp",
		`{"website":"https://old.example.com","username":"bob","password":"pw"}`)
	require.NoError(t, err)
	assert.Equal(t, "https://old.example.com", got.URL)
	assert.Equal(t, "bob", got.Username)

	// a record carrying both keys prefers the current one
	got, err = EntryFromValue("/password-manager/alice/both",
		`{"url":"https://new.example.com","website":"https://old.example.com"}`)
	require.NoError(t, err)
	assert.Equal(t, "https://new.example.com", got.URL)
}

func TestEntryFromValue_InvalidJSON(t *testing.T) {
	_, err := EntryFromValue("/password-manager/alice/broken", "{not json")
	require.Error(t, err)
}
