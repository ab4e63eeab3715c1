package models

import (
	"encoding/json"
	"strings"
)

// ParameterRoot is the namespace prefix under which all entries live in the
// remote parameter store.
const ParameterRoot = "/password-manager"

// PasswordEntry is one stored credential. The remote store is the source of
// truth; the cache holds transient copies. AppName doubles as the key within
// an account's namespace.
type PasswordEntry struct {
	AppName  string `json:"app_name"`
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
	Memo     string `json:"memo"`
}

// ParameterPath returns the remote key for an entry of the given account,
// e.g. /password-manager/alice/github. With an empty appName it returns the
// account's namespace root used for prefix listing.
func ParameterPath(accountName, appName string) string {
	base := ParameterRoot + "/" + accountName
	if appName == "" {
		return base
	}
	return base + "/" + appName
}

// AppNameFromPath extracts the entry key from a full parameter path.
func AppNameFromPath(path string) string {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return path
	}
	return path[i+1:]
}

// MarshalValue serializes the entry for remote storage. The app name is
// carried by the parameter path, not the value, so it is stripped here.
func (e PasswordEntry) MarshalValue() (string, error) {
	v := struct {
		URL      string `json:"url"`
		Username string `json:"username"`
		Password string `json:"password"`
		Memo     string `json:"memo"`
	}{e.URL, e.Username, e.Password, e.Memo}

	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// EntryFromValue parses a remote parameter value into a PasswordEntry,
// restoring the app name from the path suffix. Records written by older
// versions keyed the URL "website"; both shapes load, and unknown or missing
// fields are tolerated.
func EntryFromValue(path, value string) (PasswordEntry, error) {
	var raw struct {
		URL      string `json:"url"`
		Website  string `json:"website"`
		Username string `json:"username"`
		Password string `json:"password"`
		Memo     string `json:"memo"`
	}
	if err := json.Unmarshal([]byte(value), &raw); err != nil {
		return PasswordEntry{}, err
	}

	e := PasswordEntry{
		AppName:  AppNameFromPath(path),
		URL:      raw.URL,
		Username: raw.Username,
		Password: raw.Password,
		Memo:     raw.Memo,
	}
	if e.URL == "" {
		e.URL = raw.Website
	}
	return e, nil
}
