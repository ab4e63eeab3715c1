package models

// RemoteCredential is the plaintext form of the AWS access credential used
// to reach the parameter store. It exists in memory only while a session is
// active and is never persisted outside its encrypted blob.
type RemoteCredential struct {
	AccessKeyID     string `json:"access_key"`
	SecretAccessKey string `json:"secret_key"`
	Region          string `json:"region"`
}

// IsZero reports whether the credential carries no usable keys.
func (c RemoteCredential) IsZero() bool {
	return c.AccessKeyID == "" && c.SecretAccessKey == ""
}
