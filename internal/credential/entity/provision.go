package entity

// ProvisionedCredential is a generated record together with its plaintext
// password. The plaintext is returned once and never stored.
type ProvisionedCredential struct {
	Credential
	Password string
}
