package domain

// redactedPlaceholder replaces secret material on every formatting path.
const redactedPlaceholder = "[REDACTED]"

// Secret holds a credential in process memory. Its only legitimate use is the
// construction of an authenticated clone URL; every stringification path
// (fmt verbs, logrus fields, YAML/JSON marshalling) yields a placeholder so
// the value can never leak into logs or persisted configuration.
type Secret string

// NewSecret wraps raw credential material.
func NewSecret(raw string) Secret {
	return Secret(raw)
}

// Reveal returns the underlying credential. Call sites should be few and
// deliberate.
func (s Secret) Reveal() string {
	return string(s)
}

// IsZero reports whether no credential is held.
func (s Secret) IsZero() bool {
	return s == ""
}

// String implements fmt.Stringer with redaction.
func (s Secret) String() string {
	return redactedPlaceholder
}

// GoString implements fmt.GoStringer so %#v is redacted too.
func (s Secret) GoString() string {
	return "domain.Secret(" + redactedPlaceholder + ")"
}

// MarshalYAML redacts the secret in any persisted YAML form.
func (s Secret) MarshalYAML() (interface{}, error) {
	return redactedPlaceholder, nil
}

// UnmarshalYAML accepts the raw credential from a config file.
func (s *Secret) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	*s = Secret(raw)
	return nil
}

// MarshalJSON redacts the secret in any JSON form.
func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redactedPlaceholder + `"`), nil
}
