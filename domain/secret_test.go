package domain_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	logger "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/deckhand-io/deckhand/domain"
)

func TestSecret(t *testing.T) {
	t.Parallel()

	t.Run("should redact every fmt verb", func(t *testing.T) {
		t.Parallel()

		// given
		secret := domain.NewSecret("ghp_supersecret123")

		// when
		rendered := fmt.Sprintf("%s %v %q %#v", secret, secret, secret, secret)

		// then
		assert.NotContains(t, rendered, "ghp_supersecret123")
		assert.Contains(t, rendered, "[REDACTED]")
	})

	t.Run("should redact when logged as a field", func(t *testing.T) {
		t.Parallel()

		// given
		secret := domain.NewSecret("ghp_supersecret123")
		var buf bytes.Buffer
		log := logger.New()
		log.SetOutput(&buf)

		// when
		log.WithField("token", secret).Info("configured")

		// then
		assert.NotContains(t, buf.String(), "ghp_supersecret123")
	})

	t.Run("should redact in marshalled YAML", func(t *testing.T) {
		t.Parallel()

		// given
		secret := domain.NewSecret("ghp_supersecret123")

		// when
		out, err := yaml.Marshal(secret)

		// then
		require.NoError(t, err)
		assert.NotContains(t, string(out), "ghp_supersecret123")
	})

	t.Run("should redact in marshalled JSON", func(t *testing.T) {
		t.Parallel()

		// given
		secret := domain.NewSecret("ghp_supersecret123")

		// when
		out, err := json.Marshal(secret)

		// then
		require.NoError(t, err)
		assert.JSONEq(t, `"[REDACTED]"`, string(out))
	})

	t.Run("should unmarshal the raw credential from YAML", func(t *testing.T) {
		t.Parallel()

		// given
		input := "ghp_supersecret123"

		// when
		var secret domain.Secret
		err := yaml.Unmarshal([]byte(input), &secret)

		// then
		require.NoError(t, err)
		assert.Equal(t, "ghp_supersecret123", secret.Reveal())
	})

	t.Run("should reveal the underlying value on demand", func(t *testing.T) {
		t.Parallel()

		// given
		secret := domain.NewSecret("abc")

		// then
		assert.Equal(t, "abc", secret.Reveal())
		assert.False(t, secret.IsZero())
		assert.True(t, domain.NewSecret("").IsZero())
	})
}
