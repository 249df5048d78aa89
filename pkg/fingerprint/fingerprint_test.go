package fingerprint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/fingerprint"
)

func TestDevice(t *testing.T) {
	t.Parallel()

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()

		first := fingerprint.Device("app")
		second := fingerprint.Device("app")
		assert.Equal(t, first, second)
	})

	t.Run("format", func(t *testing.T) {
		t.Parallel()

		fp := fingerprint.Device()
		require.Len(t, fp, 32)
		assert.Regexp(t, "^[0-9a-f]{32}$", fp)
	})

	t.Run("extras change the identifier", func(t *testing.T) {
		t.Parallel()

		assert.NotEqual(t, fingerprint.Device("app-a"), fingerprint.Device("app-b"))
	})

	t.Run("empty extras are ignored", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, fingerprint.Device("app"), fingerprint.Device("", "app", ""))
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	fp := fingerprint.Device("app")
	assert.True(t, fingerprint.Validate(fp, "app"))
	assert.False(t, fingerprint.Validate(fp, "other"))
	assert.False(t, fingerprint.Validate("", "app"))
}
