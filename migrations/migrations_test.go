package migrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsAreDiscovered(t *testing.T) {
	sorted := Migrations.Sorted()
	require.NotEmpty(t, sorted)

	first := sorted[0]
	assert.Equal(t, "20250601000000", first.Name)
	assert.Equal(t, "create_stripe_accounts", first.Comment)
	assert.NotNil(t, first.Up)
	assert.NotNil(t, first.Down)
}
