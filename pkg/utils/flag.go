package utils

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetTestFlag overrides a registered flag for the duration of a single test. The
// previous value is restored on cleanup so tests stay independent of each other.
func SetTestFlag(t *testing.T, name, value string) {
	t.Helper()
	registered := flag.Lookup(name)
	require.NotNilf(t, registered, "flag %q is not registered", name)
	previous := registered.Value.String()
	t.Cleanup(func() { require.NoError(t, flag.Set(name, previous)) })
	require.NoError(t, flag.Set(name, value))
}
