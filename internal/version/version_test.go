package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	require.NotEmpty(t, Version)
	require.Equal(t, "sitebuilder "+Version+" (commit "+GitCommit+", built "+BuildTime+")", String())
}
