package events

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func definedHere() {}

func TestFuncLocation(t *testing.T) {
	t.Run("should point at the defining file", func(t *testing.T) {
		location := FuncLocation(definedHere)

		require.True(t, strings.HasSuffix(location.URI, "location_test.go"))
		require.Positive(t, location.Line)
	})

	t.Run("should return the zero location for non functions", func(t *testing.T) {
		require.Equal(t, SourceLocation{}, FuncLocation("not a function"))
		require.Equal(t, SourceLocation{}, FuncLocation(nil))

		var fn func()
		require.Equal(t, SourceLocation{}, FuncLocation(fn))
	})
}
