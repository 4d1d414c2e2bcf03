package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStageResult(t *testing.T) {
	good := ok([]int{1, 2})
	require.False(t, good.Failed())
	require.Equal(t, []int{1, 2}, good.Data)

	bad := failed[[]int](nil, errors.New("boom"))
	require.True(t, bad.Failed())
	require.Nil(t, bad.Data, "a failed stage still carries a usable empty value")
}
