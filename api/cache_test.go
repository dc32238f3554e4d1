package api_test

import (
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/require"

	cache "github.com/Bruce-the-dev/Student-Grade-Management-Lab-3"
	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/api"
	"github.com/Bruce-the-dev/Student-Grade-Management-Lab-3/audit"
)

var (
	_ api.Cache[string, any] = (*cache.Cache[string, any])(nil)
	_ api.Auditor            = (*audit.Pipeline)(nil)
)

func TestCacheThroughContract(t *testing.T) {
	c, err := cache.New[string, any](cache.Config{Capacity: 2}, log.NewNopLogger(), nil)
	require.NoError(t, err)

	var contract api.Cache[string, any] = c
	contract.Put("STUDENT_STU001", "Ada")
	v, ok := contract.Get("STUDENT_STU001")
	require.True(t, ok)
	require.Equal(t, "Ada", v)

	contract.Invalidate("STUDENT_STU001")
	require.Equal(t, uint64(1), contract.Stats().Evictions)
}
