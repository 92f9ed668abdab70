package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoles(t *testing.T) {
	assert.True(t, IsReadOnly(RoleAudit))
	assert.False(t, IsReadOnly(RoleSales))
	assert.True(t, IsElevated(RoleAdmin))
	assert.False(t, IsElevated(RoleAudit))
	assert.True(t, IsKnown(RoleManagement))
	assert.False(t, IsKnown(99))
	assert.Equal(t, "sales", Name(RoleSales))
	assert.Equal(t, "unknown", Name(0))
}
