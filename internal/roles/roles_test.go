package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevSymphony/sysop/pkg/schema"
)

func TestParse(t *testing.T) {
	r, err := Parse(" Admin ")
	require.NoError(t, err)
	assert.Equal(t, Admin, r)

	r, err = Parse("operator")
	require.NoError(t, err)
	assert.Equal(t, Operator, r)

	_, err = Parse("root")
	assert.Error(t, err)
}

func TestAllows(t *testing.T) {
	tests := []struct {
		role     Role
		required Role
		want     bool
	}{
		{Admin, Admin, true},
		{Admin, Operator, true},
		{Operator, Operator, true},
		{Operator, Admin, false},
		{Role(""), Operator, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"->"+string(tt.required), func(t *testing.T) {
			assert.Equal(t, tt.want, Allows(tt.role, tt.required))
		})
	}
}

func TestValidateIntentPermission(t *testing.T) {
	open := &schema.IntentDefinition{ID: "system.uptime"}
	guarded := &schema.IntentDefinition{ID: "power.reboot", Role: "admin"}
	broken := &schema.IntentDefinition{ID: "x.y", Role: "superuser"}

	res := ValidateIntentPermission(Operator, open)
	assert.True(t, res.Allowed)
	assert.Equal(t, Operator, res.Required)

	res = ValidateIntentPermission(Operator, guarded)
	assert.False(t, res.Allowed)
	assert.Equal(t, Admin, res.Required)

	assert.True(t, ValidateIntentPermission(Admin, guarded).Allowed)
	assert.Equal(t, Admin, RequiredRole(broken))
}
