package fixtures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixturesAreValid(t *testing.T) {
	require.NoError(t, Validate())
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{input: "operator", want: RoleOperator},
		{input: "admin", want: RoleAdmin},
		{input: "viewer", want: RoleViewer},
		{input: "root", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookups(t *testing.T) {
	u, ok := UserByID(MainOperatorID)
	require.True(t, ok)
	assert.Equal(t, RoleOperator, u.Role)
	assert.True(t, u.IsActive)

	_, ok = UserByID("nobody")
	assert.False(t, ok)

	c, ok := ClientByID(AcmeClientID)
	require.True(t, ok)
	assert.Equal(t, "Acme Corporation", c.CompanyName)

	assert.Len(t, AgreementsForClient(AcmeClientID), 2)
	assert.Empty(t, AgreementsForClient("missing"))
}

func TestFixturesAreFreshCopies(t *testing.T) {
	users := Users()
	users[0].Permissions[0] = "tampered"
	assert.NotEqual(t, "tampered", Users()[0].Permissions[0])
}
