package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectValidate_Valid(t *testing.T) {
	p := &Project{Name: "Backend", Color: "#1f77b4"}
	assert.NoError(t, p.Validate())

	p.Color = ""
	assert.NoError(t, p.Validate(), "empty color falls back to default")
}

func TestProjectValidate_EmptyName(t *testing.T) {
	p := &Project{Name: "   "}
	err := p.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "name is required")
}

func TestProjectValidate_BadColor(t *testing.T) {
	for _, c := range []string{"red", "#12345", "#gggggg", "1f77b4"} {
		p := &Project{Name: "X", Color: c}
		assert.ErrorIs(t, p.Validate(), ErrValidation, "should reject %q", c)
	}
}

func TestErrorKinds_Distinct(t *testing.T) {
	nf := NotFoundf("project %s", "p1")
	fb := Forbiddenf("project %s", "p1")

	assert.True(t, errors.Is(nf, ErrNotFound))
	assert.False(t, errors.Is(nf, ErrForbidden))
	assert.True(t, errors.Is(fb, ErrForbidden))
	assert.False(t, errors.Is(fb, ErrNotFound))
	assert.Equal(t, "not found: project p1", nf.Error())
}

func TestUserValidate(t *testing.T) {
	u := &User{Username: "alice", Role: RoleUser}
	assert.NoError(t, u.Validate())

	u.Role = "superuser"
	assert.ErrorIs(t, u.Validate(), ErrValidation)

	u = &User{Role: RoleAdmin}
	assert.ErrorIs(t, u.Validate(), ErrValidation)
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "Alice A.", (&User{Username: "alice", FullName: "Alice A."}).DisplayName())
	assert.Equal(t, "alice", (&User{Username: "alice"}).DisplayName())
}
