package users_test

import (
	"testing"

	lmserrors "github.com/jrsteele09/go-lms-client/internal/errors"
	"github.com/jrsteele09/go-lms-client/users"
	"github.com/stretchr/testify/require"
)

func TestUser_Validate(t *testing.T) {
	valid := users.User{ID: "u1", Username: "ada", Email: "ada@example.com", Role: users.RoleStudent}

	t.Run("valid", func(t *testing.T) {
		u := valid
		require.NoError(t, u.Validate())
	})

	t.Run("blank id", func(t *testing.T) {
		u := valid
		u.ID = "  "
		err := u.Validate()
		require.ErrorIs(t, err, lmserrors.ErrInvalidRequest)
		require.Contains(t, err.Error(), "id failed 'notblank'")
	})

	t.Run("unknown role", func(t *testing.T) {
		u := valid
		u.Role = "super_admin"
		require.ErrorIs(t, u.Validate(), lmserrors.ErrInvalidRequest)
	})

	t.Run("bad email", func(t *testing.T) {
		u := valid
		u.Email = "not-an-email"
		require.ErrorIs(t, u.Validate(), lmserrors.ErrInvalidRequest)
	})

	t.Run("bad status", func(t *testing.T) {
		u := valid
		u.Status = "deleted"
		require.Error(t, u.Validate())
	})
}

func TestUser_DashboardPath(t *testing.T) {
	require.Equal(t, "/dashboard/admin/users", (&users.User{Role: users.RoleAdmin}).DashboardPath())
	require.Equal(t, "/dashboard/instructor", (&users.User{Role: users.RoleInstructor}).DashboardPath())
	require.Equal(t, "/dashboard/student", (&users.User{Role: users.RoleStudent}).DashboardPath())
	require.Equal(t, "/dashboard", (&users.User{}).DashboardPath())
}

func TestUser_Clone(t *testing.T) {
	var nilUser *users.User
	require.Nil(t, nilUser.Clone())

	u := &users.User{ID: "u1", Role: users.RoleAdmin}
	c := u.Clone()
	c.Role = users.RoleStudent
	require.Equal(t, users.RoleAdmin, u.Role)
	require.Equal(t, "Admin", u.Role.Label())
}
