package cli_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jrsteele09/go-lms-client/internal/cli"
	"github.com/jrsteele09/go-lms-client/server"
	"github.com/stretchr/testify/require"
)

// setupEnv points the CLI at a fresh data folder with a file store.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("LMS_STORE", "file")
	t.Setenv("LMS_DATA_FOLDER", dir)
	t.Setenv("LMS_STORE_KEY", "")
	t.Setenv("LMS_LOG_LEVEL", "off")
	t.Setenv("LMS_API_BASE_URL", "http://lms.test")
	return filepath.Join(dir, "none.env")
}

// run executes one CLI invocation against the fake backend.
func run(t *testing.T, envFile, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmd(envFile)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--fake"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestLoginStatusLogout(t *testing.T) {
	env := setupEnv(t)

	out, err := run(t, env, "", "login", "--track", "dashboard", "--email", server.DemoAdminEmail, "--password", server.DemoPassword)
	require.NoError(t, err)
	require.Contains(t, out, "Signed in to dashboard as admin@asto.local (Admin)")

	out, err = run(t, env, "", "status", "--all")
	require.NoError(t, err)
	require.Contains(t, out, "Track: dashboard\n  Signed in: yes")
	require.Contains(t, out, "Console:   /dashboard/admin/users")
	require.Contains(t, out, "Access:    expires in")
	require.Contains(t, out, "Refresh:   stored")
	require.Contains(t, out, "Track: public\n  Signed in: no")

	out, err = run(t, env, "", "verify", "--track", "dashboard")
	require.NoError(t, err)
	require.Contains(t, out, "Session on dashboard is valid for admin@asto.local")

	out, err = run(t, env, "", "refresh", "--track", "dashboard")
	require.NoError(t, err)
	require.Contains(t, out, "refreshed")

	out, err = run(t, env, "", "logout", "--track", "dashboard")
	require.NoError(t, err)
	require.Contains(t, out, "Signed out of dashboard")

	out, err = run(t, env, "", "status", "--track", "dashboard")
	require.NoError(t, err)
	require.Contains(t, out, "Signed in: no")
}

func TestLogin_PromptsForMissingFlags(t *testing.T) {
	env := setupEnv(t)

	out, err := run(t, env, server.DemoPassword+"\n", "login", "--email", server.DemoStudentEmail)
	require.NoError(t, err)
	require.Contains(t, out, "Signed in to public as student@asto.local (Student)")
}

func TestLogin_ReadsAllCredentialsFromStdin(t *testing.T) {
	env := setupEnv(t)

	out, err := run(t, env, server.DemoAdminEmail+"\n"+server.DemoPassword+"\n", "login", "--track", "dashboard")
	require.NoError(t, err)
	require.Contains(t, out, "Signed in to dashboard as admin@asto.local (Admin)")
}

func TestRegister_ReadsAllFieldsFromStdin(t *testing.T) {
	env := setupEnv(t)

	out, err := run(t, env, "typed@asto.local\ntyped\nTyped@1234\n", "register")
	require.NoError(t, err)
	require.Contains(t, out, "Registered and signed in to public as typed@asto.local")
}

func TestLogin_ShowsBackendMessage(t *testing.T) {
	env := setupEnv(t)

	_, err := run(t, env, "", "login", "--email", server.DemoStudentEmail, "--password", "WrongPass1")
	require.EqualError(t, err, "invalid password")
}

func TestVerify_WithoutSession(t *testing.T) {
	env := setupEnv(t)

	_, err := run(t, env, "", "verify")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no session")
}

func TestUnknownTrack(t *testing.T) {
	env := setupEnv(t)

	_, err := run(t, env, "", "status", "--track", "backstage")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown track")
}

func TestCoursesAndEnrollments(t *testing.T) {
	env := setupEnv(t)

	out, err := run(t, env, "", "courses")
	require.NoError(t, err)
	require.Contains(t, out, "Go for Backend Engineers")
	require.Contains(t, out, "2 of 2 courses")

	_, err = run(t, env, "", "enrollments")
	require.Error(t, err)

	_, err = run(t, env, "", "login", "--email", server.DemoStudentEmail, "--password", server.DemoPassword)
	require.NoError(t, err)
	out, err = run(t, env, "", "enrollments")
	require.NoError(t, err)
	require.Contains(t, out, "Go Spring Cohort")
	require.Contains(t, out, "approved")

	// Students cannot list everyone's enrollments.
	_, err = run(t, env, "", "enrollments", "--all")
	require.Error(t, err)
}

func TestRegister(t *testing.T) {
	env := setupEnv(t)

	out, err := run(t, env, "", "register", "--email", "fresh@asto.local", "--username", "fresh", "--password", "Fresh@1234")
	require.NoError(t, err)
	require.Contains(t, out, "Registered and signed in to public as fresh@asto.local")
}

func TestRootShowsBannerAndHelp(t *testing.T) {
	env := setupEnv(t)

	out, err := run(t, env, "")
	require.NoError(t, err)
	require.Contains(t, out, "Usage:")
	require.Contains(t, out, "login")
}
