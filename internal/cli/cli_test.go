package cli

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/readyresponse/dispatch/internal/auth"
	"github.com/readyresponse/dispatch/internal/config"
	"github.com/readyresponse/dispatch/internal/models"
	"github.com/readyresponse/dispatch/internal/testutil"
	"github.com/readyresponse/dispatch/internal/types"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func useTestEnv(t *testing.T) *gorm.DB {
	t.Helper()

	conn := testutil.NewDB(t)
	cfg := &config.Config{JWTSecret: "cli-test-secret", TokenTTL: time.Hour}

	previous := loadEnv
	loadEnv = func() (*Env, error) { return &Env{Config: cfg, DB: conn}, nil }
	t.Cleanup(func() { loadEnv = previous })

	return conn
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestUserCreate(t *testing.T) {
	conn := useTestEnv(t)

	out, err := run(t, UserCmd(), "create",
		"--name", "Lagos Fire Service",
		"--email", "Fire@Example.com",
		"--password", "correct-horse",
		"--role", types.RoleAgency,
		"--org", "LFS",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Created user") {
		t.Fatalf("unexpected output %q", out)
	}

	var user models.User
	if err := conn.Where("email = ?", "fire@example.com").First(&user).Error; err != nil {
		t.Fatalf("user not stored: %v", err)
	}
	if user.Role != types.RoleAgency || user.OrganizationName == nil || *user.OrganizationName != "LFS" {
		t.Fatalf("unexpected user %+v", user)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct-horse")) != nil {
		t.Fatal("password hash does not match")
	}
}

func TestUserCreateRejectsBadInput(t *testing.T) {
	useTestEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"bad role", []string{"create", "--name", "A", "--email", "a@x.io", "--password", "long-enough", "--role", "admin"}},
		{"short password", []string{"create", "--name", "A", "--email", "a@x.io", "--password", "short", "--role", types.RoleCommunity}},
		{"missing email", []string{"create", "--name", "A", "--password", "long-enough", "--role", types.RoleCommunity}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, UserCmd(), tt.args...); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestTokenIssue(t *testing.T) {
	conn := useTestEnv(t)
	user := testutil.CreateUser(t, conn, "Cy Coordinator", types.RoleCoordinator)

	out, err := run(t, TokenCmd(), "issue", "--user-id", strconv.FormatUint(uint64(user.ID), 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := auth.VerifyJWT(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != types.RoleCoordinator {
		t.Fatalf("unexpected claims %+v", claims)
	}

	if _, err := run(t, TokenCmd(), "issue", "--user-id", "999"); err == nil {
		t.Fatal("expected an error for an unknown user")
	}
	if _, err := run(t, TokenCmd(), "issue"); err == nil {
		t.Fatal("expected an error without --user-id")
	}
}

func TestMigrateUp(t *testing.T) {
	useTestEnv(t)

	out, err := run(t, MigrateCmd(), "up")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Schema is up to date") {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err := run(t, MigrateCmd(), "status"); err == nil {
		t.Fatal("status should refuse a non-postgres connection")
	}
}
