package e2e

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/you/chainguard/internal/app"
	"github.com/you/chainguard/internal/config"
	"github.com/you/chainguard/internal/infrastructure/repositories"
)

// TestSuite holds the E2E test infrastructure
type TestSuite struct {
	Container *app.Container
	Server    *httptest.Server
	Prefix    string
}

// setupSuite boots the directory driver against the Postgres and Redis named
// by DATABASE_DSN and REDIS_ADDR (optionally from .env.test). Without them
// the E2E tests are skipped.
func setupSuite(t *testing.T) *TestSuite {
	t.Helper()

	if err := godotenv.Load(".env.test"); err != nil {
		t.Logf("no .env.test: %v", err)
	}
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		t.Skip("DATABASE_DSN not set; skipping E2E tests")
	}

	cfg := &config.Config{
		Port:              "0",
		GinMode:           gin.TestMode,
		CredentialsDriver: config.DriverDirectory,
		OTP_TTL:           5 * time.Minute,
		OTP_Length:        6,
		OTP_Tick:          time.Second,
		DBDriver:          "postgres",
		DSN:               dsn,
		RedisAddr:         envOr("REDIS_ADDR", "localhost:6379"),
		RedisDB:           1,
		BcryptCost:        bcrypt.MinCost,
	}
	gin.SetMode(gin.TestMode)

	c, err := app.NewContainer(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to build container: %v", err)
	}
	if err := c.Flow.Boot(); err != nil {
		t.Fatalf("boot: %v", err)
	}

	s := &TestSuite{
		Container: c,
		Server:    httptest.NewServer(app.Handler(c)),
		Prefix:    fmt.Sprintf("e2e_%d", time.Now().UnixNano()),
	}
	t.Cleanup(func() { s.TearDown(t) })
	return s
}

// Email returns a per-run unique address
func (s *TestSuite) Email(local string) string {
	return fmt.Sprintf("%s+%s@example.com", local, s.Prefix)
}

// TearDown removes rows created by this run and closes connections
func (s *TestSuite) TearDown(t *testing.T) {
	s.Server.Close()
	if s.Container.DB != nil {
		err := s.Container.DB.Where("email LIKE ?", "%+"+s.Prefix+"@example.com").
			Delete(&repositories.DBUser{}).Error
		if err != nil {
			t.Logf("cleanup failed: %v", err)
		}
	}
	s.Container.Close()
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
