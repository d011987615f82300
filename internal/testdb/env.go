package testdb

import (
	"os"
	"testing"

	"github.com/phrazzld/relay-api/internal/redact"
)

// Environment variables naming disposable test servers.
const (
	EnvPostgresURL = "RELAY_TEST_DATABASE_URL"
	EnvMongoURI    = "RELAY_TEST_MONGO_URI"
)

// IsIntegrationTestEnvironment returns true if any test server variable is
// set, indicating that integration tests can be run.
func IsIntegrationTestEnvironment() bool {
	return os.Getenv(EnvPostgresURL) != "" || os.Getenv(EnvMongoURI) != ""
}

// isCIEnvironment returns true if running in any type of CI environment.
func isCIEnvironment() bool {
	ciVars := []string{
		"CI",             // Generic
		"GITHUB_ACTIONS", // GitHub Actions
		"GITLAB_CI",      // GitLab CI
	}

	for _, envVar := range ciVars {
		if os.Getenv(envVar) != "" {
			return true
		}
	}

	return false
}

// PostgresURL returns the PostgreSQL test DSN or skips the test.
func PostgresURL(t *testing.T) string {
	t.Helper()
	return requireEnv(t, EnvPostgresURL, "PostgreSQL")
}

// MongoURI returns the MongoDB test URI or skips the test.
func MongoURI(t *testing.T) string {
	t.Helper()
	return requireEnv(t, EnvMongoURI, "MongoDB")
}

func requireEnv(t *testing.T, name, server string) string {
	t.Helper()

	value := os.Getenv(name)
	if value == "" {
		if isCIEnvironment() {
			t.Logf("CI run without %s; %s integration coverage is missing", name, server)
		}
		t.Skipf("%s not set; skipping %s integration test", name, server)
	}

	t.Logf("using %s test server %s", server, redact.DatabaseURL(value))
	return value
}
