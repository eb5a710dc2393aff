package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitStatements(t *testing.T) {
	stmts := SplitStatements(Schema)
	assert.Len(t, stmts, 6) // users, refresh_tokens, customers, vehicles, rentals, maintenance_records
	for _, s := range stmts {
		assert.True(t, strings.HasPrefix(s, "CREATE TABLE IF NOT EXISTS"))
		assert.NotContains(t, s, ";")
	}
}

func TestSplitStatementsDropsBlanks(t *testing.T) {
	got := SplitStatements("  ;; SELECT 1 ; \n;")
	assert.Equal(t, []string{"SELECT 1"}, got)
}

func TestDSN(t *testing.T) {
	assert.Equal(t,
		"fleet:pw@tcp(db:3306)/fleett?charset=utf8mb4&parseTime=true&loc=UTC",
		DSN("fleet", "pw", "db", "3306", "fleett"))
	// Empty password omits the colon form.
	assert.Equal(t,
		"fleet@tcp(db:3306)/fleett?charset=utf8mb4&parseTime=true&loc=UTC",
		DSN("fleet", "", "db", "3306", "fleett"))
}
