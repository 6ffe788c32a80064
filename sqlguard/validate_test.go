package sqlguard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateVerdicts(t *testing.T) {
	tests := []struct {
		name  string
		sql   string
		valid bool
	}{
		{"wildcard projection", "SELECT * FROM t", false},
		{"ddl statement", "DROP TABLE t", false},
		{"plain select", "SELECT id FROM t LIMIT 10;", true},
		{"stacked statements", "SELECT id FROM t; DROP TABLE t;", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.sql, nil)
			require.Equal(t, tt.valid, result.Valid)
			if !tt.valid {
				require.NotEmpty(t, result.Errors)
			}
		})
	}
}

func TestValidateEmptyAndSentinel(t *testing.T) {
	for _, sql := range []string{"", "   ", "-- error: drafting failed: context deadline exceeded"} {
		result := Validate(sql, nil)
		require.False(t, result.Valid)
		require.Equal(t, []string{"empty or error SQL"}, result.Errors)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	// Non-SELECT, DDL keyword, and wildcard all reported at once.
	result := Validate("UPDATE t SET x = (SELECT * FROM u); DELETE FROM t;", nil)
	require.False(t, result.Valid)
	require.GreaterOrEqual(t, len(result.Errors), 3)
}

func TestValidateLimitWarning(t *testing.T) {
	result := Validate("SELECT id FROM t", nil)
	require.True(t, result.Valid)
	require.Contains(t, result.Warnings, "no LIMIT clause found")

	result = Validate("SELECT id FROM t LIMIT 10;", nil)
	require.Empty(t, result.Warnings)
}

func TestValidateHavingMisuse(t *testing.T) {
	t.Run("row filter left in having", func(t *testing.T) {
		sql := "SELECT region, SUM(amount) FROM t GROUP BY region " +
			"HAVING SUM(amount) > 10 OR risk_level = 'high' LIMIT 10;"
		result := Validate(sql, nil)
		require.False(t, result.Valid)
		require.Contains(t, result.Errors[0], "risk_level")
	})

	t.Run("aggregate-only having passes", func(t *testing.T) {
		sql := "SELECT region, SUM(amount) FROM t GROUP BY region " +
			"HAVING SUM(amount) > 10 LIMIT 10;"
		require.True(t, Validate(sql, nil).Valid)
	})

	t.Run("grouped column allowed in having", func(t *testing.T) {
		sql := "SELECT status, COUNT(id) FROM t GROUP BY status " +
			"HAVING status = 'active' AND COUNT(id) > 2 LIMIT 10;"
		require.True(t, Validate(sql, nil).Valid)
	})
}

func TestValidateUnknownTableWarnings(t *testing.T) {
	known := []string{"hr_casino.employees", "finance_casino.transactions"}

	t.Run("known tables clean", func(t *testing.T) {
		sql := "SELECT e.employee_id FROM hr_casino.employees e " +
			"JOIN finance_casino.transactions t ON e.employee_id = t.customer_id LIMIT 10;"
		result := Validate(sql, known)
		require.True(t, result.Valid)
		require.Empty(t, result.Warnings)
	})

	t.Run("bare table name accepted", func(t *testing.T) {
		result := Validate("SELECT employee_id FROM employees LIMIT 10;", known)
		require.True(t, result.Valid)
		require.Empty(t, result.Warnings)
	})

	t.Run("unknown table warns but stays valid", func(t *testing.T) {
		result := Validate("SELECT id FROM mystery_table LIMIT 10;", known)
		require.True(t, result.Valid)
		require.Contains(t, result.Warnings, "unknown table reference: mystery_table")
	})
}
