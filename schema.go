package sqlpilot

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Table describes one analytical table: fully qualified name, ordered
// column list, column types, and a one-line description.
type Table struct {
	Name        string            `json:"name"`
	Columns     []string          `json:"columns"`
	ColumnTypes map[string]string `json:"column_types"`
	Description string            `json:"description"`
}

// Snapshot is the read-only table mapping loaded once per process
// lifetime. It is never mutated after load, so unsynchronized concurrent
// reads are safe.
type Snapshot map[string]Table

// SchemaProvider loads the snapshot at startup. A failed load is never
// fatal; callers fall back to the static catalog.
type SchemaProvider interface {
	Load(ctx context.Context) (Snapshot, error)
}

// TableNames returns the fully qualified table names in sorted order.
func (s Snapshot) TableNames() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Subset returns the snapshot restricted to the named tables. Unknown
// names are ignored; an empty selection returns the full snapshot so the
// drafting prompt never goes out schemaless.
func (s Snapshot) Subset(names []string) Snapshot {
	out := make(Snapshot)
	for _, name := range names {
		if t, ok := s[name]; ok {
			out[name] = t
		}
	}
	if len(out) == 0 {
		return s
	}
	return out
}

// FormatForPrompt renders the snapshot compactly for inclusion in a
// drafting prompt.
func (s Snapshot) FormatForPrompt() string {
	var b strings.Builder
	for _, name := range s.TableNames() {
		t := s[name]
		b.WriteString(fmt.Sprintf("- %s: %s\n", name, t.Description))
		for _, col := range t.Columns {
			b.WriteString(fmt.Sprintf("    %s (%s)\n", col, t.ColumnTypes[col]))
		}
	}
	return b.String()
}

// StaticCatalog is the built-in casino analytics schema, used whenever a
// live schema provider is absent or fails at startup.
func StaticCatalog() Snapshot {
	return Snapshot{
		"hr_casino.employees": {
			Name:        "hr_casino.employees",
			Description: "casino staff records",
			Columns:     []string{"employee_id", "first_name", "last_name", "department", "position", "hire_date", "salary", "is_active"},
			ColumnTypes: map[string]string{
				"employee_id": "INTEGER", "first_name": "VARCHAR", "last_name": "VARCHAR",
				"department": "VARCHAR", "position": "VARCHAR", "hire_date": "DATE",
				"salary": "DECIMAL", "is_active": "INTEGER",
			},
		},
		"marketing_casino.customer": {
			Name:        "marketing_casino.customer",
			Description: "customer demographics",
			Columns:     []string{"customer_id", "customer_name", "gender", "age", "region", "marital_status", "employment_status", "education_level", "registration_date", "risk_score"},
			ColumnTypes: map[string]string{
				"customer_id": "TEXT", "customer_name": "VARCHAR", "gender": "TEXT",
				"age": "REAL", "region": "TEXT", "marital_status": "TEXT",
				"employment_status": "TEXT", "education_level": "TEXT",
				"registration_date": "TIMESTAMP", "risk_score": "BIGINT",
			},
		},
		"marketing_casino.customer_behaviors": {
			Name:        "marketing_casino.customer_behaviors",
			Description: "gambling behavior and risk profile per customer",
			Columns:     []string{"behavior_id", "customer_id", "ever_bet_money", "offline_gambling_participation", "online_gambling_participation", "monthly_gambling_expenditure_offline", "monthly_gambling_expenditure_online", "problem_gambling_score", "risk_level"},
			ColumnTypes: map[string]string{
				"behavior_id": "BIGINT", "customer_id": "TEXT", "ever_bet_money": "BIGINT",
				"offline_gambling_participation": "BIGINT", "online_gambling_participation": "BIGINT",
				"monthly_gambling_expenditure_offline": "REAL", "monthly_gambling_expenditure_online": "REAL",
				"problem_gambling_score": "REAL", "risk_level": "TEXT",
			},
		},
		"finance_casino.transactions": {
			Name:        "finance_casino.transactions",
			Description: "financial transactions; transaction_amount is TEXT and must be cast before math",
			Columns:     []string{"transaction_id", "customer_id", "req_time_utc", "transaction_type", "transaction_amount", "status", "direction"},
			ColumnTypes: map[string]string{
				"transaction_id": "INTEGER", "customer_id": "VARCHAR", "req_time_utc": "TIMESTAMP",
				"transaction_type": "VARCHAR", "transaction_amount": "TEXT",
				"status": "VARCHAR", "direction": "VARCHAR",
			},
		},
		"operations_casino.game_sessions": {
			Name:        "operations_casino.game_sessions",
			Description: "per-session play totals; net_result negative means loss",
			Columns:     []string{"session_id", "game_id", "customer_id", "session_start_time", "total_bets", "total_wins", "net_result", "session_duration_minutes"},
			ColumnTypes: map[string]string{
				"session_id": "INTEGER", "game_id": "INTEGER", "customer_id": "VARCHAR",
				"session_start_time": "TIMESTAMP", "total_bets": "DECIMAL", "total_wins": "DECIMAL",
				"net_result": "DECIMAL", "session_duration_minutes": "INTEGER",
			},
		},
		"operations_casino.gaming_equipment": {
			Name:        "operations_casino.gaming_equipment",
			Description: "tables, machines and terminals on the floor",
			Columns:     []string{"equipment_id", "equipment_name", "equipment_type", "status", "hourly_revenue"},
			ColumnTypes: map[string]string{
				"equipment_id": "INTEGER", "equipment_name": "VARCHAR",
				"equipment_type": "VARCHAR", "status": "VARCHAR", "hourly_revenue": "DECIMAL",
			},
		},
		"operations_casino.shifts": {
			Name:        "operations_casino.shifts",
			Description: "employee shifts with revenue totals",
			Columns:     []string{"shift_id", "employee_id", "equipment_id", "shift_start", "total_revenue", "total_transactions"},
			ColumnTypes: map[string]string{
				"shift_id": "INTEGER", "employee_id": "INTEGER", "equipment_id": "INTEGER",
				"shift_start": "TIMESTAMP", "total_revenue": "DECIMAL", "total_transactions": "INTEGER",
			},
		},
	}
}

// LoadSchema loads a snapshot from the provider, falling back to the
// static catalog when the provider is nil or fails.
func LoadSchema(ctx context.Context, provider SchemaProvider) Snapshot {
	if provider == nil {
		return StaticCatalog()
	}
	snapshot, err := provider.Load(ctx)
	if err != nil || len(snapshot) == 0 {
		return StaticCatalog()
	}
	return snapshot
}
