package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// TxBuilder combines statements into a single BEGIN/COMMIT TRANSACTION
// query. Variables are renamed per statement ($email -> $v1_email) so
// statements written independently can share variable names.
type TxBuilder struct {
	statements []string
	vars       map[string]interface{}
	counter    int
}

// NewTxBuilder creates an empty transaction builder
func NewTxBuilder() *TxBuilder {
	return &TxBuilder{vars: make(map[string]interface{})}
}

// Add appends a statement and its variables
func (tb *TxBuilder) Add(query string, vars map[string]interface{}) {
	tb.counter++

	// Longest names first so $user does not rewrite part of $user_id.
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	pairs := make([]string, 0, len(names)*2)
	for _, name := range names {
		renamed := fmt.Sprintf("v%d_%s", tb.counter, name)
		pairs = append(pairs, "$"+name, "$"+renamed)
		tb.vars[renamed] = vars[name]
	}
	tb.statements = append(tb.statements, strings.NewReplacer(pairs...).Replace(query))
}

// Len returns the number of statements added
func (tb *TxBuilder) Len() int {
	return len(tb.statements)
}

// Build returns the transaction query and its merged variables
func (tb *TxBuilder) Build() (string, map[string]interface{}) {
	if len(tb.statements) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("BEGIN TRANSACTION;\n")
	for _, stmt := range tb.statements {
		stmt = strings.TrimSpace(stmt)
		sb.WriteString(stmt)
		if !strings.HasSuffix(stmt, ";") {
			sb.WriteString(";")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("COMMIT TRANSACTION;")
	return sb.String(), tb.vars
}

// ExecuteTx runs the built transaction. Either every statement applies or none does.
func ExecuteTx(ctx context.Context, db Database, tb *TxBuilder) error {
	query, vars := tb.Build()
	if query == "" {
		return nil
	}
	return db.Execute(ctx, query, vars)
}
