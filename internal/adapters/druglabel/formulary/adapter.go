// Package formulary implements druglabel.Adapter against a legacy hospital
// formulary database running on SQL Server.
package formulary

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver

	"github.com/clinsafe/platform/internal/adapters/druglabel"
	"github.com/clinsafe/platform/internal/shared/config"
	"github.com/clinsafe/platform/internal/shared/errors"
)

// Adapter reads label data from the formulary table.
type Adapter struct {
	db     *sql.DB
	config config.FormularyConfig
}

// New opens the formulary database connection.
func New(cfg config.FormularyConfig) (*Adapter, error) {
	db, err := sql.Open("sqlserver", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open formulary database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	return &Adapter{db: db, config: cfg}, nil
}

// Ping verifies the connection.
func (a *Adapter) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// Close closes the database connection.
func (a *Adapter) Close() error {
	return a.db.Close()
}

// LookupDrugLabel queries the formulary by brand or generic name.
func (a *Adapter) LookupDrugLabel(ctx context.Context, name string) (*druglabel.Label, error) {
	query := fmt.Sprintf(`
		SELECT TOP 1 BrandName, GenericName, Indications, DosageText, Contraindications, Warnings, BoxedWarning
		FROM %s
		WHERE LOWER(BrandName) = @name OR LOWER(GenericName) = @name
	`, a.config.DrugTable)

	row := a.db.QueryRowContext(ctx, query, sql.Named("name", strings.ToLower(name)))

	var (
		label             druglabel.Label
		indications       sql.NullString
		contraindications sql.NullString
		warnings          sql.NullString
		boxed             sql.NullString
		dosage            sql.NullString
	)
	err := row.Scan(&label.BrandName, &label.GenericName, &indications, &dosage, &contraindications, &warnings, &boxed)
	if err == sql.ErrNoRows {
		return nil, druglabel.ErrNotFound
	}
	if err != nil {
		return nil, errors.DependencyUnavailable("formulary database", err)
	}

	label.Indications = splitSections(indications.String)
	label.DosageAndAdministration = dosage.String
	label.Contraindications = splitSections(contraindications.String)
	label.Warnings = splitSections(warnings.String)
	label.BoxedWarning = boxed.String

	return &label, nil
}

// splitSections splits a semicolon-delimited legacy text field.
func splitSections(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
