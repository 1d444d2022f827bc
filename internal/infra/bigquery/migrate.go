package bigquery

import (
	"context"
	"crypto/sha256"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
)

// SchemaFS holds the dataset's schema migrations.
//
//go:embed migrations/*.sql
var SchemaFS embed.FS

const schemaMigrationsTable = "schema_migrations"

// migrationName matches files such as 0001_create_transactions.sql.
var migrationName = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

// Migration is one versioned DDL script with its placeholders resolved.
type Migration struct {
	Version  int
	Name     string
	SQL      string
	Checksum string
}

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version   int64               `bigquery:"version"`
	Name      string              `bigquery:"name"`
	AppliedAt time.Time           `bigquery:"applied_at"`
	Checksum  bigquery.NullString `bigquery:"checksum"`
	AppliedBy bigquery.NullString `bigquery:"applied_by"`
}

// LoadMigrations reads the *.sql files under dir in fsys, sorted by version.
// {{PROJECT_ID}} and {{DATASET_ID}} are replaced with ds; the checksum is
// taken before replacement so it does not depend on the target dataset.
func LoadMigrations(fsys fs.FS, dir string, ds Dataset) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("LoadMigrations: reading %s: %w", dir, err)
	}

	seen := map[int]string{}
	var out []Migration
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := migrationName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		version, _ := strconv.Atoi(m[1])
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("LoadMigrations: version %04d used by %s and %s", version, prev, e.Name())
		}
		seen[version] = e.Name()

		content, err := fs.ReadFile(fsys, dir+"/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("LoadMigrations: reading %s: %w", e.Name(), err)
		}

		sql := strings.ReplaceAll(string(content), "{{PROJECT_ID}}", ds.ProjectID)
		sql = strings.ReplaceAll(sql, "{{DATASET_ID}}", ds.DatasetID)

		out = append(out, Migration{
			Version:  version,
			Name:     m[2],
			SQL:      sql,
			Checksum: fmt.Sprintf("%x", sha256.Sum256(content)),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Pending returns the migrations not yet applied. A recorded migration whose
// checksum differs from the file is reported as an error.
func Pending(all []Migration, applied []AppliedMigration) ([]Migration, error) {
	done := make(map[int]AppliedMigration, len(applied))
	for _, a := range applied {
		done[int(a.Version)] = a
	}

	var pending []Migration
	for _, m := range all {
		a, ok := done[m.Version]
		if !ok {
			pending = append(pending, m)
			continue
		}
		if a.Checksum.Valid && a.Checksum.StringVal != m.Checksum {
			return nil, fmt.Errorf("migration %04d_%s was modified after being applied", m.Version, m.Name)
		}
	}
	return pending, nil
}

// MigrateWithClient applies pending schema migrations to ds and returns how
// many ran.
func MigrateWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, appliedBy string, log zerolog.Logger) (int, error) {
	all, err := LoadMigrations(SchemaFS, "migrations", ds)
	if err != nil {
		return 0, err
	}

	ensure := client.Query(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version    INT64 NOT NULL,
			name       STRING NOT NULL,
			applied_at TIMESTAMP NOT NULL,
			checksum   STRING,
			applied_by STRING
		)`, ds.table(schemaMigrationsTable)))
	if _, err := runDML(ctx, ensure, "Migrate"); err != nil {
		return 0, err
	}

	applied, err := readRows[AppliedMigration](ctx,
		client.Query(fmt.Sprintf("SELECT version, name, applied_at, checksum, applied_by FROM %s ORDER BY version",
			ds.table(schemaMigrationsTable))), "Migrate")
	if err != nil && !isNotFound(err) {
		return 0, err
	}

	pending, err := Pending(all, applied)
	if err != nil {
		return 0, fmt.Errorf("Migrate: %w", err)
	}

	for _, m := range pending {
		mlog := log.With().Int("version", m.Version).Str("name", m.Name).Logger()
		mlog.Info().Msg("Applying migration")

		if _, err := runDML(ctx, client.Query(m.SQL), fmt.Sprintf("Migrate %04d_%s", m.Version, m.Name)); err != nil {
			return 0, err
		}

		record := client.Query(fmt.Sprintf(`
			INSERT INTO %s (version, name, applied_at, checksum, applied_by)
			VALUES (@version, @name, CURRENT_TIMESTAMP(), @checksum, @applied_by)`, ds.table(schemaMigrationsTable)))
		record.Parameters = []bigquery.QueryParameter{
			{Name: "version", Value: m.Version},
			{Name: "name", Value: m.Name},
			{Name: "checksum", Value: m.Checksum},
			{Name: "applied_by", Value: appliedBy},
		}
		if _, err := runDML(ctx, record, "Migrate: record"); err != nil {
			return 0, err
		}
		mlog.Info().Msg("Migration applied")
	}

	return len(pending), nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
