package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// Databases written before schema migrations were introduced carry the
// tables without bookkeeping columns and without a schema_migrations table.
// Their tables are moved aside before migrating and copied back afterwards.

const (
	legacySubsessions = "subsessions_legacy"
	legacyLapTimes    = "lap_times_legacy"
)

func tableExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		"select count(*) from sqlite_master where type='table' and name=?", name).
		Scan(&n)
	return n > 0, err
}

func columnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		"select count(*) from pragma_table_info(?) where name=?", table, column).
		Scan(&n)
	return n > 0, err
}

// isLegacy reports whether db holds the unversioned schema.
func isLegacy(ctx context.Context, db *sql.DB) (bool, error) {
	versioned, err := tableExists(ctx, db, "schema_migrations")
	if err != nil || versioned {
		return false, err
	}
	found, err := tableExists(ctx, db, "subsessions")
	if err != nil || !found {
		return false, err
	}
	hasUpdated, err := columnExists(ctx, db, "subsessions", "updated_at")
	return !hasUpdated, err
}

// moveLegacyTables renames the unversioned tables so the migrations can
// create the current ones.
func moveLegacyTables(ctx context.Context, db *sql.DB) (hasLaps bool, err error) {
	hasLaps, err = tableExists(ctx, db, "lap_times")
	if err != nil {
		return false, err
	}
	stmts := []string{"alter table subsessions rename to " + legacySubsessions}
	if hasLaps {
		stmts = append(stmts, "alter table lap_times rename to "+legacyLapTimes)
	}
	return hasLaps, execAll(ctx, db, stmts)
}

// restoreLegacyData copies the rows of the renamed tables into the migrated
// ones. created_at (CURRENT_TIMESTAMP text) is converted to unix millis.
func restoreLegacyData(ctx context.Context, db *sql.DB, hasLaps bool) error {
	const millis = "coalesce(cast(strftime('%s', created_at) as integer) * 1000, 0)"
	stmts := []string{
		`insert into subsessions (subsession_id, session_name, track_name,
			start_time, data_json, created_at, updated_at)
		select subsession_id, session_name, track_name, start_time,
			coalesce(data_json, '{}'), ` + millis + `, ` + millis + `
		from ` + legacySubsessions,
	}
	if hasLaps {
		stmts = append(stmts,
			`insert into lap_times (subsession_id, driver_id, driver_name,
				lap_number, lap_time, lap_flags, created_at)
			select subsession_id, driver_id, driver_name, lap_number, lap_time,
				lap_flags, `+millis+`
			from `+legacyLapTimes+`
			where subsession_id in (select subsession_id from subsessions)
			order by id`,
			"drop table "+legacyLapTimes)
	}
	stmts = append(stmts, "drop table "+legacySubsessions)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("restore legacy data: %w", err)
		}
	}
	return tx.Commit()
}

func execAll(ctx context.Context, db *sql.DB, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	return nil
}
