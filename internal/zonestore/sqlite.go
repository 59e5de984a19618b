package zonestore

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/zeropenalty/riskzone/internal/model"
)

// SQLiteSource loads zones from a local SQLite database.
type SQLiteSource struct {
	db  *sql.DB
	dsn string
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "zonestore: sqlite open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "zonestore: sqlite exec %s", pragma)
		}
	}
	return &SQLiteSource{db: db, dsn: dsn}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS zones (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	latitude           REAL NOT NULL,
	longitude          REAL NOT NULL,
	radius_m           REAL NOT NULL,
	speed_limit_kmh    INTEGER NOT NULL,
	risk_level         TEXT,
	penalty_multiplier REAL,
	alert_strength     TEXT,
	description        TEXT,
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// Migrate creates the zones table if it does not exist.
func (s *SQLiteSource) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "zonestore: sqlite migrate")
}

// Close releases the underlying database handle.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

// Name implements Source.
func (s *SQLiteSource) Name() string { return "sqlite:" + s.dsn }

// Load implements Source. Every record must pass zone validation; a single
// bad record fails the whole load so a partial snapshot can never go live.
func (s *SQLiteSource) Load(ctx context.Context) ([]model.Zone, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, latitude, longitude, radius_m, speed_limit_kmh,
		       risk_level, penalty_multiplier, alert_strength, description
		FROM zones
		ORDER BY rowid`)
	if err != nil {
		return nil, eris.Wrap(err, "zonestore: sqlite query zones")
	}
	defer rows.Close() //nolint:errcheck

	var zones []model.Zone
	for rows.Next() {
		var z model.Zone
		var riskLevel, alertStrength, description sql.NullString
		var multiplier sql.NullFloat64
		if err := rows.Scan(
			&z.ID, &z.Name, &z.Latitude, &z.Longitude, &z.RadiusM, &z.SpeedLimitKmh,
			&riskLevel, &multiplier, &alertStrength, &description,
		); err != nil {
			return nil, eris.Wrap(err, "zonestore: sqlite scan zone")
		}
		z.RiskLevel = model.RiskLevel(riskLevel.String)
		z.AlertStrength = model.AlertStrength(alertStrength.String)
		z.Description = description.String
		if multiplier.Valid {
			z.PenaltyMultiplier = multiplier.Float64
		}
		if err := z.Validate(); err != nil {
			return nil, eris.Wrapf(ErrInvalidFormat, "sqlite: %v", err)
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "zonestore: sqlite iterate zones")
	}
	if zones == nil {
		zones = []model.Zone{}
	}
	return zones, nil
}

// Import upserts zone records into the database. Used by the zones import
// command to seed a SQLite source from a JSON document.
func (s *SQLiteSource) Import(ctx context.Context, zones []model.Zone) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "zonestore: sqlite begin import")
	}
	defer tx.Rollback() //nolint:errcheck

	for i := range zones {
		z := &zones[i]
		if err := z.Validate(); err != nil {
			return 0, eris.Wrapf(ErrInvalidFormat, "import: %v", err)
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO zones (id, name, latitude, longitude, radius_m, speed_limit_kmh,
			                   risk_level, penalty_multiplier, alert_strength, description, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name,
				latitude = excluded.latitude,
				longitude = excluded.longitude,
				radius_m = excluded.radius_m,
				speed_limit_kmh = excluded.speed_limit_kmh,
				risk_level = excluded.risk_level,
				penalty_multiplier = excluded.penalty_multiplier,
				alert_strength = excluded.alert_strength,
				description = excluded.description,
				updated_at = datetime('now')`,
			z.ID, z.Name, z.Latitude, z.Longitude, z.RadiusM, z.SpeedLimitKmh,
			string(z.RiskLevel), z.PenaltyMultiplier, string(z.AlertStrength), z.Description,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "zonestore: sqlite import zone %s", z.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "zonestore: sqlite commit import")
	}
	return len(zones), nil
}
