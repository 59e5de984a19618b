package zonestore

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/zeropenalty/riskzone/internal/model"
)

// Pool is the subset of pgxpool.Pool the Postgres source needs. pgxmock
// satisfies it in tests.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource loads zones from a Postgres table via pgx.
type PostgresSource struct {
	pool Pool
}

// NewPostgres creates a Source reading from the zones table of the given pool.
func NewPostgres(pool Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// Name implements Source.
func (s *PostgresSource) Name() string { return "postgres" }

// Load implements Source.
func (s *PostgresSource) Load(ctx context.Context) ([]model.Zone, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, latitude, longitude, radius_m, speed_limit_kmh,
		       risk_level, penalty_multiplier, alert_strength, description
		FROM zones
		ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "zonestore: postgres query zones")
	}
	defer rows.Close()

	var zones []model.Zone
	for rows.Next() {
		var z model.Zone
		var riskLevel, alertStrength, description *string
		var multiplier *float64
		if err := rows.Scan(
			&z.ID, &z.Name, &z.Latitude, &z.Longitude, &z.RadiusM, &z.SpeedLimitKmh,
			&riskLevel, &multiplier, &alertStrength, &description,
		); err != nil {
			return nil, eris.Wrap(err, "zonestore: postgres scan zone")
		}
		if riskLevel != nil {
			z.RiskLevel = model.RiskLevel(*riskLevel)
		}
		if alertStrength != nil {
			z.AlertStrength = model.AlertStrength(*alertStrength)
		}
		if description != nil {
			z.Description = *description
		}
		if multiplier != nil {
			z.PenaltyMultiplier = *multiplier
		}
		if err := z.Validate(); err != nil {
			return nil, eris.Wrapf(ErrInvalidFormat, "postgres: %v", err)
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "zonestore: postgres iterate zones")
	}
	if zones == nil {
		zones = []model.Zone{}
	}
	return zones, nil
}
