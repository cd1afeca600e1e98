package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/satriahrh/marcus/domain/entities"
	"github.com/satriahrh/marcus/domain/repositories"
)

const createProfileTable = `
CREATE TABLE IF NOT EXISTS business_profiles (
	id              SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
	name            TEXT NOT NULL DEFAULT '',
	phone           TEXT NOT NULL DEFAULT '',
	address         TEXT NOT NULL DEFAULT '',
	type            TEXT NOT NULL DEFAULT '',
	employees       TEXT NOT NULL DEFAULT '',
	additional_info TEXT NOT NULL DEFAULT ''
)`

// PostgresRepository stores the business profile as a single-row table
type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

var _ repositories.ProfileRepository = (*PostgresRepository)(nil)

// NewPostgresRepository connects to databaseURL and ensures the table exists
func NewPostgresRepository(ctx context.Context, databaseURL string, logger *zap.Logger) (*PostgresRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, createProfileTable); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create business_profiles table: %w", err)
	}

	logger.Info("Successfully connected to PostgreSQL")
	return &PostgresRepository{pool: pool, logger: logger}, nil
}

// Close releases the pool
func (r *PostgresRepository) Close() {
	r.pool.Close()
}

// Load implements repositories.ProfileRepository
func (r *PostgresRepository) Load(ctx context.Context) (*entities.BusinessProfile, error) {
	var p entities.BusinessProfile
	err := r.pool.QueryRow(ctx,
		`SELECT name, phone, address, type, employees, additional_info FROM business_profiles WHERE id = 1`,
	).Scan(&p.Name, &p.Phone, &p.Address, &p.Type, &p.Employees, &p.AdditionalInfo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repositories.ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to load business profile: %w", err)
	}
	return &p, nil
}

// Save implements repositories.ProfileRepository
func (r *PostgresRepository) Save(ctx context.Context, p *entities.BusinessProfile) error {
	if p == nil {
		return errors.New("profile cannot be nil")
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO business_profiles (id, name, phone, address, type, employees, additional_info)
		VALUES (1, $1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			address = EXCLUDED.address,
			type = EXCLUDED.type,
			employees = EXCLUDED.employees,
			additional_info = EXCLUDED.additional_info`,
		p.Name, p.Phone, p.Address, p.Type, p.Employees, p.AdditionalInfo,
	)
	if err != nil {
		r.logger.Error("Failed to save business profile", zap.Error(err))
		return fmt.Errorf("failed to save business profile: %w", err)
	}

	r.logger.Info("Business profile saved", zap.String("table", "business_profiles"))
	return nil
}
