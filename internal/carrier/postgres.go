package carrier

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"shippingcalc/internal/rate"
)

// PGStore persists carrier configuration in Postgres.
type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Carriers implements Directory: carriers by name, countries and bands in insertion order.
func (s *PGStore) Carriers(ctx context.Context) ([]rate.Carrier, error) {
	return s.load(ctx, nil)
}

func (s *PGStore) GetCarrier(ctx context.Context, id string) (rate.Carrier, error) {
	if _, err := uuid.Parse(id); err != nil {
		return rate.Carrier{}, notFound("carrier", id)
	}
	carriers, err := s.load(ctx, &id)
	if err != nil {
		return rate.Carrier{}, err
	}
	if len(carriers) == 0 {
		return rate.Carrier{}, notFound("carrier", id)
	}
	return carriers[0], nil
}

// load reads carriers with their nested rates; a nil id loads every carrier.
func (s *PGStore) load(ctx context.Context, id *string) ([]rate.Carrier, error) {
	rows, err := s.db.Query(ctx, `
        SELECT id::text, name, max_weight_kg, base_cost_cents, cost_per_kg_cents
        FROM carriers
        WHERE $1::uuid IS NULL OR id = $1::uuid
        ORDER BY name ASC, id ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("query carriers: %w", err)
	}
	carriers := []rate.Carrier{}
	index := map[string]int{}
	for rows.Next() {
		var c rate.Carrier
		if err := rows.Scan(&c.ID, &c.Name, &c.MaxWeightKg, &c.BaseCostCents, &c.CostPerKgCents); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan carrier: %w", err)
		}
		c.Countries = []rate.CountryRate{}
		index[c.ID] = len(carriers)
		carriers = append(carriers, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query carriers: %w", err)
	}
	if len(carriers) == 0 {
		return carriers, nil
	}

	rows, err = s.db.Query(ctx, `
        SELECT id::text, carrier_id::text, country_code, delivery_time
        FROM carrier_countries
        WHERE $1::uuid IS NULL OR carrier_id = $1::uuid
        ORDER BY position ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("query country rates: %w", err)
	}
	type countryRef struct{ carrier, country int }
	countries := map[string]countryRef{}
	for rows.Next() {
		var (
			cr        rate.CountryRate
			carrierID string
		)
		if err := rows.Scan(&cr.ID, &carrierID, &cr.CountryCode, &cr.DeliveryTime); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan country rate: %w", err)
		}
		ci, ok := index[carrierID]
		if !ok {
			continue
		}
		cr.WeightRates = []rate.WeightRate{}
		countries[cr.ID] = countryRef{carrier: ci, country: len(carriers[ci].Countries)}
		carriers[ci].Countries = append(carriers[ci].Countries, cr)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query country rates: %w", err)
	}

	rows, err = s.db.Query(ctx, `
        SELECT w.id::text, w.country_id::text, w.min_weight_kg, w.max_weight_kg, w.price_cents
        FROM carrier_weight_rates w
        JOIN carrier_countries c ON c.id = w.country_id
        WHERE $1::uuid IS NULL OR c.carrier_id = $1::uuid
        ORDER BY w.position ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("query weight rates: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			w         rate.WeightRate
			countryID string
		)
		if err := rows.Scan(&w.ID, &countryID, &w.MinWeightKg, &w.MaxWeightKg, &w.PriceCents); err != nil {
			return nil, fmt.Errorf("scan weight rate: %w", err)
		}
		ref, ok := countries[countryID]
		if !ok {
			continue
		}
		cr := &carriers[ref.carrier].Countries[ref.country]
		cr.WeightRates = append(cr.WeightRates, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query weight rates: %w", err)
	}
	return carriers, nil
}

func (s *PGStore) CreateCarrier(ctx context.Context, in CarrierInput) (rate.Carrier, error) {
	if err := in.Validate(); err != nil {
		return rate.Carrier{}, err
	}
	c := rate.Carrier{
		ID:             uuid.New().String(),
		Name:           in.Name,
		MaxWeightKg:    in.MaxWeightKg,
		BaseCostCents:  in.BaseCostCents,
		CostPerKgCents: in.CostPerKgCents,
		Countries:      []rate.CountryRate{},
	}
	_, err := s.db.Exec(ctx, `
        INSERT INTO carriers (id, name, max_weight_kg, base_cost_cents, cost_per_kg_cents)
        VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Name, c.MaxWeightKg, c.BaseCostCents, c.CostPerKgCents)
	if err != nil {
		return rate.Carrier{}, fmt.Errorf("insert carrier: %w", err)
	}
	return c, nil
}

func (s *PGStore) UpdateCarrier(ctx context.Context, id string, in CarrierInput) (rate.Carrier, error) {
	if err := in.Validate(); err != nil {
		return rate.Carrier{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return rate.Carrier{}, notFound("carrier", id)
	}
	tag, err := s.db.Exec(ctx, `
        UPDATE carriers
        SET name = $2, max_weight_kg = $3, base_cost_cents = $4, cost_per_kg_cents = $5, updated_at = now()
        WHERE id = $1`,
		id, in.Name, in.MaxWeightKg, in.BaseCostCents, in.CostPerKgCents)
	if err != nil {
		return rate.Carrier{}, fmt.Errorf("update carrier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return rate.Carrier{}, notFound("carrier", id)
	}
	return s.GetCarrier(ctx, id)
}

func (s *PGStore) DeleteCarrier(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return notFound("carrier", id)
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM carriers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete carrier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("carrier", id)
	}
	return nil
}

func (s *PGStore) AddCountryRate(ctx context.Context, carrierID string, in CountryRateInput) (rate.CountryRate, error) {
	if err := in.Validate(); err != nil {
		return rate.CountryRate{}, err
	}
	if _, err := uuid.Parse(carrierID); err != nil {
		return rate.CountryRate{}, notFound("carrier", carrierID)
	}
	cr := rate.CountryRate{
		ID:           uuid.New().String(),
		CountryCode:  in.CountryCode,
		DeliveryTime: in.DeliveryTime,
		WeightRates:  []rate.WeightRate{},
	}
	_, err := s.db.Exec(ctx, `
        INSERT INTO carrier_countries (id, carrier_id, country_code, delivery_time)
        VALUES ($1, $2, $3, $4)`,
		cr.ID, carrierID, cr.CountryCode, cr.DeliveryTime)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // unique_violation
				return rate.CountryRate{}, duplicateCountry(cr.CountryCode)
			case "23503": // foreign_key_violation
				return rate.CountryRate{}, notFound("carrier", carrierID)
			}
		}
		return rate.CountryRate{}, fmt.Errorf("insert country rate: %w", err)
	}
	return cr, nil
}

func (s *PGStore) UpdateCountryRate(ctx context.Context, carrierID, countryID string, in CountryRateInput) (rate.CountryRate, error) {
	if err := in.Validate(); err != nil {
		return rate.CountryRate{}, err
	}
	if !validIDs(carrierID, countryID) {
		return rate.CountryRate{}, notFound("country rate", countryID)
	}
	tag, err := s.db.Exec(ctx, `
        UPDATE carrier_countries SET country_code = $3, delivery_time = $4
        WHERE id = $1 AND carrier_id = $2`,
		countryID, carrierID, in.CountryCode, in.DeliveryTime)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return rate.CountryRate{}, duplicateCountry(in.CountryCode)
		}
		return rate.CountryRate{}, fmt.Errorf("update country rate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return rate.CountryRate{}, notFound("country rate", countryID)
	}
	c, err := s.GetCarrier(ctx, carrierID)
	if err != nil {
		return rate.CountryRate{}, err
	}
	for _, cr := range c.Countries {
		if cr.ID == countryID {
			return cr, nil
		}
	}
	return rate.CountryRate{}, notFound("country rate", countryID)
}

func (s *PGStore) DeleteCountryRate(ctx context.Context, carrierID, countryID string) error {
	if !validIDs(carrierID, countryID) {
		return notFound("country rate", countryID)
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM carrier_countries WHERE id = $1 AND carrier_id = $2`, countryID, carrierID)
	if err != nil {
		return fmt.Errorf("delete country rate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("country rate", countryID)
	}
	return nil
}

func (s *PGStore) AddWeightRate(ctx context.Context, carrierID, countryID string, in WeightRateInput) (rate.WeightRate, error) {
	if err := in.Validate(); err != nil {
		return rate.WeightRate{}, err
	}
	w := rate.WeightRate{
		ID:          uuid.New().String(),
		MinWeightKg: in.MinWeightKg,
		MaxWeightKg: in.MaxWeightKg,
		PriceCents:  in.PriceCents,
	}
	err := s.withCountryLock(ctx, carrierID, countryID, func(tx pgx.Tx, bands []rate.WeightRate) error {
		if err := checkOverlap(bands, in, ""); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
            INSERT INTO carrier_weight_rates (id, country_id, min_weight_kg, max_weight_kg, price_cents)
            VALUES ($1, $2, $3, $4, $5)`,
			w.ID, countryID, w.MinWeightKg, w.MaxWeightKg, w.PriceCents)
		if err != nil {
			return fmt.Errorf("insert weight rate: %w", err)
		}
		return nil
	})
	if err != nil {
		return rate.WeightRate{}, err
	}
	return w, nil
}

func (s *PGStore) UpdateWeightRate(ctx context.Context, carrierID, countryID, rateID string, in WeightRateInput) (rate.WeightRate, error) {
	if err := in.Validate(); err != nil {
		return rate.WeightRate{}, err
	}
	if _, err := uuid.Parse(rateID); err != nil {
		return rate.WeightRate{}, notFound("weight rate", rateID)
	}
	w := rate.WeightRate{
		ID:          rateID,
		MinWeightKg: in.MinWeightKg,
		MaxWeightKg: in.MaxWeightKg,
		PriceCents:  in.PriceCents,
	}
	err := s.withCountryLock(ctx, carrierID, countryID, func(tx pgx.Tx, bands []rate.WeightRate) error {
		if err := checkOverlap(bands, in, rateID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `
            UPDATE carrier_weight_rates SET min_weight_kg = $3, max_weight_kg = $4, price_cents = $5
            WHERE id = $1 AND country_id = $2`,
			rateID, countryID, w.MinWeightKg, w.MaxWeightKg, w.PriceCents)
		if err != nil {
			return fmt.Errorf("update weight rate: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return notFound("weight rate", rateID)
		}
		return nil
	})
	if err != nil {
		return rate.WeightRate{}, err
	}
	return w, nil
}

func (s *PGStore) DeleteWeightRate(ctx context.Context, carrierID, countryID, rateID string) error {
	if !validIDs(carrierID, countryID, rateID) {
		return notFound("weight rate", rateID)
	}
	tag, err := s.db.Exec(ctx, `
        DELETE FROM carrier_weight_rates w
        USING carrier_countries c
        WHERE w.id = $1 AND w.country_id = $2 AND c.id = w.country_id AND c.carrier_id = $3`,
		rateID, countryID, carrierID)
	if err != nil {
		return fmt.Errorf("delete weight rate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound("weight rate", rateID)
	}
	return nil
}

// withCountryLock runs fn in a transaction holding a row lock on the country rate,
// so concurrent band writes for the same country cannot both pass the overlap check.
func (s *PGStore) withCountryLock(ctx context.Context, carrierID, countryID string, fn func(tx pgx.Tx, bands []rate.WeightRate) error) error {
	if !validIDs(carrierID, countryID) {
		return notFound("country rate", countryID)
	}
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var locked string
	err = tx.QueryRow(ctx, `
        SELECT id::text FROM carrier_countries
        WHERE id = $1 AND carrier_id = $2
        FOR UPDATE`, countryID, carrierID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound("country rate", countryID)
		}
		return fmt.Errorf("lock country rate: %w", err)
	}

	bands, err := weightRates(ctx, tx, countryID)
	if err != nil {
		return err
	}
	if err := fn(tx, bands); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func weightRates(ctx context.Context, q querier, countryID string) ([]rate.WeightRate, error) {
	rows, err := q.Query(ctx, `
        SELECT id::text, min_weight_kg, max_weight_kg, price_cents
        FROM carrier_weight_rates
        WHERE country_id = $1
        ORDER BY position ASC`, countryID)
	if err != nil {
		return nil, fmt.Errorf("query weight rates: %w", err)
	}
	defer rows.Close()
	bands := []rate.WeightRate{}
	for rows.Next() {
		var w rate.WeightRate
		if err := rows.Scan(&w.ID, &w.MinWeightKg, &w.MaxWeightKg, &w.PriceCents); err != nil {
			return nil, fmt.Errorf("scan weight rate: %w", err)
		}
		bands = append(bands, w)
	}
	return bands, rows.Err()
}

func validIDs(ids ...string) bool {
	for _, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			return false
		}
	}
	return true
}
