package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/mailroom/pkg/mailer"
)

const domainColumns = `id, name, status, records, verified_at, last_checked_at, created_at`

// UpsertDomain inserts or refreshes the row keyed by domain name. A verified
// timestamp already on the row is kept when the incoming one is nil.
func (r *Repository) UpsertDomain(ctx context.Context, domain mailer.Domain) (mailer.Domain, error) {
	records, err := marshalRecords(domain.Records)
	if err != nil {
		return mailer.Domain{}, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO domains (`+domainColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name) DO UPDATE SET
			status = EXCLUDED.status,
			records = EXCLUDED.records,
			verified_at = COALESCE(domains.verified_at, EXCLUDED.verified_at),
			last_checked_at = EXCLUDED.last_checked_at
		RETURNING `+domainColumns,
		domain.ID, domain.Name, domain.Status, records, domain.VerifiedAt,
		domain.LastCheckedAt, domain.CreatedAt)

	stored, err := scanDomain(row)
	if err != nil {
		return mailer.Domain{}, fmt.Errorf("upsert domain: %w", err)
	}
	return stored, nil
}

func (r *Repository) GetDomainByName(ctx context.Context, name string) (mailer.Domain, bool, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+domainColumns+` FROM domains WHERE name = $1`, name)
	domain, err := scanDomain(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return mailer.Domain{}, false, nil
	}
	if err != nil {
		return mailer.Domain{}, false, fmt.Errorf("get domain: %w", err)
	}
	return domain, true, nil
}

func (r *Repository) ListDomains(ctx context.Context) ([]mailer.Domain, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+domainColumns+` FROM domains ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list domains: %w", err)
	}
	defer rows.Close()

	var domains []mailer.Domain
	for rows.Next() {
		domain, err := scanDomain(rows)
		if err != nil {
			return nil, err
		}
		domains = append(domains, domain)
	}
	return domains, rows.Err()
}

func scanDomain(row pgx.Row) (mailer.Domain, error) {
	var domain mailer.Domain
	var records []byte
	err := row.Scan(&domain.ID, &domain.Name, &domain.Status, &records,
		&domain.VerifiedAt, &domain.LastCheckedAt, &domain.CreatedAt)
	if err != nil {
		return mailer.Domain{}, err
	}
	if len(records) > 0 {
		if err := json.Unmarshal(records, &domain.Records); err != nil {
			return mailer.Domain{}, fmt.Errorf("decode dns records: %w", err)
		}
	}
	return domain, nil
}

func marshalRecords(records []mailer.DNSRecord) ([]byte, error) {
	if len(records) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encode dns records: %w", err)
	}
	return data, nil
}
