package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/mailroom/pkg/vault"
)

const credentialColumns = `id, name, type, encrypted_value, requires_2fa,
	encrypted_totp_secret, access_count, last_accessed_at, rotated_at,
	created_at, updated_at`

func (r *Repository) InsertCredential(ctx context.Context, cred vault.Credential) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO credentials (`+credentialColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		cred.ID, cred.Name, cred.Type, cred.EncryptedValue, cred.Requires2FA,
		cred.EncryptedTOTPSecret, cred.AccessCount, cred.LastAccessedAt,
		cred.RotatedAt, cred.CreatedAt, cred.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (r *Repository) GetCredential(ctx context.Context, id uuid.UUID) (vault.Credential, bool, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+credentialColumns+` FROM credentials WHERE id = $1`, id)
	cred, err := scanCredential(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return vault.Credential{}, false, nil
	}
	if err != nil {
		return vault.Credential{}, false, fmt.Errorf("get credential: %w", err)
	}
	return cred, true, nil
}

func (r *Repository) ListCredentials(ctx context.Context) ([]vault.Credential, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+credentialColumns+` FROM credentials ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var credentials []vault.Credential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		credentials = append(credentials, cred)
	}
	return credentials, rows.Err()
}

func (r *Repository) UpdateAccess(ctx context.Context, id uuid.UUID, accessedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE credentials
		SET access_count = access_count + 1, last_accessed_at = $2
		WHERE id = $1`, id, accessedAt)
	if err != nil {
		return fmt.Errorf("update credential access: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return vault.ErrCredentialNotFound
	}
	return nil
}

func (r *Repository) UpdateValue(ctx context.Context, id uuid.UUID, encryptedValue string, rotatedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE credentials
		SET encrypted_value = $2, rotated_at = $3, updated_at = $3
		WHERE id = $1`, id, encryptedValue, rotatedAt)
	if err != nil {
		return fmt.Errorf("rotate credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return vault.ErrCredentialNotFound
	}
	return nil
}

func (r *Repository) DeleteCredential(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM credentials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return vault.ErrCredentialNotFound
	}
	return nil
}

func scanCredential(row pgx.Row) (vault.Credential, error) {
	var cred vault.Credential
	err := row.Scan(&cred.ID, &cred.Name, &cred.Type, &cred.EncryptedValue,
		&cred.Requires2FA, &cred.EncryptedTOTPSecret, &cred.AccessCount,
		&cred.LastAccessedAt, &cred.RotatedAt, &cred.CreatedAt, &cred.UpdatedAt)
	if err != nil {
		return vault.Credential{}, err
	}
	return cred, nil
}
