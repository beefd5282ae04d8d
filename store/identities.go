package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CreateIdentity records a new person with no phone number yet.
func (t *Tx) CreateIdentity(ctx context.Context) (*Identity, error) {
	var identity Identity
	err := t.tx.GetContext(ctx, &identity, `
		INSERT INTO identities DEFAULT VALUES
		RETURNING id, phone_number, phone_number_validated, created_at`)
	if err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}
	return &identity, nil
}

// IdentityByID returns the identity or nil when absent.
func (t *Tx) IdentityByID(ctx context.Context, id int64) (*Identity, error) {
	var identity Identity
	err := t.tx.GetContext(ctx, &identity, `
		SELECT id, phone_number, phone_number_validated, created_at
		FROM identities WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("identity %d: %w", id, err)
	}
	return &identity, nil
}

// IdentityByPhone returns the identity owning the phone number, or nil
// when nobody owns it.
func (t *Tx) IdentityByPhone(ctx context.Context, phone string) (*Identity, error) {
	var identity Identity
	err := t.tx.GetContext(ctx, &identity, `
		SELECT id, phone_number, phone_number_validated, created_at
		FROM identities WHERE phone_number = $1`, phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("identity by phone: %w", err)
	}
	return &identity, nil
}

// SetIdentityPhone attaches a phone number to the identity and resets
// its validated flag.
func (t *Tx) SetIdentityPhone(ctx context.Context, id int64, phone string) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE identities
		SET phone_number = $2, phone_number_validated = FALSE
		WHERE id = $1`, id, phone)
	if err != nil {
		return fmt.Errorf("set phone for identity %d: %w", id, err)
	}
	return nil
}

// SetPhoneValidated marks the identity's phone number as verified.
func (t *Tx) SetPhoneValidated(ctx context.Context, id int64) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE identities SET phone_number_validated = TRUE
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("validate phone for identity %d: %w", id, err)
	}
	return nil
}
