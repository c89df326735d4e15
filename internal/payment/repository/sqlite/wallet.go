package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"paypaladin/internal/model"
	"paypaladin/internal/payment/repository"
)

// ResolveWallet returns the wallet owned by userID.
func (r *Repository) ResolveWallet(ctx context.Context, userID string) (model.Wallet, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT user_id, username, address, seed, chat_id FROM wallets WHERE user_id = ?`, userID)
	return scanWallet(row)
}

// ResolveByHandle returns the wallet owned by the given chat handle.
func (r *Repository) ResolveByHandle(ctx context.Context, handle string) (model.Wallet, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT user_id, username, address, seed, chat_id FROM wallets WHERE username = ?`, handle)
	return scanWallet(row)
}

// SaveWallet inserts or updates the record for w.UserID.
func (r *Repository) SaveWallet(ctx context.Context, w model.Wallet) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO wallets (user_id, username, address, seed, chat_id, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			username = excluded.username,
			address  = excluded.address,
			seed     = excluded.seed,
			chat_id  = excluded.chat_id,
			updated_at = excluded.updated_at`,
		w.UserID, w.Username, w.Address, w.Seed, w.ChatID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save wallet for %s: %w", w.UserID, err)
	}
	return nil
}

func scanWallet(row *sql.Row) (model.Wallet, error) {
	var w model.Wallet
	err := row.Scan(&w.UserID, &w.Username, &w.Address, &w.Seed, &w.ChatID)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Wallet{}, repository.ErrWalletNotFound
	}
	if err != nil {
		return model.Wallet{}, fmt.Errorf("scan wallet: %w", err)
	}
	return w, nil
}
