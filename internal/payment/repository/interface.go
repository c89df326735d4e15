package repository

import (
	"context"
	"errors"

	"paypaladin/internal/model"
)

// ErrWalletNotFound is returned when no wallet record exists for the key.
var ErrWalletNotFound = errors.New("wallet not found")

// WalletRepository persists wallet records keyed by user id and chat handle.
type WalletRepository interface {
	// ResolveWallet returns the wallet owned by the given user id.
	ResolveWallet(ctx context.Context, userID string) (model.Wallet, error)

	// ResolveByHandle returns the wallet owned by the given chat handle
	// (without the leading "@").
	ResolveByHandle(ctx context.Context, handle string) (model.Wallet, error)

	// SaveWallet inserts or updates the wallet record for w.UserID.
	SaveWallet(ctx context.Context, w model.Wallet) error
}
