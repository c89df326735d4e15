package usecase

import (
	"context"
	"errors"
	"fmt"

	"paypaladin/internal/model"
	"paypaladin/internal/payment"
	"paypaladin/internal/payment/repository"
)

// ProvisionWallet returns the user's wallet address, creating and funding a
// testnet wallet on first use.
func (uc *implUseCase) ProvisionWallet(ctx context.Context, sc model.Scope) (payment.WalletStatus, error) {
	wallet, err := uc.wallets.ResolveWallet(ctx, sc.UserID)
	if err == nil {
		return payment.WalletStatus{Address: wallet.Address}, nil
	}
	if !errors.Is(err, repository.ErrWalletNotFound) {
		return payment.WalletStatus{}, fmt.Errorf("%w: %v", payment.ErrWalletLookup, err)
	}

	funded, err := uc.ledger.FundWallet(ctx)
	if err != nil {
		return payment.WalletStatus{}, fmt.Errorf("fund new wallet: %w", err)
	}

	wallet = model.Wallet{
		UserID:   sc.UserID,
		Username: sc.Username,
		Address:  funded.Address,
		Seed:     funded.Seed,
		ChatID:   sc.ChatID,
	}
	if err := uc.wallets.SaveWallet(ctx, wallet); err != nil {
		return payment.WalletStatus{}, fmt.Errorf("save new wallet: %w", err)
	}

	uc.l.Infof(ctx, "provisioned wallet %s for user %s", funded.Address, sc.UserID)
	return payment.WalletStatus{Address: funded.Address, Created: true}, nil
}
