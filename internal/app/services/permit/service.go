package permit

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/SLC-Network/token_layer/internal/app/domain/token"
	"github.com/SLC-Network/token_layer/internal/app/storage"
	"github.com/SLC-Network/token_layer/pkg/logger"
)

// Service verifies and applies signed permits.
type Service struct {
	meta  token.Metadata
	store storage.LedgerStore
	log   *logger.Logger
	now   func() time.Time
}

// New creates a permit authorizer for the given signing domain.
func New(meta token.Metadata, store storage.LedgerStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("permit")
	}
	return &Service{meta: meta, store: store, log: log, now: time.Now}
}

// Domain returns the EIP-712 domain separator permits are signed under.
func (s *Service) Domain() common.Hash {
	return DomainSeparator(s.meta)
}

// Nonce returns the next unused permit nonce for owner.
func (s *Service) Nonce(ctx context.Context, owner common.Address) (uint64, error) {
	return s.store.Nonce(ctx, owner)
}

// Permit verifies the owner's signature over (owner, spender, value, nonce,
// deadline) and sets the allowance, consuming the nonce. A replayed permit
// fails signature verification because the nonce has moved on.
func (s *Service) Permit(ctx context.Context, owner, spender common.Address, value *uint256.Int, deadline uint64, sig Signature) error {
	if owner == (common.Address{}) {
		return token.ZeroAddress("permit owner")
	}
	if spender == (common.Address{}) {
		return token.ZeroAddress("permit spender")
	}
	if uint64(s.now().Unix()) > deadline {
		return token.NewError(token.CodeExpired, "permit deadline %d has passed", deadline)
	}

	nonce, err := s.store.Nonce(ctx, owner)
	if err != nil {
		return err
	}
	digest := Digest(s.meta, owner, spender, value, nonce, deadline)
	signer, err := RecoverSigner(digest, sig)
	if err != nil {
		return err
	}
	if signer != owner {
		return token.InvalidSignature("recovered signer %s is not the owner", signer.Hex())
	}

	if err := s.store.ApplyPermit(ctx, owner, spender, value, nonce); err != nil {
		return err
	}
	s.log.WithFields(map[string]any{
		"owner":   owner.Hex(),
		"spender": spender.Hex(),
		"nonce":   nonce,
	}).Info("permit applied")
	return nil
}
