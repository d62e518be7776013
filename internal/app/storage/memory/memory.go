// Package memory provides the in-memory implementation of the token stores.
// A single RWMutex serializes every mutator, which is what makes the
// multi-balance primitives atomic: no partial write is ever observable.
package memory

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/SLC-Network/token_layer/internal/app/domain/token"
	"github.com/SLC-Network/token_layer/internal/app/storage"
)

// Store is the in-memory implementation of every storage interface. It is
// safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	totalSupply *uint256.Int
	balances    map[common.Address]*uint256.Int
	allowances  map[common.Address]map[common.Address]*uint256.Int
	nonces      map[common.Address]uint64

	paused  bool
	blocked map[common.Address]struct{}

	roles map[token.Role]map[common.Address]struct{}

	feeCfg  token.FeeConfig
	stabCfg token.StabilizationConfig
}

var _ storage.RoleStore = (*Store)(nil)
var _ storage.ComplianceStore = (*Store)(nil)
var _ storage.LedgerStore = (*Store)(nil)
var _ storage.ConfigStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		totalSupply: uint256.NewInt(0),
		balances:    make(map[common.Address]*uint256.Int),
		allowances:  make(map[common.Address]map[common.Address]*uint256.Int),
		nonces:      make(map[common.Address]uint64),
		blocked:     make(map[common.Address]struct{}),
		roles:       make(map[token.Role]map[common.Address]struct{}),
	}
}

// RoleStore implementation ----------------------------------------------------

func (s *Store) GrantRole(_ context.Context, role token.Role, account common.Address) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.roles[role]
	if !ok {
		members = make(map[common.Address]struct{})
		s.roles[role] = members
	}
	if _, exists := members[account]; exists {
		return false, nil
	}
	members[account] = struct{}{}
	return true, nil
}

func (s *Store) RevokeRole(_ context.Context, role token.Role, account common.Address) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.roles[role]
	if !ok {
		return false, nil
	}
	if _, exists := members[account]; !exists {
		return false, nil
	}
	delete(members, account)
	return true, nil
}

func (s *Store) HasRole(_ context.Context, role token.Role, account common.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.roles[role][account]
	return ok, nil
}

func (s *Store) ListRoleHolders(_ context.Context, role token.Role) ([]common.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	holders := make([]common.Address, 0, len(s.roles[role]))
	for account := range s.roles[role] {
		holders = append(holders, account)
	}
	return holders, nil
}

// ComplianceStore implementation ----------------------------------------------

func (s *Store) SetPaused(_ context.Context, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.paused = paused
	return nil
}

func (s *Store) Paused(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.paused, nil
}

func (s *Store) BlockAccount(_ context.Context, account common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.blocked[account]; exists {
		return token.NewError(token.CodeAlreadyBlocked, "account %s is already blocked", account.Hex())
	}
	s.blocked[account] = struct{}{}
	return nil
}

func (s *Store) UnblockAccount(_ context.Context, account common.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.blocked[account]; !exists {
		return token.NewError(token.CodeNotBlocked, "account %s is not blocked", account.Hex())
	}
	delete(s.blocked, account)
	return nil
}

func (s *Store) IsBlocked(_ context.Context, account common.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.blocked[account]
	return ok, nil
}

// LedgerStore implementation --------------------------------------------------

func (s *Store) BalanceOf(_ context.Context, account common.Address) (*uint256.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.balanceLocked(account).Clone(), nil
}

func (s *Store) TotalSupply(_ context.Context) (*uint256.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.totalSupply.Clone(), nil
}

func (s *Store) Allowance(_ context.Context, owner, spender common.Address) (*uint256.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.allowanceLocked(owner, spender).Clone(), nil
}

func (s *Store) Nonce(_ context.Context, owner common.Address) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.nonces[owner], nil
}

func (s *Store) Snapshot(_ context.Context) (token.LedgerSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	balances := make(map[common.Address]*uint256.Int, len(s.balances))
	for account, balance := range s.balances {
		balances[account] = balance.Clone()
	}
	return token.LedgerSnapshot{
		TotalSupply: s.totalSupply.Clone(),
		Balances:    balances,
	}, nil
}

func (s *Store) Mint(_ context.Context, to common.Address, amount *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	newSupply, overflow := new(uint256.Int).AddOverflow(s.totalSupply, amount)
	if overflow {
		return token.Overflow("minting %s would overflow total supply", amount.Dec())
	}
	s.totalSupply = newSupply
	s.creditLocked(to, amount)
	return nil
}

func (s *Store) Burn(_ context.Context, from common.Address, amount *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.debitLocked(from, amount); err != nil {
		return err
	}
	s.totalSupply = new(uint256.Int).Sub(s.totalSupply, amount)
	return nil
}

func (s *Store) Move(_ context.Context, from, to common.Address, amount *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.debitLocked(from, amount); err != nil {
		return err
	}
	s.creditLocked(to, amount)
	return nil
}

func (s *Store) Transfer(_ context.Context, from, to common.Address, net *uint256.Int, collector common.Address, fee *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.transferLocked(from, to, net, collector, fee)
}

func (s *Store) TransferFrom(_ context.Context, owner, spender, to common.Address, net *uint256.Int, collector common.Address, fee *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	total, overflow := new(uint256.Int).AddOverflow(net, fee)
	if overflow {
		return token.Overflow("transfer amount overflows")
	}
	allowance := s.allowanceLocked(owner, spender)
	if allowance.Lt(total) {
		return token.InsufficientAllowance("allowance %s is below %s", allowance.Dec(), total.Dec())
	}
	if err := s.transferLocked(owner, to, net, collector, fee); err != nil {
		return err
	}
	s.setAllowanceLocked(owner, spender, new(uint256.Int).Sub(allowance, total))
	return nil
}

func (s *Store) Distribute(_ context.Context, from common.Address, credits []storage.Credit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := uint256.NewInt(0)
	for _, credit := range credits {
		next, overflow := new(uint256.Int).AddOverflow(total, credit.Amount)
		if overflow {
			return token.Overflow("distribution total overflows")
		}
		total = next
	}
	if err := s.debitLocked(from, total); err != nil {
		return err
	}
	for _, credit := range credits {
		s.creditLocked(credit.To, credit.Amount)
	}
	return nil
}

func (s *Store) SetAllowance(_ context.Context, owner, spender common.Address, value *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.setAllowanceLocked(owner, spender, value.Clone())
	return nil
}

func (s *Store) ApplyPermit(_ context.Context, owner, spender common.Address, value *uint256.Int, nonce uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nonces[owner] != nonce {
		return token.InvalidSignature("permit nonce %d already consumed", nonce)
	}
	s.setAllowanceLocked(owner, spender, value.Clone())
	s.nonces[owner] = nonce + 1
	return nil
}

// ConfigStore implementation --------------------------------------------------

func (s *Store) FeeConfig(_ context.Context) (token.FeeConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return cloneFeeConfig(s.feeCfg), nil
}

func (s *Store) SetFeeConfig(_ context.Context, cfg token.FeeConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.feeCfg = cloneFeeConfig(cfg)
	return nil
}

func (s *Store) StabilizationConfig(_ context.Context) (token.StabilizationConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.stabCfg, nil
}

func (s *Store) SetStabilizationConfig(_ context.Context, cfg token.StabilizationConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stabCfg = cfg
	return nil
}

// Internal helpers ------------------------------------------------------------

func (s *Store) balanceLocked(account common.Address) *uint256.Int {
	if balance, ok := s.balances[account]; ok {
		return balance
	}
	return uint256.NewInt(0)
}

func (s *Store) creditLocked(account common.Address, amount *uint256.Int) {
	s.balances[account] = new(uint256.Int).Add(s.balanceLocked(account), amount)
}

func (s *Store) debitLocked(account common.Address, amount *uint256.Int) error {
	balance := s.balanceLocked(account)
	if balance.Lt(amount) {
		return token.InsufficientBalance("balance %s of %s is below %s", balance.Dec(), account.Hex(), amount.Dec())
	}
	s.balances[account] = new(uint256.Int).Sub(balance, amount)
	return nil
}

func (s *Store) transferLocked(from, to common.Address, net *uint256.Int, collector common.Address, fee *uint256.Int) error {
	total, overflow := new(uint256.Int).AddOverflow(net, fee)
	if overflow {
		return token.Overflow("transfer amount overflows")
	}
	if err := s.debitLocked(from, total); err != nil {
		return err
	}
	s.creditLocked(to, net)
	if !fee.IsZero() {
		s.creditLocked(collector, fee)
	}
	return nil
}

func (s *Store) allowanceLocked(owner, spender common.Address) *uint256.Int {
	if granted, ok := s.allowances[owner][spender]; ok {
		return granted
	}
	return uint256.NewInt(0)
}

func (s *Store) setAllowanceLocked(owner, spender common.Address, value *uint256.Int) {
	inner, ok := s.allowances[owner]
	if !ok {
		inner = make(map[common.Address]*uint256.Int)
		s.allowances[owner] = inner
	}
	inner[spender] = value
}

func cloneFeeConfig(cfg token.FeeConfig) token.FeeConfig {
	out := cfg
	if cfg.FixedGasFee != nil {
		out.FixedGasFee = cfg.FixedGasFee.Clone()
	}
	return out
}
