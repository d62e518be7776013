// Package httpapi exposes the token ledger over REST. The authenticated
// caller, taken from the request JWT, acts as the ledger account for every
// mutating operation.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/holiman/uint256"

	app "github.com/SLC-Network/token_layer/internal/app"
	"github.com/SLC-Network/token_layer/internal/app/domain/token"
	"github.com/SLC-Network/token_layer/internal/app/metrics"
	"github.com/SLC-Network/token_layer/internal/app/services/permit"
	"github.com/SLC-Network/token_layer/internal/app/services/pricefeed"
	"github.com/SLC-Network/token_layer/internal/middleware"
)

// handler bundles HTTP endpoints for the token services.
type handler struct {
	app *app.Application
}

// NewHandler returns a router exposing the token REST API. Authentication
// and rate limiting wrap it at the server level.
func NewHandler(application *app.Application) http.Handler {
	h := &handler{app: application}
	r := mux.NewRouter()

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.HandleFunc("/token", h.tokenInfo).Methods(http.MethodGet)
	r.HandleFunc("/accounts/{address}", h.account).Methods(http.MethodGet)
	r.HandleFunc("/accounts/{address}/allowances/{spender}", h.allowance).Methods(http.MethodGet)

	r.HandleFunc("/transfers", h.transfer).Methods(http.MethodPost)
	r.HandleFunc("/transfers/from", h.transferFrom).Methods(http.MethodPost)
	r.HandleFunc("/mint", h.mint).Methods(http.MethodPost)
	r.HandleFunc("/burn", h.burn).Methods(http.MethodPost)
	r.HandleFunc("/approvals", h.approve).Methods(http.MethodPost)
	r.HandleFunc("/permits", h.permit).Methods(http.MethodPost)
	r.HandleFunc("/permits/domain", h.permitDomain).Methods(http.MethodGet)

	r.HandleFunc("/gasfees/debit", h.debitGasFees).Methods(http.MethodPost)
	r.HandleFunc("/gasfees/credit", h.creditGasFees).Methods(http.MethodPost)

	r.HandleFunc("/upkeep", h.checkUpkeep).Methods(http.MethodGet)
	r.HandleFunc("/upkeep", h.performUpkeep).Methods(http.MethodPost)
	r.HandleFunc("/oracle/price", h.pushPrice).Methods(http.MethodPost)

	r.HandleFunc("/admin/pause", h.pause).Methods(http.MethodPost)
	r.HandleFunc("/admin/unpause", h.unpause).Methods(http.MethodPost)
	r.HandleFunc("/admin/blocks", h.block).Methods(http.MethodPost)
	r.HandleFunc("/admin/blocks/{address}", h.unblock).Methods(http.MethodDelete)
	r.HandleFunc("/admin/fees", h.updateFees).Methods(http.MethodPut)
	r.HandleFunc("/admin/fees", h.feeConfig).Methods(http.MethodGet)
	r.HandleFunc("/admin/stabilization", h.updateStabilization).Methods(http.MethodPut)
	r.HandleFunc("/admin/stabilization", h.stabilizationConfig).Methods(http.MethodGet)
	r.HandleFunc("/admin/roles/{role}", h.roleHolders).Methods(http.MethodGet)
	r.HandleFunc("/admin/roles/{role}/{address}", h.grantRole).Methods(http.MethodPut)
	r.HandleFunc("/admin/roles/{role}/{address}", h.revokeRole).Methods(http.MethodDelete)

	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handler) tokenInfo(w http.ResponseWriter, r *http.Request) {
	meta := h.app.Ledger.Metadata()
	supply, err := h.app.Ledger.TotalSupply(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	paused, err := h.app.Compliance.Paused(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":         meta.Name,
		"symbol":       meta.Symbol,
		"decimals":     meta.Decimals,
		"chain_id":     meta.ChainID,
		"total_supply": supply.Dec(),
		"paused":       paused,
	})
}

func (h *handler) account(w http.ResponseWriter, r *http.Request) {
	address, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	view, err := h.app.Ledger.Account(r.Context(), address)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"address": view.Address.Hex(),
		"balance": view.Balance.Dec(),
		"nonce":   view.Nonce,
		"blocked": view.Blocked,
	})
}

func (h *handler) allowance(w http.ResponseWriter, r *http.Request) {
	owner, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	spender, ok := pathAddress(w, r, "spender")
	if !ok {
		return
	}
	allowance, err := h.app.Ledger.Allowance(r.Context(), owner, spender)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"owner":     owner.Hex(),
		"spender":   spender.Hex(),
		"allowance": allowance.Dec(),
	})
}

func (h *handler) transfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var payload struct {
		To      string `json:"to"`
		Amount  string `json:"amount"`
		Comment string `json:"comment"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	to, amount, ok := addressAmount(w, payload.To, payload.Amount)
	if !ok {
		return
	}
	if err := h.app.Ledger.Transfer(r.Context(), caller, to, amount, payload.Comment); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) transferFrom(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var payload struct {
		Owner   string `json:"owner"`
		To      string `json:"to"`
		Amount  string `json:"amount"`
		Comment string `json:"comment"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	owner, ok := parseAddress(w, payload.Owner, "owner")
	if !ok {
		return
	}
	to, amount, ok := addressAmount(w, payload.To, payload.Amount)
	if !ok {
		return
	}
	if err := h.app.Ledger.TransferFrom(r.Context(), caller, owner, to, amount, payload.Comment); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) mint(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var payload struct {
		To     string `json:"to"`
		Amount string `json:"amount"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	to, amount, ok := addressAmount(w, payload.To, payload.Amount)
	if !ok {
		return
	}
	if err := h.app.Ledger.Mint(r.Context(), caller, to, amount); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) burn(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var payload struct {
		Amount string `json:"amount"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	amount, ok := parseAmount(w, payload.Amount)
	if !ok {
		return
	}
	if err := h.app.Ledger.Burn(r.Context(), caller, amount); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) approve(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var payload struct {
		Spender string `json:"spender"`
		Value   string `json:"value"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	spender, value, ok := addressAmount(w, payload.Spender, payload.Value)
	if !ok {
		return
	}
	if err := h.app.Ledger.Approve(r.Context(), caller, spender, value); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) permit(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Owner    string `json:"owner"`
		Spender  string `json:"spender"`
		Value    string `json:"value"`
		Deadline uint64 `json:"deadline"`
		V        uint8  `json:"v"`
		R        string `json:"r"`
		S        string `json:"s"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	owner, ok := parseAddress(w, payload.Owner, "owner")
	if !ok {
		return
	}
	spender, value, ok := addressAmount(w, payload.Spender, payload.Value)
	if !ok {
		return
	}
	sig := permit.Signature{V: payload.V}
	if !parseHash32(payload.R, &sig.R) || !parseHash32(payload.S, &sig.S) {
		writeError(w, http.StatusBadRequest, errors.New("r and s must be 32-byte hex values"))
		return
	}
	if err := h.app.Permits.Permit(r.Context(), owner, spender, value, payload.Deadline, sig); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) permitDomain(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"domain_separator": h.app.Permits.Domain().Hex(),
	})
}

func (h *handler) debitGasFees(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var payload struct {
		Payer  string `json:"payer"`
		Amount string `json:"amount"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	payer, amount, ok := addressAmount(w, payload.Payer, payload.Amount)
	if !ok {
		return
	}
	if err := h.app.Fees.DebitGasFees(r.Context(), caller, payer, amount); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) creditGasFees(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var payload struct {
		Account       string `json:"account"`
		RefundTarget  string `json:"refund_target"`
		TipTarget     string `json:"tip_target"`
		RefundAmount  string `json:"refund_amount"`
		TipAmount     string `json:"tip_amount"`
		BaseFeeAmount string `json:"base_fee_amount"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	account, ok := parseAddress(w, payload.Account, "account")
	if !ok {
		return
	}
	refundTarget, ok := parseAddress(w, payload.RefundTarget, "refund_target")
	if !ok {
		return
	}
	tipTarget, ok := parseAddress(w, payload.TipTarget, "tip_target")
	if !ok {
		return
	}
	refund, ok := parseAmount(w, payload.RefundAmount)
	if !ok {
		return
	}
	tip, ok := parseAmount(w, payload.TipAmount)
	if !ok {
		return
	}
	baseFee, ok := parseAmount(w, payload.BaseFeeAmount)
	if !ok {
		return
	}
	if err := h.app.Fees.CreditGasFees(r.Context(), caller, account, refundTarget, tipTarget, refund, tip, baseFee); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) checkUpkeep(w http.ResponseWriter, r *http.Request) {
	upkeep, err := h.app.Stabilization.CheckUpkeep(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	body := map[string]any{
		"needed":        upkeep.Needed,
		"price":         upkeep.Price,
		"pegged_price":  upkeep.PeggedPrice,
		"deviation_bps": upkeep.DeviationBps,
	}
	if upkeep.Needed {
		body["direction"] = string(upkeep.Direction)
		body["delta"] = upkeep.Delta.Dec()
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *handler) performUpkeep(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	adjustment, err := h.app.Stabilization.PerformUpkeep(r.Context(), caller)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	body := map[string]any{
		"performed":     adjustment.Performed,
		"price":         adjustment.Price,
		"deviation_bps": adjustment.DeviationBps,
	}
	if adjustment.Performed {
		body["direction"] = string(adjustment.Direction)
		body["delta"] = adjustment.Delta.Dec()
	}
	writeJSON(w, http.StatusOK, body)
}

// pushPrice feeds an operator-quoted price into the static source. Requires
// the oracle role; unavailable when an external feed is configured.
func (h *handler) pushPrice(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if err := h.app.Access.RequireRole(r.Context(), token.RoleOracle, caller); err != nil {
		writeDomainError(w, err)
		return
	}
	source, ok := h.app.Stabilization.Source().(*pricefeed.Static)
	if !ok {
		writeError(w, http.StatusConflict, errors.New("price source is not operator-settable"))
		return
	}
	var payload struct {
		Price int64 `json:"price"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if payload.Price <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("price must be positive"))
		return
	}
	source.Set(payload.Price)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) pause(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if err := h.app.Compliance.Pause(r.Context(), caller); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) unpause(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	if err := h.app.Compliance.Unpause(r.Context(), caller); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) block(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var payload struct {
		Account string `json:"account"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	account, ok := parseAddress(w, payload.Account, "account")
	if !ok {
		return
	}
	if err := h.app.Compliance.Block(r.Context(), caller, account); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) unblock(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	account, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	if err := h.app.Compliance.Unblock(r.Context(), caller, account); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) feeConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.app.Fees.Config(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transfer_fee_basis_points": cfg.TransferFeeBasisPoints,
		"fee_collector":             cfg.FeeCollector.Hex(),
		"fixed_gas_fee":             cfg.FixedGasFee.Dec(),
		"gas_fee_collector":         cfg.GasFeeCollector.Hex(),
	})
}

func (h *handler) updateFees(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var payload struct {
		TransferFeeBasisPoints *uint32 `json:"transfer_fee_basis_points"`
		FeeCollector           *string `json:"fee_collector"`
		FixedGasFee            *string `json:"fixed_gas_fee"`
		GasFeeCollector        *string `json:"gas_fee_collector"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	if payload.TransferFeeBasisPoints != nil {
		if err := h.app.Fees.UpdateFee(ctx, caller, *payload.TransferFeeBasisPoints); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	if payload.FeeCollector != nil {
		collector, ok := parseAddress(w, *payload.FeeCollector, "fee_collector")
		if !ok {
			return
		}
		if err := h.app.Fees.UpdateFeeCollector(ctx, caller, collector); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	if payload.FixedGasFee != nil {
		fee, ok := parseAmount(w, *payload.FixedGasFee)
		if !ok {
			return
		}
		if err := h.app.Fees.UpdateFixedGasFee(ctx, caller, fee); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	if payload.GasFeeCollector != nil {
		collector, ok := parseAddress(w, *payload.GasFeeCollector, "gas_fee_collector")
		if !ok {
			return
		}
		if err := h.app.Fees.UpdateGasFeeCollector(ctx, caller, collector); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) stabilizationConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.app.Stabilization.Config(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	body := map[string]any{
		"pegged_price":           cfg.PeggedPrice,
		"tolerance_basis_points": cfg.ToleranceBasisPoints,
		"supply_holder":          cfg.SupplyHolder.Hex(),
		"max_price_age":          cfg.MaxPriceAge.String(),
		"price_source":           h.app.Stabilization.Source().Name(),
	}
	if round, err := h.app.Stabilization.LatestPrice(r.Context()); err == nil {
		body["price"] = round.Price
		body["price_updated_at"] = round.UpdatedAt
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *handler) updateStabilization(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var payload struct {
		PeggedPrice          *int64  `json:"pegged_price"`
		ToleranceBasisPoints *uint32 `json:"tolerance_basis_points"`
		SupplyHolder         *string `json:"supply_holder"`
	}
	if err := decodeJSON(r.Body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	if payload.PeggedPrice != nil {
		if err := h.app.Stabilization.UpdatePeggedPrice(ctx, caller, *payload.PeggedPrice); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	if payload.ToleranceBasisPoints != nil {
		if err := h.app.Stabilization.UpdateTolerance(ctx, caller, *payload.ToleranceBasisPoints); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	if payload.SupplyHolder != nil {
		holder, ok := parseAddress(w, *payload.SupplyHolder, "supply_holder")
		if !ok {
			return
		}
		if err := h.app.Stabilization.UpdateSupplyHolder(ctx, caller, holder); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) roleHolders(w http.ResponseWriter, r *http.Request) {
	role := token.Role(mux.Vars(r)["role"])
	holders, err := h.app.Access.Holders(r.Context(), role)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	hexed := make([]string, 0, len(holders))
	for _, holder := range holders {
		hexed = append(hexed, holder.Hex())
	}
	writeJSON(w, http.StatusOK, map[string]any{"role": string(role), "holders": hexed})
}

func (h *handler) grantRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	account, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	role := token.Role(mux.Vars(r)["role"])
	if err := h.app.Access.Grant(r.Context(), caller, role, account); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) revokeRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	account, ok := pathAddress(w, r, "address")
	if !ok {
		return
	}
	role := token.Role(mux.Vars(r)["role"])
	if err := h.app.Access.Revoke(r.Context(), caller, role, account); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Helpers ---------------------------------------------------------------------

func requireCaller(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	caller, ok := middleware.Caller(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, errors.New("authentication required"))
		return common.Address{}, false
	}
	return caller, true
}

func pathAddress(w http.ResponseWriter, r *http.Request, name string) (common.Address, bool) {
	return parseAddress(w, mux.Vars(r)[name], name)
}

func parseAddress(w http.ResponseWriter, raw, name string) (common.Address, bool) {
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, errors.New(name+" must be a hex address"))
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

func parseAmount(w http.ResponseWriter, raw string) (*uint256.Int, bool) {
	amount, err := uint256.FromDecimal(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("amount must be an unsigned decimal"))
		return nil, false
	}
	return amount, true
}

func addressAmount(w http.ResponseWriter, rawAddr, rawAmount string) (common.Address, *uint256.Int, bool) {
	address, ok := parseAddress(w, rawAddr, "address")
	if !ok {
		return common.Address{}, nil, false
	}
	amount, ok := parseAmount(w, rawAmount)
	if !ok {
		return common.Address{}, nil, false
	}
	return address, amount, true
}

func parseHash32(raw string, dst *[32]byte) bool {
	decoded := common.FromHex(raw)
	if len(decoded) != 32 {
		return false
	}
	copy(dst[:], decoded)
	return true
}

func decodeJSON(body io.ReadCloser, dst any) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

// writeDomainError maps typed domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var domainErr *token.Error
	if !errors.As(err, &domainErr) {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	status := http.StatusBadRequest
	switch domainErr.Code {
	case token.CodeUnauthorized:
		status = http.StatusForbidden
	case token.CodePaused, token.CodeFrozen, token.CodeAlreadyBlocked, token.CodeNotBlocked,
		token.CodeReentrantCall, token.CodeAlreadyInitialized:
		status = http.StatusConflict
	case token.CodeInsufficientBalance, token.CodeInsufficientAllowance:
		status = http.StatusUnprocessableEntity
	case token.CodePriceInvalid:
		status = http.StatusServiceUnavailable
	case token.CodeNotFound:
		status = http.StatusNotFound
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    string(domainErr.Code),
			"message": domainErr.Message,
		},
	})
}
