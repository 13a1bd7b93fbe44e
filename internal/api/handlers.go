/**
 * @description
 * This file contains the HTTP handlers for the wallet-service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the appropriate
 * methods on the application service, and writing the HTTP response. They act as the
 * bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/chamapesa/wallet-service/internal/app"
	"github.com/chamapesa/wallet-service/internal/domain"
	"github.com/chamapesa/wallet-service/internal/store"
)

// WalletHandlers holds the application service that handlers will use.
type WalletHandlers struct {
	service *app.Service
}

// NewWalletHandlers creates a new instance of WalletHandlers.
func NewWalletHandlers(service *app.Service) *WalletHandlers {
	return &WalletHandlers{service: service}
}

// withdrawalFailureResponse is the JSON body for every rejected withdrawal.
type withdrawalFailureResponse struct {
	Error   string   `json:"error"`
	Success bool     `json:"success"`
	Code    string   `json:"code,omitempty"`
	Fee     *float64 `json:"fee,omitempty"`
}

// WithdrawHandler handles POST /wallet/withdraw, the withdrawal orchestration
// endpoint. All failure paths produce a structured JSON error; nothing
// propagates as an unhandled fault (the router's Recoverer backstops panics).
func (h *WalletHandlers) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "Could not resolve user identity", nil)
		return
	}

	var req domain.WithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=withdraw outcome=reject reason=invalid_json user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusBadRequest, app.CodeInvalidAmount, "Invalid request body", nil)
		return
	}

	result, err := h.service.ProcessWithdrawal(r.Context(), userID, GetUserEmail(r.Context()), req)
	if err != nil {
		var werr *app.WithdrawalError
		if errors.As(err, &werr) {
			log.Printf("level=warn component=api endpoint=withdraw outcome=reject user_id=%s status=%d code=%s", userID, werr.Status, werr.Code)
			var fee *float64
			if werr.HasFee {
				fee = &werr.Fee
			}
			h.writeError(w, werr.Status, werr.Code, werr.Message, fee)
			return
		}
		log.Printf("level=error component=api endpoint=withdraw outcome=failed user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "", "Internal server error", nil)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// GetWalletHandler handles GET /wallet, returning the caller's balance.
func (h *WalletHandlers) GetWalletHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "Could not resolve user identity", nil)
		return
	}

	wallet, err := h.service.GetWallet(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrWalletNotFound) {
			h.writeError(w, http.StatusNotFound, "", "Wallet not found", nil)
			return
		}
		log.Printf("level=error component=api endpoint=get_wallet outcome=failed user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "", "Internal server error", nil)
		return
	}

	h.writeJSON(w, http.StatusOK, wallet)
}

// ListTransactionsHandler handles GET /wallet/transactions with optional
// limit/offset query parameters.
func (h *WalletHandlers) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "unauthorized", "Could not resolve user identity", nil)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	transactions, err := h.service.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_transactions outcome=failed user_id=%s err=%v", userID, err)
		h.writeError(w, http.StatusInternalServerError, "", "Internal server error", nil)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"transactions": transactions,
	})
}

// writeJSON is a helper for writing JSON responses.
func (h *WalletHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing the structured failure body.
func (h *WalletHandlers) writeError(w http.ResponseWriter, status int, code, message string, fee *float64) {
	h.writeJSON(w, status, withdrawalFailureResponse{
		Error:   message,
		Success: false,
		Code:    code,
		Fee:     fee,
	})
}
