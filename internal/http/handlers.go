package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"cashflow/internal/core"
	applog "cashflow/internal/log"
)

// entriesResponse wraps listings so the payload can grow without breaking
// clients.
type entriesResponse struct {
	Entries []core.IncomeEntry `json:"entries"`
	Count   int                `json:"count"`
}

// fail logs unexpected failures and writes the mapped error response.
// Domain errors the caller can fix are not logged above Debug.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger := applog.FromContext(r.Context())
	switch {
	case core.IsValidation(err), core.IsNotFound(err):
		logger.DebugContext(r.Context(), "Request rejected",
			applog.FieldOperation, op, applog.FieldError, err)
	case core.IsStorage(err):
		logger.ErrorContext(r.Context(), "Ledger storage failure",
			applog.FieldOperation, op, applog.FieldError, err)
	default:
		logger.WarnContext(r.Context(), "Ledger request failed",
			applog.FieldOperation, op, applog.FieldError, err)
	}
	ErrorFromLedger(err).Write(w)
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.ledger.GetBalance(r.Context())
	if err != nil {
		s.fail(w, r, "getBalance", err)
		return
	}
	NewJSONResponse().Body(balance).Write(w)
}

func (s *Server) handleSetInitialBalance(w http.ResponseWriter, r *http.Request) {
	var req initialBalanceRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if !req.Amount.set {
		ErrorFromLedger(&core.ValidationError{Field: "amount", Reason: "Must be a valid number"}).Write(w)
		return
	}
	amount, err := req.Amount.parse()
	if err != nil {
		ErrorFromLedger(err).Write(w)
		return
	}

	balance, err := s.ledger.SetInitialBalance(r.Context(), amount)
	if err != nil {
		s.fail(w, r, "setInitialBalance", err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(balance).Write(w)
}

func (s *Server) handleRecalculateBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := s.ledger.RecalculateBalance(r.Context())
	if err != nil {
		s.fail(w, r, "recalculateBalance", err)
		return
	}
	NewJSONResponse().Body(balance).Write(w)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseFilter(r.URL.Query())
	if err != nil {
		ErrorFromLedger(err).Write(w)
		return
	}

	entries, err := s.ledger.GetIncomeEntries(r.Context(), filter)
	if err != nil {
		s.fail(w, r, "getIncomeEntries", err)
		return
	}
	NewJSONResponse().Body(entriesResponse{Entries: entries, Count: len(entries)}).Write(w)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	draft, err := req.draft()
	if err != nil {
		ErrorFromLedger(err).Write(w)
		return
	}

	entry, err := s.ledger.SaveIncomeEntry(r.Context(), draft)
	if err != nil {
		s.fail(w, r, "saveIncomeEntry", err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/entries/"+entry.ID).
		Body(entry).
		Write(w)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := s.ledger.GetIncomeEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, "getIncomeEntry", err)
		return
	}
	NewJSONResponse().Body(entry).Write(w)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryPatchRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	update, err := req.update()
	if err != nil {
		ErrorFromLedger(err).Write(w)
		return
	}

	entry, err := s.ledger.UpdateIncomeEntry(r.Context(), chi.URLParam(r, "id"), update)
	if err != nil {
		s.fail(w, r, "updateIncomeEntry", err)
		return
	}
	NewJSONResponse().Body(entry).Write(w)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteIncomeEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, "deleteIncomeEntry", err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriod(chi.URLParam(r, "year"), chi.URLParam(r, "month"))
	if err != nil {
		ErrorFromLedger(err).Write(w)
		return
	}

	var summary core.CashFlowSummary
	if period.IsYear() {
		summary, err = s.ledger.GetYearlySummary(r.Context(), period.Year)
	} else {
		summary, err = s.ledger.GetMonthlySummary(r.Context(), period.Year, period.Month)
	}
	if err != nil {
		s.fail(w, r, "getSummary", err)
		return
	}
	NewJSONResponse().Body(summary).Write(w)
}
