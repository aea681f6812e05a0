/*
handlers.go - HTTP API handlers for the ledger engine

PURPOSE:
  Exposes the ledger engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Transactions:
    GET    /api/transactions           Paginated list (offset/limit)
    POST   /api/transactions           Create transaction
    GET    /api/transactions/{id}      Get one
    PUT    /api/transactions/{id}      Update (full replace)
    DELETE /api/transactions/{id}      Delete (immediate persistence)
    POST   /api/transactions/import    Bulk import (import mode)

  Accounts:
    GET    /api/accounts               List with current balances
    POST   /api/accounts               Create account
    PUT    /api/accounts/{id}          Update account
    DELETE /api/accounts/{id}          Delete account
    PUT    /api/accounts/{id}/balance  Set baseline / manual balance

  Categories:
    GET    /api/categories             List categories + subcategories
    POST   /api/categories             Create category or subcategory

  Recurring:
    GET    /api/series                 List series
    POST   /api/series                 Create (generates immediately)
    PUT    /api/series/{id}            Update with cutover
    DELETE /api/series/{id}            Delete (?remove_future=true)
    POST   /api/series/{id}/pause      Subscription state machine
    POST   /api/series/{id}/resume
    POST   /api/series/{id}/archive
    POST   /api/series/{id}/stop       Deactivate generation
    POST   /api/series/generate        Run generation now

  Reports:
    GET    /api/summary?from&to        Cached range summary
    GET    /api/summary/monthly        Monthly aggregates
    GET    /api/summary/categories     Per-category expense totals
    GET    /api/view                   Sectioned day view

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Forbidden mutations (protected delete, link removal)
  - 500: Persistence/internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/recurring"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine    *ledger.Engine
	Recurring *recurring.Manager
	Log       *logrus.Entry

	currentScenario string
}

// NewHandler creates a handler bound to an engine and recurring manager.
func NewHandler(engine *ledger.Engine, manager *recurring.Manager, log *logrus.Entry) *Handler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Handler{
		Engine:    engine,
		Recurring: manager,
		Log:       log.WithField("component", "api"),
	}
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// ListTransactions returns a page of the sectioned view, flattened.
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	offset := queryInt(r, "offset", 0)
	limit := queryInt(r, "limit", 50)
	if limit > 500 {
		limit = 500
	}

	view := h.Engine.View()
	writeJSON(w, http.StatusOK, PageDTO{
		Total:  view.TotalRows(),
		Offset: offset,
		Rows:   toTransactionDTOs(view.Page(offset, limit)),
	})
}

// GetTransaction returns a single entry.
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := ledger.TransactionID(chi.URLParam(r, "id"))
	tx, err := h.Engine.Transaction(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(tx))
}

// CreateTransaction validates and appends one entry.
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}

	tx, err := parseTransactionRequest(req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	created, err := h.Engine.AddTransaction(tx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(created))
}

// UpdateTransaction replaces an entry. The body id, if set, must match
// the path id.
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id := ledger.TransactionID(chi.URLParam(r, "id"))

	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}

	tx, err := parseTransactionRequest(req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	updated, err := h.Engine.UpdateTransaction(id, tx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTO(updated))
}

// DeleteTransaction removes an entry with immediate persistence.
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := ledger.TransactionID(chi.URLParam(r, "id"))
	if err := h.Engine.DeleteTransaction(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportTransactions bulk-loads entries in import mode: one aggregate
// rebuild, one synchronous save, one notification for the whole batch.
func (h *Handler) ImportTransactions(w http.ResponseWriter, r *http.Request) {
	var reqs []TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}

	h.Engine.BeginImport()
	imported := 0
	var firstErr error
	for _, req := range reqs {
		tx, err := parseTransactionRequest(req)
		if err == nil {
			_, err = h.Engine.AddTransaction(tx)
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		imported++
	}
	if err := h.Engine.FinishImport(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}

	resp := map[string]any{"imported": imported, "total": len(reqs)}
	if firstErr != nil {
		resp["first_error"] = firstErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseTransactionRequest(req TransactionRequest) (ledger.Transaction, error) {
	date, err := ledger.ParseDate(req.Date)
	if err != nil {
		return ledger.Transaction{}, err
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return ledger.Transaction{}, ledger.ErrInvalidAmount
	}

	tx := ledger.Transaction{
		ID:              ledger.TransactionID(req.ID),
		Date:            date,
		Description:     req.Description,
		Amount:          amount,
		Currency:        ledger.Currency(req.Currency),
		Type:            ledger.TransactionType(req.Type),
		CategoryID:      ledger.CategoryID(req.CategoryID),
		SubcategoryID:   ledger.SubcategoryID(req.SubcategoryID),
		AccountID:       ledger.AccountID(req.AccountID),
		TargetAccountID: ledger.AccountID(req.TargetAccountID),
		TargetCurrency:  ledger.Currency(req.TargetCurrency),
		SeriesID:        ledger.SeriesID(req.SeriesID),
	}
	if req.TargetAmount != "" {
		ta, err := decimal.NewFromString(req.TargetAmount)
		if err != nil {
			return ledger.Transaction{}, ledger.ErrInvalidAmount
		}
		tx.TargetAmount = ta
	}
	return tx, nil
}

// =============================================================================
// ACCOUNT HANDLERS
// =============================================================================

// ListAccounts returns every account with its current balance.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts := h.Engine.Accounts()
	balances := h.Engine.Balances()

	dtos := make([]AccountDTO, len(accounts))
	for i, a := range accounts {
		dtos[i] = toAccountDTO(a, balances[a.ID])
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req AccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	if req.Name == "" || req.Currency == "" {
		writeError(w, http.StatusBadRequest, "name and currency are required", nil)
		return
	}

	a, err := accountFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid account data", err)
		return
	}
	created, err := h.Engine.CreateAccount(a)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	balance, _ := h.Engine.Balance(created.ID)
	writeJSON(w, http.StatusCreated, toAccountDTO(created, balance))
}

func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id := ledger.AccountID(chi.URLParam(r, "id"))

	var req AccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	a, err := accountFromRequest(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid account data", err)
		return
	}
	a.ID = id
	if err := h.Engine.UpdateAccount(a); err != nil {
		writeDomainError(w, err)
		return
	}
	balance, _ := h.Engine.Balance(id)
	writeJSON(w, http.StatusOK, toAccountDTO(a, balance))
}

func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := ledger.AccountID(chi.URLParam(r, "id"))
	if err := h.Engine.DeleteAccount(id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetBalance replaces an account's baseline, optionally flipping it to
// manual mode. Transaction deltas on top stay in effect.
func (h *Handler) SetBalance(w http.ResponseWriter, r *http.Request) {
	id := ledger.AccountID(chi.URLParam(r, "id"))

	var req SetBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	if req.Manual {
		err = h.Engine.SetManualBalance(id, amount)
	} else {
		err = h.Engine.SetInitialBalance(id, amount)
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	balance, _ := h.Engine.Balance(id)
	writeJSON(w, http.StatusOK, map[string]string{"balance": balance.String()})
}

func accountFromRequest(req AccountRequest) (ledger.Account, error) {
	a := ledger.Account{
		Name:         req.Name,
		Currency:     ledger.Currency(req.Currency),
		Mode:         ledger.BalanceMode(req.Mode),
		DisplayOrder: req.DisplayOrder,
	}
	if req.InitialBalance != "" {
		b, err := decimal.NewFromString(req.InitialBalance)
		if err != nil {
			return ledger.Account{}, err
		}
		a.InitialBalance = b
	}
	if req.Deposit != nil {
		principal, err := decimal.NewFromString(req.Deposit.Principal)
		if err != nil {
			return ledger.Account{}, err
		}
		rate, err := decimal.NewFromString(req.Deposit.AnnualRate)
		if err != nil {
			return ledger.Account{}, err
		}
		a.Deposit = &ledger.DepositMeta{
			Principal:  principal,
			AnnualRate: rate,
			PostingDay: req.Deposit.PostingDay,
			Capitalize: req.Deposit.Capitalize,
		}
	}
	return a, nil
}

func toAccountDTO(a ledger.Account, balance decimal.Decimal) AccountDTO {
	dto := AccountDTO{
		ID:             string(a.ID),
		Name:           a.Name,
		Currency:       string(a.Currency),
		Mode:           string(a.Mode),
		InitialBalance: a.InitialBalance.String(),
		Balance:        balance.String(),
		DisplayOrder:   a.DisplayOrder,
	}
	if a.Deposit != nil {
		dto.Deposit = &DepositMetaDTO{
			Principal:  a.Deposit.Principal.String(),
			AnnualRate: a.Deposit.AnnualRate.String(),
			PostingDay: a.Deposit.PostingDay,
			Capitalize: a.Deposit.Capitalize,
		}
	}
	return dto
}

// =============================================================================
// CATEGORY HANDLERS
// =============================================================================

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.Engine.Categories()
	subcategories := h.Engine.Subcategories()

	catDTOs := make([]CategoryDTO, len(categories))
	for i, c := range categories {
		catDTOs[i] = CategoryDTO{ID: string(c.ID), Name: c.Name}
	}
	subDTOs := make([]SubcategoryDTO, len(subcategories))
	for i, sc := range subcategories {
		subDTOs[i] = SubcategoryDTO{ID: string(sc.ID), CategoryID: string(sc.CategoryID), Name: sc.Name}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"categories":    catDTOs,
		"subcategories": subDTOs,
	})
}

// CreateCategory creates a category, or a subcategory when category_id
// is set.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	if req.CategoryID != "" {
		sc, err := h.Engine.CreateSubcategory(ledger.CategoryID(req.CategoryID), req.Name)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, SubcategoryDTO{ID: string(sc.ID), CategoryID: string(sc.CategoryID), Name: sc.Name})
		return
	}

	c, err := h.Engine.CreateCategory(req.Name)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CategoryDTO{ID: string(c.ID), Name: c.Name})
}

// =============================================================================
// RECURRING SERIES HANDLERS
// =============================================================================

func (h *Handler) ListSeries(w http.ResponseWriter, r *http.Request) {
	series := h.Engine.SeriesList()
	dtos := make([]SeriesDTO, len(series))
	for i, s := range series {
		dtos[i] = toSeriesDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateSeries(w http.ResponseWriter, r *http.Request) {
	var req SeriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}

	s, err := seriesFromRequest(req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	created, err := h.Recurring.Create(s)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSeriesDTO(created))
}

// UpdateSeries applies a changed definition with cutover: entries dated
// today or later are regenerated under the new terms.
func (h *Handler) UpdateSeries(w http.ResponseWriter, r *http.Request) {
	id := ledger.SeriesID(chi.URLParam(r, "id"))

	var req SeriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}

	s, err := seriesFromRequest(req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.ID = id
	existing, err := h.Engine.Series(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.Active = existing.Active
	s.CreatedAt = existing.CreatedAt
	if existing.Subscription != nil && s.Subscription != nil {
		s.Subscription.Status = existing.Subscription.Status
	}

	if err := h.Recurring.Update(s); err != nil {
		writeDomainError(w, err)
		return
	}
	updated, _ := h.Engine.Series(id)
	writeJSON(w, http.StatusOK, toSeriesDTO(updated))
}

func (h *Handler) DeleteSeries(w http.ResponseWriter, r *http.Request) {
	id := ledger.SeriesID(chi.URLParam(r, "id"))
	removeFuture := r.URL.Query().Get("remove_future") == "true"

	if err := h.Recurring.Delete(id, removeFuture); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) PauseSeries(w http.ResponseWriter, r *http.Request) {
	h.seriesTransition(w, r, h.Recurring.Pause)
}

func (h *Handler) ResumeSeries(w http.ResponseWriter, r *http.Request) {
	h.seriesTransition(w, r, h.Recurring.Resume)
}

func (h *Handler) ArchiveSeries(w http.ResponseWriter, r *http.Request) {
	h.seriesTransition(w, r, h.Recurring.Archive)
}

func (h *Handler) StopSeries(w http.ResponseWriter, r *http.Request) {
	h.seriesTransition(w, r, h.Recurring.Stop)
}

func (h *Handler) seriesTransition(w http.ResponseWriter, r *http.Request, fn func(ledger.SeriesID) error) {
	id := ledger.SeriesID(chi.URLParam(r, "id"))
	if err := fn(id); err != nil {
		writeDomainError(w, err)
		return
	}
	s, err := h.Engine.Series(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSeriesDTO(s))
}

// GenerateNow runs a generation pass immediately.
func (h *Handler) GenerateNow(w http.ResponseWriter, r *http.Request) {
	generated := h.Recurring.GenerateAll()
	writeJSON(w, http.StatusOK, map[string]int{"generated": generated})
}

func seriesFromRequest(req SeriesRequest) (ledger.RecurringSeries, error) {
	start, err := ledger.ParseDate(req.StartDate)
	if err != nil {
		return ledger.RecurringSeries{}, err
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return ledger.RecurringSeries{}, ledger.ErrInvalidSeriesData
	}

	s := ledger.RecurringSeries{
		Description:     req.Description,
		Amount:          amount,
		Currency:        ledger.Currency(req.Currency),
		Type:            ledger.TransactionType(req.Type),
		CategoryID:      ledger.CategoryID(req.CategoryID),
		SubcategoryID:   ledger.SubcategoryID(req.SubcategoryID),
		AccountID:       ledger.AccountID(req.AccountID),
		TargetAccountID: ledger.AccountID(req.TargetAccountID),
		Frequency: ledger.Frequency{
			Kind:         ledger.FrequencyKind(req.Frequency),
			IntervalDays: req.IntervalDays,
		},
		StartDate: start,
		Active:    true,
		Subscription: &ledger.SubscriptionMeta{
			Status:             ledger.SubscriptionActive,
			ReminderDaysBefore: req.ReminderDays,
			Brand:              req.Brand,
		},
	}
	if req.EndDate != "" {
		end, err := ledger.ParseDate(req.EndDate)
		if err != nil {
			return ledger.RecurringSeries{}, err
		}
		s.EndDate = &end
	}
	return s, nil
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetSummary returns the cached range summary for [from, to].
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	from, err := ledger.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from date", err)
		return
	}
	to, err := ledger.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to date", err)
		return
	}

	s := h.Engine.Summary(from, to)
	writeJSON(w, http.StatusOK, SummaryDTO{
		From:     s.From.String(),
		To:       s.To.String(),
		Income:   s.Income.String(),
		Expense:  s.Expense.String(),
		Transfer: s.Transfer.String(),
		Net:      s.Net().String(),
		Count:    s.Count,
	})
}

// GetMonthlyTotals returns every monthly aggregate, newest first.
func (h *Handler) GetMonthlyTotals(w http.ResponseWriter, r *http.Request) {
	totals := h.Engine.MonthlyTotals()

	dtos := make([]MonthlyTotalDTO, 0, len(totals))
	for ym, total := range totals {
		dtos = append(dtos, MonthlyTotalDTO{
			Year:    ym.Year,
			Month:   int(ym.Month),
			Income:  total.Income.String(),
			Expense: total.Expense.String(),
			Net:     total.Net().String(),
		})
	}
	sort.Slice(dtos, func(i, j int) bool {
		if dtos[i].Year != dtos[j].Year {
			return dtos[i].Year > dtos[j].Year
		}
		return dtos[i].Month > dtos[j].Month
	})
	writeJSON(w, http.StatusOK, dtos)
}

// GetCategoryTotals returns the running per-category expense totals.
func (h *Handler) GetCategoryTotals(w http.ResponseWriter, r *http.Request) {
	totals := h.Engine.CategoryTotals()
	names := make(map[ledger.CategoryID]string)
	for _, c := range h.Engine.Categories() {
		names[c.ID] = c.Name
	}

	dtos := make([]CategoryTotalDTO, 0, len(totals))
	for id, total := range totals {
		dtos = append(dtos, CategoryTotalDTO{
			CategoryID: string(id),
			Name:       names[id],
			Total:      total.String(),
		})
	}
	sort.Slice(dtos, func(i, j int) bool { return dtos[i].CategoryID < dtos[j].CategoryID })
	writeJSON(w, http.StatusOK, dtos)
}

// GetView returns the sectioned day view, optionally limited to the
// first N sections.
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	view := h.Engine.View()
	sections := view.SectionCount()
	if max := queryInt(r, "sections", sections); max < sections {
		sections = max
	}

	dtos := make([]ViewSectionDTO, 0, sections)
	for i := 0; i < sections; i++ {
		section := ViewSectionDTO{Day: view.SectionDay(i).String()}
		for row := 0; row < view.SectionLen(i); row++ {
			if tx, ok := view.Row(i, row); ok {
				section.Rows = append(section.Rows, toTransactionDTO(tx))
			}
		}
		dtos = append(dtos, section)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, ledger.ErrCannotDeleteProtected),
		errors.Is(err, ledger.ErrCannotRemoveRecurringLink),
		errors.Is(err, ledger.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case ledger.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
