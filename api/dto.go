/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

AMOUNTS:
  Monetary amounts cross the wire as decimal strings ("129.99"), never
  floats. The handlers parse them with shopspring/decimal.

VALIDATION:
  Validation is done by the engine, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - ledger/types.go: Domain model
*/
package api

import (
	"time"

	"github.com/warp/ledger-engine/ledger"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// TransactionDTO represents a ledger entry in API responses.
type TransactionDTO struct {
	ID                string `json:"id"`
	Date              string `json:"date"`
	Description       string `json:"description"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	Type              string `json:"type"`
	CategoryID        string `json:"category_id,omitempty"`
	SubcategoryID     string `json:"subcategory_id,omitempty"`
	AccountID         string `json:"account_id,omitempty"`
	AccountName       string `json:"account_name,omitempty"`
	TargetAccountID   string `json:"target_account_id,omitempty"`
	TargetAccountName string `json:"target_account_name,omitempty"`
	TargetCurrency    string `json:"target_currency,omitempty"`
	TargetAmount      string `json:"target_amount,omitempty"`
	SeriesID          string `json:"series_id,omitempty"`
	Protected         bool   `json:"protected,omitempty"`
	CreatedAt         string `json:"created_at,omitempty"`
}

// TransactionRequest is the request body for create and update.
type TransactionRequest struct {
	ID              string `json:"id,omitempty"`
	Date            string `json:"date"`
	Description     string `json:"description"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	Type            string `json:"type"`
	CategoryID      string `json:"category_id,omitempty"`
	SubcategoryID   string `json:"subcategory_id,omitempty"`
	AccountID       string `json:"account_id,omitempty"`
	TargetAccountID string `json:"target_account_id,omitempty"`
	TargetCurrency  string `json:"target_currency,omitempty"`
	TargetAmount    string `json:"target_amount,omitempty"`
	SeriesID        string `json:"series_id,omitempty"`
}

// AccountDTO represents an account with its current balance.
type AccountDTO struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Currency       string          `json:"currency"`
	Mode           string          `json:"mode"`
	InitialBalance string          `json:"initial_balance"`
	Balance        string          `json:"balance"`
	DisplayOrder   int             `json:"display_order"`
	Deposit        *DepositMetaDTO `json:"deposit,omitempty"`
}

type DepositMetaDTO struct {
	Principal  string `json:"principal"`
	AnnualRate string `json:"annual_rate"`
	PostingDay int    `json:"posting_day"`
	Capitalize bool   `json:"capitalize"`
}

// AccountRequest is the request body for account create/update.
type AccountRequest struct {
	Name           string          `json:"name"`
	Currency       string          `json:"currency"`
	Mode           string          `json:"mode,omitempty"`
	InitialBalance string          `json:"initial_balance,omitempty"`
	DisplayOrder   int             `json:"display_order,omitempty"`
	Deposit        *DepositMetaDTO `json:"deposit,omitempty"`
}

// SetBalanceRequest sets an account baseline, optionally flipping it to
// manual mode.
type SetBalanceRequest struct {
	Amount string `json:"amount"`
	Manual bool   `json:"manual,omitempty"`
}

type CategoryDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SubcategoryDTO struct {
	ID         string `json:"id"`
	CategoryID string `json:"category_id"`
	Name       string `json:"name"`
}

type CreateCategoryRequest struct {
	Name       string `json:"name"`
	CategoryID string `json:"category_id,omitempty"` // set = create subcategory
}

// SeriesDTO represents a recurring series.
type SeriesDTO struct {
	ID              string   `json:"id"`
	Description     string   `json:"description"`
	Amount          string   `json:"amount"`
	Currency        string   `json:"currency"`
	Type            string   `json:"type"`
	CategoryID      string   `json:"category_id,omitempty"`
	SubcategoryID   string   `json:"subcategory_id,omitempty"`
	AccountID       string   `json:"account_id,omitempty"`
	TargetAccountID string   `json:"target_account_id,omitempty"`
	Frequency       string   `json:"frequency"`
	IntervalDays    int      `json:"interval_days,omitempty"`
	StartDate       string   `json:"start_date"`
	EndDate         string   `json:"end_date,omitempty"`
	Active          bool     `json:"active"`
	Status          string   `json:"status,omitempty"`
	ReminderDays    []int    `json:"reminder_days,omitempty"`
	Brand           string   `json:"brand,omitempty"`
}

// SeriesRequest is the request body for series create/update.
type SeriesRequest struct {
	Description     string `json:"description"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	Type            string `json:"type"`
	CategoryID      string `json:"category_id,omitempty"`
	SubcategoryID   string `json:"subcategory_id,omitempty"`
	AccountID       string `json:"account_id,omitempty"`
	TargetAccountID string `json:"target_account_id,omitempty"`
	Frequency       string `json:"frequency"`
	IntervalDays    int    `json:"interval_days,omitempty"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date,omitempty"`
	ReminderDays    []int  `json:"reminder_days,omitempty"`
	Brand           string `json:"brand,omitempty"`
}

// SummaryDTO is the range summary response.
type SummaryDTO struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Income   string `json:"income"`
	Expense  string `json:"expense"`
	Transfer string `json:"transfer"`
	Net      string `json:"net"`
	Count    int    `json:"count"`
}

// MonthlyTotalDTO is one month's aggregate.
type MonthlyTotalDTO struct {
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Net     string `json:"net"`
}

// CategoryTotalDTO is one category's running expense total.
type CategoryTotalDTO struct {
	CategoryID string `json:"category_id"`
	Name       string `json:"name,omitempty"`
	Total      string `json:"total"`
}

// ViewSectionDTO is one day section of the transaction list.
type ViewSectionDTO struct {
	Day  string           `json:"day"`
	Rows []TransactionDTO `json:"rows"`
}

// PageDTO is a paginated flat slice of the view.
type PageDTO struct {
	Total  int              `json:"total"`
	Offset int              `json:"offset"`
	Rows   []TransactionDTO `json:"rows"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest selects the scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toTransactionDTO(tx ledger.Transaction) TransactionDTO {
	dto := TransactionDTO{
		ID:                string(tx.ID),
		Date:              tx.Date.String(),
		Description:       tx.Description,
		Amount:            tx.Amount.String(),
		Currency:          string(tx.Currency),
		Type:              string(tx.Type),
		CategoryID:        string(tx.CategoryID),
		SubcategoryID:     string(tx.SubcategoryID),
		AccountID:         string(tx.AccountID),
		AccountName:       tx.AccountName,
		TargetAccountID:   string(tx.TargetAccountID),
		TargetAccountName: tx.TargetAccountName,
		TargetCurrency:    string(tx.TargetCurrency),
		SeriesID:          string(tx.SeriesID),
		Protected:         tx.IsProtected(),
		CreatedAt:         tx.CreatedAt.UTC().Format(time.RFC3339),
	}
	if !tx.TargetAmount.IsZero() {
		dto.TargetAmount = tx.TargetAmount.String()
	}
	return dto
}

func toTransactionDTOs(txs []ledger.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	return dtos
}

func toSeriesDTO(s ledger.RecurringSeries) SeriesDTO {
	dto := SeriesDTO{
		ID:              string(s.ID),
		Description:     s.Description,
		Amount:          s.Amount.String(),
		Currency:        string(s.Currency),
		Type:            string(s.Type),
		CategoryID:      string(s.CategoryID),
		SubcategoryID:   string(s.SubcategoryID),
		AccountID:       string(s.AccountID),
		TargetAccountID: string(s.TargetAccountID),
		Frequency:       string(s.Frequency.Kind),
		IntervalDays:    s.Frequency.IntervalDays,
		StartDate:       s.StartDate.String(),
		Active:          s.Active,
	}
	if s.EndDate != nil {
		dto.EndDate = s.EndDate.String()
	}
	if s.Subscription != nil {
		dto.Status = string(s.Subscription.Status)
		dto.ReminderDays = s.Subscription.ReminderDaysBefore
		dto.Brand = s.Subscription.Brand
	}
	return dto
}
