/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Populates the engine with realistic data for demos and manual testing.
  Each scenario builds accounts, categories, history and recurring series
  that exercise a specific part of the system.

AVAILABLE SCENARIOS:
  fresh-start:     Accounts and categories only, no history
  household:       Three months of income, expenses and transfers
  subscriptions:   Household data plus recurring subscription series
  deposit-savings: Interest-bearing deposit with capitalization

HOW SCENARIOS WORK:
 1. Create accounts and the category tree
 2. Bulk-load history in import mode (one save, one notification)
 3. Optionally create recurring series and run generation

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "household"}

NOTE:
  Scenarios assume an empty database. Only use in development/demo
  environments.

SEE ALSO:
  - handlers.go: Shared response helpers
  - recurring/manager.go: Series creation and generation
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/warp/ledger-engine/ledger"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "fresh-start",
		Name:        "Fresh Start",
		Description: "Empty ledger with typical accounts and categories",
		Category:    "basic",
	},
	{
		ID:          "household",
		Name:        "Household Budget",
		Description: "Three months of salary, rent, groceries and savings transfers",
		Category:    "basic",
	},
	{
		ID:          "subscriptions",
		Name:        "Subscriptions",
		Description: "Household budget plus recurring subscription series",
		Category:    "recurring",
	},
	{
		ID:          "deposit-savings",
		Name:        "Deposit Savings",
		Description: "Interest-bearing deposit account with capitalization",
		Category:    "deposits",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	if h.currentScenario == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == h.currentScenario {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario populates the engine with one scenario's data.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return
	}

	var err error
	switch req.ScenarioID {
	case "fresh-start":
		err = h.loadFreshStart(r.Context())
	case "household":
		err = h.loadHousehold(r.Context())
	case "subscriptions":
		err = h.loadSubscriptions(r.Context())
	case "deposit-savings":
		err = h.loadDepositSavings(r.Context())
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scenario: %s", req.ScenarioID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.currentScenario = req.ScenarioID
	h.Log.WithField("scenario", req.ScenarioID).Info("scenario loaded")
	writeJSON(w, http.StatusOK, map[string]string{"loaded": req.ScenarioID})
}

// =============================================================================
// SCENARIO BUILDING BLOCKS
// =============================================================================

type scenarioBase struct {
	checking ledger.Account
	savings  ledger.Account
	food     ledger.Category
	housing  ledger.Category
	fun      ledger.Category
}

func (h *Handler) createBase(_ context.Context) (scenarioBase, error) {
	var base scenarioBase
	var err error

	if base.checking, err = h.Engine.CreateAccount(ledger.Account{
		Name: "Checking", Currency: "USD", DisplayOrder: 1,
	}); err != nil {
		return base, err
	}
	if base.savings, err = h.Engine.CreateAccount(ledger.Account{
		Name: "Savings", Currency: "USD", DisplayOrder: 2,
	}); err != nil {
		return base, err
	}

	if base.food, err = h.Engine.CreateCategory("Food"); err != nil {
		return base, err
	}
	if base.housing, err = h.Engine.CreateCategory("Housing"); err != nil {
		return base, err
	}
	if base.fun, err = h.Engine.CreateCategory("Entertainment"); err != nil {
		return base, err
	}
	if _, err = h.Engine.CreateSubcategory(base.food.ID, "Groceries"); err != nil {
		return base, err
	}
	if _, err = h.Engine.CreateSubcategory(base.food.ID, "Restaurants"); err != nil {
		return base, err
	}
	return base, nil
}

func (h *Handler) loadFreshStart(ctx context.Context) error {
	_, err := h.createBase(ctx)
	return err
}

func (h *Handler) loadHousehold(ctx context.Context) error {
	base, err := h.createBase(ctx)
	if err != nil {
		return err
	}
	return h.loadHouseholdHistory(ctx, base)
}

// loadHouseholdHistory bulk-loads three months of entries in import mode.
func (h *Handler) loadHouseholdHistory(ctx context.Context, base scenarioBase) error {
	today := ledger.Today()

	h.Engine.BeginImport()
	for monthsAgo := 3; monthsAgo >= 1; monthsAgo-- {
		anchor := today.AddMonths(-monthsAgo)
		y, m := anchor.Year(), anchor.Month()

		entries := []ledger.Transaction{
			{
				Date: ledger.ClampedDate(y, m, 1), Description: "Salary",
				Amount: ledger.MustParseDecimal("4200"), Currency: "USD",
				Type: ledger.TxIncome, AccountID: base.checking.ID,
			},
			{
				Date: ledger.ClampedDate(y, m, 2), Description: "Rent",
				Amount: ledger.MustParseDecimal("1500"), Currency: "USD",
				Type: ledger.TxExpense, AccountID: base.checking.ID, CategoryID: base.housing.ID,
			},
			{
				Date: ledger.ClampedDate(y, m, 8), Description: "Groceries",
				Amount: ledger.MustParseDecimal("142.35"), Currency: "USD",
				Type: ledger.TxExpense, AccountID: base.checking.ID, CategoryID: base.food.ID,
			},
			{
				Date: ledger.ClampedDate(y, m, 14), Description: "Dinner out",
				Amount: ledger.MustParseDecimal("68.50"), Currency: "USD",
				Type: ledger.TxExpense, AccountID: base.checking.ID, CategoryID: base.fun.ID,
			},
			{
				Date: ledger.ClampedDate(y, m, 22), Description: "Groceries",
				Amount: ledger.MustParseDecimal("95.10"), Currency: "USD",
				Type: ledger.TxExpense, AccountID: base.checking.ID, CategoryID: base.food.ID,
			},
			{
				Date: ledger.ClampedDate(y, m, 25), Description: "To savings",
				Amount: ledger.MustParseDecimal("500"), Currency: "USD",
				Type: ledger.TxTransfer, AccountID: base.checking.ID, TargetAccountID: base.savings.ID,
			},
		}
		for _, tx := range entries {
			if _, err := h.Engine.AddTransaction(tx); err != nil {
				_ = h.Engine.FinishImport(ctx)
				return err
			}
		}
	}
	return h.Engine.FinishImport(ctx)
}

func (h *Handler) loadSubscriptions(ctx context.Context) error {
	base, err := h.createBase(ctx)
	if err != nil {
		return err
	}
	if err := h.loadHouseholdHistory(ctx, base); err != nil {
		return err
	}

	start := ledger.Today().AddMonths(-3)
	series := []ledger.RecurringSeries{
		{
			Description: "Streaming service",
			Amount:      ledger.MustParseDecimal("15.99"),
			Currency:    "USD",
			Type:        ledger.TxExpense,
			CategoryID:  base.fun.ID,
			AccountID:   base.checking.ID,
			Frequency:   ledger.Frequency{Kind: ledger.FreqMonthly},
			StartDate:   start,
			Active:      true,
			Subscription: &ledger.SubscriptionMeta{
				Status:             ledger.SubscriptionActive,
				ReminderDaysBefore: []int{3},
				Brand:              "streamco",
			},
		},
		{
			Description: "Gym membership",
			Amount:      ledger.MustParseDecimal("29.99"),
			Currency:    "USD",
			Type:        ledger.TxExpense,
			AccountID:   base.checking.ID,
			Frequency:   ledger.Frequency{Kind: ledger.FreqMonthly},
			StartDate:   start,
			Active:      true,
			Subscription: &ledger.SubscriptionMeta{
				Status: ledger.SubscriptionActive,
			},
		},
	}
	for _, s := range series {
		if _, err := h.Recurring.Create(s); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadDepositSavings(ctx context.Context) error {
	if _, err := h.createBase(ctx); err != nil {
		return err
	}

	deposit, err := h.Engine.CreateAccount(ledger.Account{
		Name:           "Certificate of Deposit",
		Currency:       "USD",
		InitialBalance: ledger.MustParseDecimal("10000"),
		Deposit: &ledger.DepositMeta{
			Principal:  ledger.MustParseDecimal("10000"),
			AnnualRate: ledger.MustParseDecimal("4.5"),
			PostingDay: 1,
			Capitalize: true,
		},
		DisplayOrder: 3,
	})
	if err != nil {
		return err
	}

	// A couple of months of posted interest so the history is non-trivial
	today := ledger.Today()
	h.Engine.BeginImport()
	for monthsAgo := 2; monthsAgo >= 1; monthsAgo-- {
		anchor := today.AddMonths(-monthsAgo)
		posting := ledger.ClampedDate(anchor.Year(), anchor.Month(), 1)
		_, err := h.Engine.AddTransaction(ledger.Transaction{
			Date:        posting,
			Description: fmt.Sprintf("Interest %s", posting.Time().Format("January 2006")),
			Amount:      ledger.MustParseDecimal("37.50"),
			Currency:    "USD",
			Type:        ledger.TxDepositInterest,
			AccountID:   deposit.ID,
		})
		if err != nil {
			_ = h.Engine.FinishImport(ctx)
			return err
		}
	}
	return h.Engine.FinishImport(ctx)
}
