/*
scenarios_test.go - Demo scenario loading tests

Loads each scenario through the API and checks the resulting ledger
state: accounts, categories, history, series.
*/
package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/ledger-engine/api"
	"github.com/warp/ledger-engine/ledger"
)

func (a *testAPI) loadScenario(t *testing.T, id string) {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/scenarios/load", map[string]any{"scenario_id": id})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestScenarios_List(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeBody[[]api.ScenarioDTO](t, w)
	require.Len(t, list, 4)

	ids := make([]string, len(list))
	for i, s := range list {
		ids[i] = s.ID
	}
	assert.ElementsMatch(t, []string{"fresh-start", "household", "subscriptions", "deposit-savings"}, ids)
}

func TestScenarios_CurrentTracksLoad(t *testing.T) {
	a := newTestAPI(t)

	// Nothing loaded yet
	w := a.do(t, http.MethodGet, "/api/scenarios/current", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	a.loadScenario(t, "fresh-start")

	w = a.do(t, http.MethodGet, "/api/scenarios/current", nil)
	require.Equal(t, http.StatusOK, w.Code)
	current := decodeBody[api.ScenarioDTO](t, w)
	assert.Equal(t, "fresh-start", current.ID)
}

func TestScenarios_UnknownID(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodPost, "/api/scenarios/load", map[string]any{"scenario_id": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScenarios_FreshStart(t *testing.T) {
	a := newTestAPI(t)
	a.loadScenario(t, "fresh-start")

	assert.Len(t, a.engine.Accounts(), 2)
	assert.Empty(t, a.engine.Transactions())

	assert.Len(t, a.engine.Categories(), 3)
	assert.Len(t, a.engine.Subcategories(), 2)
}

func TestScenarios_Household(t *testing.T) {
	a := newTestAPI(t)
	a.loadScenario(t, "household")
	a.engine.WaitBalances()

	// 3 months x 6 entries
	assert.Len(t, a.engine.Transactions(), 18)

	// The monthly transfer credits savings
	var savings ledger.Account
	for _, acct := range a.engine.Accounts() {
		if acct.Name == "Savings" {
			savings = acct
		}
	}
	require.NotEmpty(t, savings.ID)
	balance, err := a.engine.Balance(savings.ID)
	require.NoError(t, err)
	assert.Equal(t, "1500", balance.String())
}

func TestScenarios_Subscriptions(t *testing.T) {
	a := newTestAPI(t)
	a.loadScenario(t, "subscriptions")

	series := a.engine.SeriesList()
	require.Len(t, series, 2)
	for _, s := range series {
		require.NotNil(t, s.Subscription)
		assert.Equal(t, ledger.SubscriptionActive, s.Subscription.Status)
	}

	// Series entries were generated on top of the household history
	generated := 0
	for _, tx := range a.engine.Transactions() {
		if tx.SeriesID != "" {
			generated++
		}
	}
	assert.Greater(t, generated, 0)
}

func TestScenarios_DepositSavings(t *testing.T) {
	a := newTestAPI(t)
	a.loadScenario(t, "deposit-savings")
	a.engine.WaitBalances()

	var deposit ledger.Account
	for _, acct := range a.engine.Accounts() {
		if acct.Deposit != nil {
			deposit = acct
		}
	}
	require.NotEmpty(t, deposit.ID)
	assert.Equal(t, "4.5", deposit.Deposit.AnnualRate.String())

	// Two months of posted interest on top of the principal
	balance, err := a.engine.Balance(deposit.ID)
	require.NoError(t, err)
	assert.Equal(t, "10075", balance.String())

	interest := 0
	for _, tx := range a.engine.Transactions() {
		if tx.Type == ledger.TxDepositInterest {
			interest++
			assert.True(t, tx.IsProtected())
		}
	}
	assert.Equal(t, 2, interest)
}
