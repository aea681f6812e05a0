/*
manager.go - Recurring series orchestration

PURPOSE:
  Thin orchestration over the engine's series primitives: create with
  immediate generation, update with cutover, lifecycle transitions, and
  the periodic generate-all run the scheduler drives.

CUTOVER:
  Updating a series definition must not rewrite history. The manager
  deletes the series' transactions dated today or later (occurrence
  records included), applies the new definition, then regenerates.
  Past entries keep the terms they were generated under.
*/
package recurring

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/ledger-engine/ledger"
)

type Manager struct {
	engine        *ledger.Engine
	log           *logrus.Entry
	horizonMonths int

	// today is swappable for tests.
	today func() ledger.Date
}

func NewManager(engine *ledger.Engine, horizonMonths int, log *logrus.Entry) *Manager {
	if horizonMonths <= 0 {
		horizonMonths = 1
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Manager{
		engine:        engine,
		log:           log.WithField("component", "recurring"),
		horizonMonths: horizonMonths,
		today:         ledger.Today,
	}
}

// =============================================================================
// GENERATION
// =============================================================================

// GenerateAll expands every generating series through the horizon.
// Idempotent: dates that already have an occurrence record are skipped,
// including ones whose transaction was deliberately deleted.
func (m *Manager) GenerateAll() int {
	total := 0
	for _, s := range m.engine.SeriesList() {
		total += m.generate(s)
	}
	if total > 0 {
		m.log.WithField("generated", total).Info("recurring generation run")
	}
	return total
}

// GenerateSeries expands one series.
func (m *Manager) GenerateSeries(id ledger.SeriesID) (int, error) {
	s, err := m.engine.Series(id)
	if err != nil {
		return 0, err
	}
	return m.generate(s), nil
}

func (m *Manager) generate(s ledger.RecurringSeries) int {
	due := Expand(s, m.engine.SeriesOccurrenceKeys(s.ID), m.today(), m.horizonMonths)
	if len(due) == 0 {
		return 0
	}

	now := time.Now().UTC()
	txs := make([]ledger.Transaction, 0, len(due))
	occs := make([]ledger.RecurringOccurrence, 0, len(due))
	for _, date := range due {
		tx, occ := Materialize(s, date, now)
		txs = append(txs, tx)
		occs = append(occs, occ)
	}
	m.engine.AddGenerated(txs, occs)
	return len(txs)
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Create registers a new series and generates its due entries right away.
func (m *Manager) Create(s ledger.RecurringSeries) (ledger.RecurringSeries, error) {
	created, err := m.engine.CreateSeries(s)
	if err != nil {
		return ledger.RecurringSeries{}, err
	}
	m.generate(created)
	return created, nil
}

// Update applies a changed definition with cutover: entries dated today
// or later are regenerated under the new terms, past entries stay.
func (m *Manager) Update(s ledger.RecurringSeries) error {
	removed, err := m.engine.DeleteSeriesTransactionsFrom(s.ID, m.today())
	if err != nil {
		return err
	}
	if err := m.engine.UpdateSeries(s); err != nil {
		return err
	}
	updated, err := m.engine.Series(s.ID)
	if err != nil {
		return err
	}
	generated := m.generate(updated)
	m.log.WithFields(logrus.Fields{
		"series":    s.ID,
		"removed":   removed,
		"generated": generated,
	}).Info("series updated with cutover")
	return nil
}

// Pause suspends generation; existing entries stay.
func (m *Manager) Pause(id ledger.SeriesID) error {
	return m.engine.SetSubscriptionStatus(id, ledger.SubscriptionPaused)
}

// Resume reactivates a paused subscription and catches up generation.
func (m *Manager) Resume(id ledger.SeriesID) error {
	if err := m.engine.SetSubscriptionStatus(id, ledger.SubscriptionActive); err != nil {
		return err
	}
	_, err := m.GenerateSeries(id)
	return err
}

// Archive is terminal: the series never generates again.
func (m *Manager) Archive(id ledger.SeriesID) error {
	return m.engine.SetSubscriptionStatus(id, ledger.SubscriptionArchived)
}

// Stop deactivates generation without touching subscription status.
func (m *Manager) Stop(id ledger.SeriesID) error {
	return m.engine.StopSeries(id)
}

// Delete removes the series. With removeFuture, entries dated today or
// later go too; past entries always stay.
func (m *Manager) Delete(id ledger.SeriesID, removeFuture bool) error {
	if removeFuture {
		if _, err := m.engine.DeleteSeriesTransactionsFrom(id, m.today()); err != nil {
			return err
		}
	}
	return m.engine.DeleteSeries(id)
}

// UpcomingReminders returns series whose next occurrence falls within the
// series' configured reminder windows, keyed by next occurrence date.
func (m *Manager) UpcomingReminders() map[ledger.SeriesID]ledger.Date {
	today := m.today()
	out := make(map[ledger.SeriesID]ledger.Date)
	for _, s := range m.engine.SeriesList() {
		if !s.Generates() || s.Subscription == nil || len(s.Subscription.ReminderDaysBefore) == 0 {
			continue
		}
		next, ok := nextOccurrenceAfter(s, today)
		if !ok {
			continue
		}
		for _, days := range s.Subscription.ReminderDaysBefore {
			if next.AddDays(-days).BeforeOrEqual(today) {
				out[s.ID] = next
				break
			}
		}
	}
	return out
}

// nextOccurrenceAfter finds the first scheduled date strictly after day.
func nextOccurrenceAfter(s ledger.RecurringSeries, day ledger.Date) (ledger.Date, bool) {
	for n := 0; ; n++ {
		date := occurrenceDate(s, n)
		if s.EndDate != nil && date.After(*s.EndDate) {
			return ledger.Date{}, false
		}
		if date.After(day) {
			return date, true
		}
	}
}
