package ledger

// =============================================================================
// EVENTS - Typed mutation records applied through the pipeline
// =============================================================================
// Every mutation intent is converted into one of these events before it
// touches state. The Engine applies them in submission order with a fixed
// side-effect sequence (see pipeline.go).

type EventKind string

const (
	EventTransactionAdded    EventKind = "transaction_added"
	EventTransactionUpdated  EventKind = "transaction_updated"
	EventTransactionDeleted  EventKind = "transaction_deleted"
	EventTransactionsBulk    EventKind = "transactions_bulk_added"
	EventSeriesCreated       EventKind = "series_created"
	EventSeriesUpdated       EventKind = "series_updated"
	EventSeriesStopped       EventKind = "series_stopped"
	EventSeriesDeleted       EventKind = "series_deleted"
	EventAccountsChanged     EventKind = "accounts_changed"
	EventBaseCurrencyChanged EventKind = "base_currency_changed"
)

type Event interface {
	Kind() EventKind
}

type TransactionAdded struct {
	Tx Transaction
}

func (TransactionAdded) Kind() EventKind { return EventTransactionAdded }

type TransactionUpdated struct {
	Old Transaction
	New Transaction
}

func (TransactionUpdated) Kind() EventKind { return EventTransactionUpdated }

type TransactionDeleted struct {
	Tx Transaction
}

func (TransactionDeleted) Kind() EventKind { return EventTransactionDeleted }

type TransactionsBulkAdded struct {
	Txs []Transaction
}

func (TransactionsBulkAdded) Kind() EventKind { return EventTransactionsBulk }

type SeriesCreated struct {
	Series RecurringSeries
}

func (SeriesCreated) Kind() EventKind { return EventSeriesCreated }

type SeriesUpdated struct {
	Old RecurringSeries
	New RecurringSeries
}

func (SeriesUpdated) Kind() EventKind { return EventSeriesUpdated }

type SeriesStopped struct {
	ID SeriesID
}

func (SeriesStopped) Kind() EventKind { return EventSeriesStopped }

type SeriesDeleted struct {
	ID SeriesID
}

func (SeriesDeleted) Kind() EventKind { return EventSeriesDeleted }
