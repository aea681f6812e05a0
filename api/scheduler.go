/*
scheduler.go - Daily maintenance scheduler

PURPOSE:
  Runs the recurring generation pass and deposit interest posting on a
  cron schedule. Both jobs are idempotent (occurrence records; one
  interest entry per account per month), so re-running after a restart
  or an overlapping trigger is harmless.

SCHEDULE:
  @daily for both jobs, plus an immediate run at startup so a server
  that was down over a posting day catches up right away.

SEE ALSO:
  - recurring/manager.go: GenerateAll
  - ledger/deposit.go: DepositInterestFor
*/
package api

import (
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/recurring"
)

// Scheduler drives the daily maintenance jobs.
type Scheduler struct {
	engine    *ledger.Engine
	recurring *recurring.Manager
	log       *logrus.Entry
	cron      *cron.Cron
}

func NewScheduler(engine *ledger.Engine, manager *recurring.Manager, log *logrus.Entry) *Scheduler {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Scheduler{
		engine:    engine,
		recurring: manager,
		log:       log.WithField("component", "scheduler"),
		cron:      cron.New(),
	}
}

// Start registers the cron jobs and runs both once immediately.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@daily", s.RunNow); err != nil {
		return err
	}
	s.cron.Start()
	s.RunNow()
	s.log.Info("scheduler started")
	return nil
}

// Stop halts the cron loop. Running jobs finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("scheduler stopped")
}

// RunNow executes one maintenance pass (also used by tests/admin).
func (s *Scheduler) RunNow() {
	generated := s.recurring.GenerateAll()
	posted := s.postDepositInterest()
	if generated > 0 || posted > 0 {
		s.log.WithFields(logrus.Fields{
			"generated": generated,
			"interest":  posted,
		}).Info("maintenance pass complete")
	}
}

// postDepositInterest posts the monthly interest entry for every deposit
// account that is due.
func (s *Scheduler) postDepositInterest() int {
	today := ledger.Today()
	txs := s.engine.Transactions()

	posted := 0
	for _, acct := range s.engine.Accounts() {
		if !acct.IsDeposit() {
			continue
		}
		balance, err := s.engine.Balance(acct.ID)
		if err != nil {
			continue
		}
		tx, due := ledger.DepositInterestFor(acct, txs, balance, today)
		if !due {
			continue
		}
		if _, err := s.engine.AddTransaction(tx); err != nil {
			s.log.WithError(err).WithField("account", acct.ID).Warn("interest posting failed")
			continue
		}
		posted++
	}
	return posted
}
