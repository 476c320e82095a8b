package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/log"
)

// DefaultTimeRange is assumed when the reports request names none.
const DefaultTimeRange = "monthly"

type reportQueries interface {
	ledger.UserQueries
	ledger.TransactionQueries
}

// ReportService computes the dashboard and reports views from a snapshot
// of a user's ledger.
type ReportService struct {
	store  reportQueries
	logger *log.Logger
	now    func() time.Time
}

func NewReportService(store reportQueries, logger *log.Logger) *ReportService {
	if logger == nil {
		logger = log.FromContext(context.Background())
	}
	return &ReportService{
		store:  store,
		logger: logger.WithComponent(log.ComponentReports),
		now:    time.Now,
	}
}

// Dashboard loads the user and the ledger concurrently and aggregates them.
func (s *ReportService) Dashboard(ctx context.Context, userID int64) (core.Dashboard, error) {
	var (
		user core.User
		txs  []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.store.GetUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = s.store.ListTransactions(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Dashboard{}, persistenceError("load dashboard", err)
	}

	return core.BuildDashboard(user, txs), nil
}

// Reports aggregates the ledger into the reports view. timeRange is
// accepted for API compatibility; the windows are fixed to the current
// year and the last six months.
func (s *ReportService) Reports(ctx context.Context, userID int64, timeRange string) (core.Reports, error) {
	if timeRange == "" {
		timeRange = DefaultTimeRange
	}
	s.logger.DebugContext(ctx, "Computing reports",
		log.FieldUserID, userID,
		log.FieldTimeRange, timeRange,
		log.FieldOperation, log.OpReports)

	txs, err := s.store.ListTransactions(ctx, userID)
	if err != nil {
		return core.Reports{}, persistenceError("load reports", err)
	}
	return core.BuildReports(txs, s.now().UTC()), nil
}
