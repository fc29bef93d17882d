// internal/reports/implementation.go
package reports

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"bibliocore/internal/fault"
	"bibliocore/internal/loans"
	"bibliocore/internal/members"
	"bibliocore/pkg/clock"
)

const resolutionMarker = "[RESUELTO]"

const topBorrowedLimit = 10

// LoanReader is the slice of loan storage the aggregator needs.
type LoanReader interface {
	ByWindow(ctx context.Context, start, end time.Time) ([]*loans.Loan, error)
	ReturnedInWindow(ctx context.Context, start, end time.Time) ([]*loans.Loan, error)
}

// BorrowerDirectory lists active borrowers for the usuarios-activos kind.
type BorrowerDirectory interface {
	ActiveBorrowers(ctx context.Context) ([]*members.Borrower, error)
}

// TitleReader resolves book titles for the ranking lines.
type TitleReader interface {
	BookTitle(ctx context.Context, id int64) (string, error)
}

// service implements the Service interface.
type service struct {
	repo      Repository
	loans     LoanReader
	borrowers BorrowerDirectory
	titles    TitleReader
	clk       clock.Clock
	limiter   *rate.Limiter
}

// NewService creates a new report aggregation service instance.
func NewService(repo Repository, loanReader LoanReader, borrowers BorrowerDirectory, titles TitleReader, clk clock.Clock) Service {
	return &service{
		repo:      repo,
		loans:     loanReader,
		borrowers: borrowers,
		titles:    titles,
		clk:       clk,
		limiter:   rate.NewLimiter(rate.Every(1*time.Second), 10), // 10 generations burst
	}
}

// Generate builds the requested report kind over the window, validates
// it against the same rules as manual reports, and persists it. Nothing
// is stored when aggregation or validation fails.
func (s *service) Generate(ctx context.Context, kind string, windowStart, windowEnd time.Time, ownerID int64) (*Report, error) {
	if !s.limiter.Allow() {
		return nil, fault.Rejected("report generation rate limit exceeded, try again later")
	}

	parsed, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}
	if ownerID <= 0 {
		return nil, fault.Validation("report owner id must be positive")
	}

	content, err := s.buildContent(ctx, parsed, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	report := &Report{
		OwnerID:     ownerID,
		Kind:        parsed,
		Content:     content,
		GeneratedAt: s.clk.Now(),
	}
	if err := report.Validate(false); err != nil {
		return nil, err
	}

	report, err = s.repo.Insert(ctx, report)
	if err != nil {
		return nil, s.storageFault(err)
	}
	return report, nil
}

func (s *service) buildContent(ctx context.Context, kind Kind, start, end time.Time) (string, error) {
	// usuarios activos ignores the window entirely.
	if kind != KindActiveUsers && end.Before(start) {
		return "", fault.Rejected("report window end precedes start")
	}

	switch kind {
	case KindLoans:
		return s.buildLoans(ctx, start, end)
	case KindTopBorrowed:
		return s.buildTopBorrowed(ctx, start, end)
	case KindActiveUsers:
		return s.buildActiveUsers(ctx)
	case KindPenalties:
		return s.buildPenalties(ctx, start, end)
	case KindReturns:
		return s.buildReturns(ctx, start, end)
	default:
		return "", fault.Validation("unrecognized report kind %q", string(kind))
	}
}

func (s *service) buildLoans(ctx context.Context, start, end time.Time) (string, error) {
	inWindow, err := s.loans.ByWindow(ctx, start, end)
	if err != nil {
		return "", s.storageFault(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Total de préstamos: %d\n", len(inWindow))
	for _, loan := range inWindow {
		fmt.Fprintf(&b, "Usuario %d - Ejemplar %d - %s\n",
			loan.BorrowerID, loan.CopyID, loan.LoanDate.Format("2006-01-02"))
	}
	return b.String(), nil
}

func (s *service) buildTopBorrowed(ctx context.Context, start, end time.Time) (string, error) {
	inWindow, err := s.loans.ByWindow(ctx, start, end)
	if err != nil {
		return "", s.storageFault(err)
	}
	if len(inWindow) == 0 {
		return "", fault.Rejected("no loans in the requested window")
	}

	// Group by book preserving first-seen order so that equal counts
	// keep storage order after the stable sort.
	counts := make(map[int64]int)
	var order []int64
	for _, loan := range inWindow {
		if counts[loan.BookID] == 0 {
			order = append(order, loan.BookID)
		}
		counts[loan.BookID]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > topBorrowedLimit {
		order = order[:topBorrowedLimit]
	}

	var b strings.Builder
	for rank, bookID := range order {
		title, err := s.titles.BookTitle(ctx, bookID)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%d. %s — %d préstamos\n", rank+1, title, counts[bookID])
	}
	return b.String(), nil
}

func (s *service) buildActiveUsers(ctx context.Context) (string, error) {
	active, err := s.borrowers.ActiveBorrowers(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Usuarios activos: %d\n", len(active))
	for _, borrower := range active {
		fmt.Fprintf(&b, "%s <%s>\n", borrower.Name, borrower.Email)
	}
	return b.String(), nil
}

func (s *service) buildPenalties(ctx context.Context, start, end time.Time) (string, error) {
	inWindow, err := s.loans.ByWindow(ctx, start, end)
	if err != nil {
		return "", s.storageFault(err)
	}

	count := 0
	for _, loan := range inWindow {
		if loan.Penalized() {
			count++
		}
	}
	return fmt.Sprintf("Préstamos con multa en el periodo: %d\n", count), nil
}

func (s *service) buildReturns(ctx context.Context, start, end time.Time) (string, error) {
	returned, err := s.loans.ReturnedInWindow(ctx, start, end)
	if err != nil {
		return "", s.storageFault(err)
	}
	return fmt.Sprintf("Devoluciones registradas en el periodo: %d\n", len(returned)), nil
}

// CreateManual persists a manually authored report; content is
// mandatory here, unlike the generated kinds.
func (s *service) CreateManual(ctx context.Context, kind, content string, ownerID int64) (*Report, error) {
	parsed, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}

	report := &Report{
		OwnerID:     ownerID,
		Kind:        parsed,
		Content:     content,
		GeneratedAt: s.clk.Now(),
	}
	if err := report.Validate(true); err != nil {
		return nil, err
	}

	report, err = s.repo.Insert(ctx, report)
	if err != nil {
		return nil, s.storageFault(err)
	}
	return report, nil
}

// Get retrieves a report by ID.
func (s *service) Get(ctx context.Context, id int64) (*Report, error) {
	if id <= 0 {
		return nil, fault.Validation("report id must be positive")
	}
	report, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.storageFault(err)
	}
	return report, nil
}

// ListByKind lists persisted reports of one kind, newest first.
func (s *service) ListByKind(ctx context.Context, kind string) ([]*Report, error) {
	parsed, err := ParseKind(kind)
	if err != nil {
		return nil, err
	}
	found, err := s.repo.ByKind(ctx, parsed)
	if err != nil {
		return nil, s.storageFault(err)
	}
	return found, nil
}

// ListByWindow lists reports generated inside the window.
func (s *service) ListByWindow(ctx context.Context, start, end time.Time) ([]*Report, error) {
	if end.Before(start) {
		return nil, fault.Rejected("report window end precedes start")
	}
	found, err := s.repo.ByWindow(ctx, start, end)
	if err != nil {
		return nil, s.storageFault(err)
	}
	return found, nil
}

// AppendNote appends a timestamped note to the report content, never
// replacing it. markResolved additionally applies the resolution
// marker; marking twice is a no-op.
func (s *service) AppendNote(ctx context.Context, id int64, note string, markResolved bool) (*Report, error) {
	if strings.TrimSpace(note) == "" {
		return nil, fault.Validation("note must not be empty")
	}

	report, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	report.Content = fmt.Sprintf("%s\n[%s] nota: %s",
		report.Content, s.clk.Now().Format("2006-01-02 15:04"), note)
	if markResolved {
		s.markResolved(report)
	}

	report, err = s.repo.Update(ctx, report)
	if err != nil {
		return nil, s.storageFault(err)
	}
	return report, nil
}

func (s *service) markResolved(report *Report) {
	if strings.Contains(report.Content, resolutionMarker) {
		return
	}
	report.Content = report.Content + "\n" + resolutionMarker
}

func (s *service) storageFault(err error) error {
	if errors.Is(err, ErrReportNotFound) {
		return fault.NotFound("report not found")
	}
	if errors.Is(err, loans.ErrLoanNotFound) {
		return fault.NotFound("loan not found")
	}
	if fault.KindOf(err) != fault.KindUnknown {
		return err
	}
	return fault.Infrastructure("report storage unavailable, please retry", fmt.Errorf("report storage: %w", err))
}
