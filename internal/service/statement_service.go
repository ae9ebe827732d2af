package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/dafibh/elektrikci/elektrikci-backend/internal/domain"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
)

const statementDateLayout = "02.01.2006"

// StatementLine is one job on a customer statement
type StatementLine struct {
	JobID     string
	Date      time.Time
	Name      string
	Price     decimal.Decimal
	Paid      decimal.Decimal
	Remaining decimal.Decimal
	Status    domain.JobStatus
}

// Statement is the account summary of one customer
type Statement struct {
	Customer       domain.Customer
	Lines          []StatementLine
	TotalPrice     decimal.Decimal
	TotalPaid      decimal.Decimal
	TotalRemaining decimal.Decimal
	GeneratedAt    time.Time
}

// StatementService builds printable customer statements
type StatementService struct {
	customerRepo domain.CustomerRepository
	jobRepo      domain.JobRepository
	now          Clock
}

// NewStatementService creates a new StatementService
func NewStatementService(customerRepo domain.CustomerRepository, jobRepo domain.JobRepository) *StatementService {
	return &StatementService{
		customerRepo: customerRepo,
		jobRepo:      jobRepo,
		now:          systemClock,
	}
}

// SetClock replaces the time source
func (s *StatementService) SetClock(clock Clock) {
	s.now = clock
}

// BuildStatement collects a customer's jobs oldest first with running totals
func (s *StatementService) BuildStatement(workspaceID int32, customerID string) (*Statement, error) {
	customer, err := s.customerRepo.GetByID(workspaceID, customerID)
	if err != nil {
		return nil, err
	}
	jobs, err := s.jobRepo.GetByCustomer(workspaceID, customerID)
	if err != nil {
		return nil, err
	}

	st := &Statement{
		Customer:       *customer,
		Lines:          make([]StatementLine, 0, len(jobs)),
		TotalPrice:     decimal.Zero,
		TotalPaid:      decimal.Zero,
		TotalRemaining: decimal.Zero,
		GeneratedAt:    s.now(),
	}
	// Repositories return newest first; statements read top to bottom in time.
	for i := len(jobs) - 1; i >= 0; i-- {
		job := jobs[i]
		line := StatementLine{
			JobID:     job.ID,
			Date:      job.CreatedAt,
			Name:      job.Name,
			Price:     job.Price,
			Paid:      job.TotalPaid(),
			Remaining: job.RemainingBalance(),
			Status:    job.Status(),
		}
		st.Lines = append(st.Lines, line)
		st.TotalPrice = st.TotalPrice.Add(line.Price)
		st.TotalPaid = st.TotalPaid.Add(line.Paid)
		st.TotalRemaining = st.TotalRemaining.Add(line.Remaining)
	}
	return st, nil
}

// CustomerStatementPDF renders the statement of a customer as PDF
func (s *StatementService) CustomerStatementPDF(workspaceID int32, customerID string) ([]byte, error) {
	st, err := s.BuildStatement(workspaceID, customerID)
	if err != nil {
		return nil, err
	}
	return RenderStatementPDF(st)
}

// RenderStatementPDF lays out a statement on A4
func RenderStatementPDF(st *Statement) ([]byte, error) {
	loc := st.GeneratedAt.Location()
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Sayfa {current} / {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(8, "Müşteri Hesap Özeti", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, st.GeneratedAt.Format(statementDateLayout), props.Text{
			Size:  10,
			Align: align.Right,
		}),
	)

	customerCol := col.New(12).Add(
		text.New(st.Customer.Name, props.Text{Style: fontstyle.Bold}),
		text.New(st.Customer.Phone, props.Text{Top: 5}),
	)
	if st.Customer.Address != nil {
		customerCol.Add(text.New(*st.Customer.Address, props.Text{Top: 10}))
	}
	m.AddRow(20, customerCol)

	header := props.Text{Style: fontstyle.Bold, Size: 9}
	headerRight := props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}
	m.AddRow(10,
		text.NewCol(2, "Tarih", header),
		text.NewCol(4, "İş", header),
		text.NewCol(2, "Ücret", headerRight),
		text.NewCol(2, "Ödenen", headerRight),
		text.NewCol(2, "Kalan", headerRight),
	)

	cell := props.Text{Size: 9}
	cellRight := props.Text{Size: 9, Align: align.Right}
	for _, line := range st.Lines {
		m.AddRow(8,
			text.NewCol(2, line.Date.In(loc).Format(statementDateLayout), cell),
			text.NewCol(4, line.Name, cell),
			text.NewCol(2, FormatLira(line.Price), cellRight),
			text.NewCol(2, FormatLira(line.Paid), cellRight),
			text.NewCol(2, FormatLira(line.Remaining), cellRight),
		)
	}
	if len(st.Lines) == 0 {
		m.AddRow(10, text.NewCol(12, "Bu müşteriye ait iş kaydı yok.", cell))
	}

	m.AddRow(10,
		col.New(6),
		text.NewCol(2, FormatLira(st.TotalPrice), headerRight),
		text.NewCol(2, FormatLira(st.TotalPaid), headerRight),
		text.NewCol(2, FormatLira(st.TotalRemaining), headerRight),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to render statement: %w", err)
	}
	return doc.GetBytes(), nil
}

// FormatLira renders an amount the Turkish way, e.g. 1.250,50 TL
func FormatLira(amount decimal.Decimal) string {
	fixed := amount.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if amount.IsNegative() {
		b.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(frac)
	b.WriteString(" TL")
	return b.String()
}
