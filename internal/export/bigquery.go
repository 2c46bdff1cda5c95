package export

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/bank-backoffice/internal/report"
	"github.com/dvloznov/bank-backoffice/internal/validation"
	"google.golang.org/api/option"
)

const SinkBigQuery = "bigquery"

// ReportRowRecord is one movement of an exported report, as stored in the
// warehouse table.
type ReportRowRecord struct {
	ReportID   string `bigquery:"report_id"`   // REQUIRED
	ReportKind string `bigquery:"report_kind"` // REQUIRED
	RowNo      int64  `bigquery:"row_no"`      // REQUIRED

	MovementDate  civil.Date `bigquery:"movement_date"` // REQUIRED
	ClientName    string     `bigquery:"client_name"`
	AccountNumber string     `bigquery:"account_number"`
	AccountType   string     `bigquery:"account_type"`
	AccountActive bool       `bigquery:"account_active"`

	InitialBalance   *big.Rat `bigquery:"initial_balance"`   // NUMERIC
	Movement         *big.Rat `bigquery:"movement"`          // NUMERIC
	AvailableBalance *big.Rat `bigquery:"available_balance"` // NUMERIC

	ClientFilter bigquery.NullString `bigquery:"client_filter"` // NULLABLE
	PeriodStart  civil.Date          `bigquery:"period_start"`
	PeriodEnd    civil.Date          `bigquery:"period_end"`

	ExportedTS time.Time `bigquery:"exported_ts"`
}

// RowInserter streams report rows into a table.
type RowInserter interface {
	InsertReportRows(ctx context.Context, rows []*ReportRowRecord) error
}

// BigQueryInserter is the BigQuery implementation of RowInserter.
type BigQueryInserter struct {
	client  *bigquery.Client
	project string
	dataset string
	table   string
}

func NewBigQueryInserter(ctx context.Context, project, dataset, table string, opts ...option.ClientOption) (*BigQueryInserter, error) {
	client, err := bigquery.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryInserter: creating client: %w", err)
	}
	return &BigQueryInserter{client: client, project: project, dataset: dataset, table: table}, nil
}

func (b *BigQueryInserter) Close() error {
	if b.client != nil {
		return b.client.Close()
	}
	return nil
}

// InsertReportRows inserts a batch using the streaming API.
func (b *BigQueryInserter) InsertReportRows(ctx context.Context, rows []*ReportRowRecord) error {
	if len(rows) == 0 {
		return nil
	}
	// Fully qualified so a client project differing from the data project still works.
	inserter := b.client.DatasetInProject(b.project, b.dataset).Table(b.table).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertReportRows: inserting rows: %w", err)
	}
	return nil
}

// TableRef renders project.dataset.table.
func (b *BigQueryInserter) TableRef() string {
	return fmt.Sprintf("%s.%s.%s", b.project, b.dataset, b.table)
}

// BigQuerySink streams report rows to a warehouse table.
type BigQuerySink struct {
	inserter RowInserter
	table    string
	now      func() time.Time
}

// NewBigQuerySink creates the sink. table is only used to label results.
func NewBigQuerySink(inserter RowInserter, table string) *BigQuerySink {
	return &BigQuerySink{inserter: inserter, table: table, now: time.Now}
}

func (s *BigQuerySink) Name() string { return SinkBigQuery }

func (s *BigQuerySink) Export(ctx context.Context, r *report.Report) (Result, error) {
	records, err := ToRecords(r, s.now())
	if err != nil {
		return Result{}, fmt.Errorf("bigquery export %s: %w", r.ID, err)
	}
	if err := s.inserter.InsertReportRows(ctx, records); err != nil {
		return Result{}, fmt.Errorf("bigquery export %s: %w", r.ID, err)
	}
	return Result{Sink: SinkBigQuery, Location: s.table, Items: len(records)}, nil
}

// ToRecords converts report rows to warehouse records.
func ToRecords(r *report.Report, exportedAt time.Time) ([]*ReportRowRecord, error) {
	if len(r.Rows) == 0 {
		return nil, ErrNothingToExport
	}

	start, end := r.StartDate, r.EndDate
	if r.Kind == report.KindDaily {
		start, end = r.Date, r.Date
	}
	var clientFilter bigquery.NullString
	if r.ClientName != "" {
		clientFilter = bigquery.NullString{StringVal: r.ClientName, Valid: true}
	}

	records := make([]*ReportRowRecord, 0, len(r.Rows))
	for i, row := range r.Rows {
		day, err := validation.ParseReportDate(row.Fecha)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		records = append(records, &ReportRowRecord{
			ReportID:         r.ID,
			ReportKind:       string(r.Kind),
			RowNo:            int64(i + 1),
			MovementDate:     civil.DateOf(day),
			ClientName:       row.Cliente,
			AccountNumber:    row.NumeroCuenta,
			AccountType:      row.Tipo,
			AccountActive:    row.Estado,
			InitialBalance:   row.SaldoInicial.Rat(),
			Movement:         row.Movimiento.Rat(),
			AvailableBalance: row.SaldoDisponible.Rat(),
			ClientFilter:     clientFilter,
			PeriodStart:      civil.DateOf(start),
			PeriodEnd:        civil.DateOf(end),
			ExportedTS:       exportedAt.UTC(),
		})
	}
	return records, nil
}
