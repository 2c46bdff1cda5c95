package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dvloznov/bank-backoffice/internal/domain"
	"github.com/dvloznov/bank-backoffice/internal/logger"
	"github.com/dvloznov/bank-backoffice/internal/report"
	"github.com/dvloznov/bank-backoffice/internal/validation"
	"github.com/jomei/notionapi"
)

const SinkNotion = "notion"

const movementKeyProperty = "Movement Key"

// NotionService defines the Notion operations the sink needs.
type NotionService interface {
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

// NotionClient implements NotionService with the Notion SDK.
type NotionClient struct {
	client *notionapi.Client
}

func NewNotionClient(token string) *NotionClient {
	return &NotionClient{client: notionapi.NewClient(notionapi.Token(token))}
}

// CreatePage creates a page in a database.
func (n *NotionClient) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	}
	page, err := n.client.Page.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("CreatePage: %w", err)
	}
	return page, nil
}

func (n *NotionClient) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	resp, err := n.client.Database.Query(ctx, notionapi.DatabaseID(databaseID), req)
	if err != nil {
		return nil, fmt.Errorf("QueryDatabase: %w", err)
	}
	return resp, nil
}

// NotionSink writes one database page per report row. Rows already present,
// matched by movement key, are skipped so re-exporting a period is safe.
type NotionSink struct {
	notion     NotionService
	databaseID string
}

func NewNotionSink(notion NotionService, databaseID string) *NotionSink {
	return &NotionSink{notion: notion, databaseID: databaseID}
}

func (s *NotionSink) Name() string { return SinkNotion }

func (s *NotionSink) Export(ctx context.Context, r *report.Report) (Result, error) {
	log := logger.FromContext(ctx)
	if len(r.Rows) == 0 {
		return Result{}, fmt.Errorf("notion export %s: %w", r.ID, ErrNothingToExport)
	}

	pages, err := s.queryAllPages(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("notion export %s: %w", r.ID, err)
	}
	existing := make(map[string]bool, len(pages))
	for _, p := range pages {
		if key := extractMovementKey(p); key != "" {
			existing[key] = true
		}
	}

	var created, skipped int
	for _, row := range r.Rows {
		key := MovementKey(row)
		if existing[key] {
			skipped++
			continue
		}
		props, err := RowToNotionProperties(r, row)
		if err != nil {
			return Result{}, fmt.Errorf("notion export %s: %w", r.ID, err)
		}
		if _, err := s.notion.CreatePage(ctx, s.databaseID, props); err != nil {
			return Result{}, fmt.Errorf("notion export %s: row %s: %w", r.ID, key, err)
		}
		existing[key] = true
		created++
	}

	log.Info().
		Str("report_id", r.ID).
		Int("created", created).
		Int("skipped", skipped).
		Msg("Report rows synced to Notion")
	return Result{Sink: SinkNotion, Location: s.databaseID, Items: created}, nil
}

func (s *NotionSink) queryAllPages(ctx context.Context) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor
	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: 100}
		if cursor != "" {
			req.StartCursor = cursor
		}
		resp, err := s.notion.QueryDatabase(ctx, s.databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllPages: %w", err)
		}
		all = append(all, resp.Results...)
		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}
	return all, nil
}

// MovementKey identifies a movement independently of the report it came from.
func MovementKey(row domain.ReportRow) string {
	return strings.Join([]string{
		row.NumeroCuenta,
		row.Fecha,
		row.Movimiento.StringFixed(2),
		row.SaldoDisponible.StringFixed(2),
	}, "|")
}

// RowToNotionProperties maps a report row to the reports database schema.
func RowToNotionProperties(r *report.Report, row domain.ReportRow) (notionapi.Properties, error) {
	day, err := validation.ParseReportDate(row.Fecha)
	if err != nil {
		return nil, err
	}
	date := notionapi.Date(time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC))
	movement, _ := row.Movimiento.Float64()
	balance, _ := row.SaldoDisponible.Float64()

	kind := "Depósito"
	if row.Movimiento.IsNegative() {
		kind = "Retiro"
	}

	props := notionapi.Properties{
		"Cliente": notionapi.TitleProperty{
			Title: []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: row.Cliente}}},
		},
		movementKeyProperty: richText(MovementKey(row)),
		"Numero Cuenta":     richText(row.NumeroCuenta),
		"Fecha":             notionapi.DateProperty{Date: &notionapi.DateObject{Start: &date}},
		"Tipo Cuenta":       notionapi.SelectProperty{Select: notionapi.Option{Name: row.Tipo}},
		"Movimiento":        notionapi.NumberProperty{Number: movement},
		"Saldo Disponible":  notionapi.NumberProperty{Number: balance},
		"Tipo Movimiento":   notionapi.SelectProperty{Select: notionapi.Option{Name: kind}},
		"Cuenta Activa":     notionapi.CheckboxProperty{Checkbox: row.Estado},
		"Reporte":           richText(r.ID),
	}
	return props, nil
}

func richText(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		RichText: []notionapi.RichText{{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}}},
	}
}

func extractMovementKey(page notionapi.Page) string {
	if prop, ok := page.Properties[movementKeyProperty]; ok {
		if rt, ok := prop.(*notionapi.RichTextProperty); ok && len(rt.RichText) > 0 {
			return rt.RichText[0].PlainText
		}
	}
	return ""
}
