package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// PaymentRow is one audit line mirrored to the spreadsheet
type PaymentRow struct {
	RequestID   string
	Name        string
	Phone       string
	Condo       string
	Block       string
	Apartment   string
	MonthRef    string
	Amount      decimal.Decimal
	Status      string
	MPPaymentID string
}

// SheetsService mirrors payment records to a Google Sheet. All calls are
// best-effort from the caller's point of view; the database remains the
// source of truth.
type SheetsService struct {
	spreadsheetID string
	sheetName     string
	srv           *sheets.Service
}

func NewSheetsService(ctx context.Context) (*SheetsService, error) {
	spreadsheetID := os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID")
	if spreadsheetID == "" {
		return nil, fmt.Errorf("GOOGLE_SHEETS_SPREADSHEET_ID is not set")
	}

	sheetName := os.Getenv("GOOGLE_SHEETS_SHEET_NAME")
	if sheetName == "" {
		sheetName = "Pagamentos"
	}

	credFile := os.Getenv("GOOGLE_SHEETS_CREDENTIALS_FILE")
	if credFile == "" {
		credFile = "credentials.json"
	}

	srv, err := sheets.NewService(ctx, option.WithCredentialsFile(credFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	log.Println("Google Sheets service initialized")
	return &SheetsService{
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		srv:           srv,
	}, nil
}

// AppendPaymentRow appends one payment line. Column layout:
// A request_id, B name, C phone, D condo, E block, F apartment, G month,
// H amount, I status, J created_at, K paid_at, L mp_payment_id
func (s *SheetsService) AppendPaymentRow(ctx context.Context, row PaymentRow) error {
	values := []interface{}{
		row.RequestID,
		row.Name,
		row.Phone,
		row.Condo,
		row.Block,
		row.Apartment,
		row.MonthRef,
		row.Amount.StringFixed(2),
		row.Status,
		time.Now().UTC().Format("2006-01-02 15:04:05"),
		"", // paid_at filled on approval
		row.MPPaymentID,
	}

	body := &sheets.ValueRange{Values: [][]interface{}{values}}

	_, err := s.srv.Spreadsheets.Values.
		Append(s.spreadsheetID, fmt.Sprintf("%s!A:L", s.sheetName), body).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}

	return nil
}

// UpdateRowByRequestID finds the row whose column A matches requestID and
// rewrites the status and, when given, the paid-at timestamp.
func (s *SheetsService) UpdateRowByRequestID(ctx context.Context, requestID string, status string, paidAt *time.Time) error {
	resp, err := s.srv.Spreadsheets.Values.
		Get(s.spreadsheetID, fmt.Sprintf("%s!A:L", s.sheetName)).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to read sheet: %w", err)
	}

	rowIndex := -1
	for idx, row := range resp.Values {
		if len(row) > 0 && row[0] == requestID {
			rowIndex = idx + 1 // Sheets uses 1-based indexing
			break
		}
	}

	if rowIndex < 0 {
		log.Printf("Sheet row not found for request %s, skipping update", requestID)
		return nil
	}

	data := []*sheets.ValueRange{
		{
			Range:  fmt.Sprintf("%s!I%d", s.sheetName, rowIndex),
			Values: [][]interface{}{{status}},
		},
	}

	if paidAt != nil {
		data = append(data, &sheets.ValueRange{
			Range:  fmt.Sprintf("%s!K%d", s.sheetName, rowIndex),
			Values: [][]interface{}{{paidAt.UTC().Format("2006-01-02 15:04:05")}},
		})
	}

	_, err = s.srv.Spreadsheets.Values.
		BatchUpdate(s.spreadsheetID, &sheets.BatchUpdateValuesRequest{
			ValueInputOption: "RAW",
			Data:             data,
		}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update row: %w", err)
	}

	return nil
}
