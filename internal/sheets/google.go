package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/roach88/possync/internal/pos"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// GoogleStore is a ValueStore backed by the Google Sheets v4 API.
type GoogleStore struct {
	svc           *gsheets.Service
	spreadsheetID string
}

// NewGoogleStore builds a client authenticated by API key. Extra options
// (endpoint, HTTP client) are applied after the key.
func NewGoogleStore(ctx context.Context, spreadsheetID, apiKey string, opts ...option.ClientOption) (*GoogleStore, error) {
	if strings.TrimSpace(spreadsheetID) == "" || strings.TrimSpace(apiKey) == "" {
		return nil, pos.Errorf(pos.ErrCodeConfigMissing, "sheets.new", "spreadsheet id and API key are required")
	}
	all := append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := gsheets.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &GoogleStore{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func (g *GoogleStore) Get(ctx context.Context, rng string) ([][]string, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(g.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		if isMissingRange(err) {
			return nil, nil
		}
		return nil, classify("sheets.get", err)
	}
	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = fmt.Sprint(c)
		}
		out[i] = cells
	}
	return out, nil
}

func (g *GoogleStore) Clear(ctx context.Context, rng string) error {
	_, err := g.svc.Spreadsheets.Values.Clear(g.spreadsheetID, rng, &gsheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return classify("sheets.clear", err)
	}
	return nil
}

func (g *GoogleStore) Append(ctx context.Context, rng string, rows [][]any) error {
	vr := &gsheets.ValueRange{Values: make([][]interface{}, len(rows))}
	for i, r := range rows {
		vr.Values[i] = r
	}
	_, err := g.svc.Spreadsheets.Values.Append(g.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return classify("sheets.append", err)
	}
	return nil
}

func (g *GoogleStore) Title(ctx context.Context) (string, error) {
	ss, err := g.svc.Spreadsheets.Get(g.spreadsheetID).Fields("properties.title").Context(ctx).Do()
	if err != nil {
		return "", classify("sheets.title", err)
	}
	if ss.Properties == nil {
		return "", nil
	}
	return ss.Properties.Title, nil
}

// isMissingRange reports the answer the API gives for a sheet that does
// not exist.
func isMissingRange(err error) bool {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == http.StatusBadRequest && strings.Contains(gerr.Message, "Unable to parse range")
}

// classify sorts an API failure into the remote error taxonomy: 5xx, 429
// and transport failures are unavailable, other API answers are rejections.
func classify(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		code := pos.ErrCodeRemoteRejected
		if gerr.Code >= 500 || gerr.Code == http.StatusTooManyRequests {
			code = pos.ErrCodeRemoteUnavailable
		}
		return &pos.Error{Code: code, Op: op, Message: apiMessage(gerr), Err: err}
	}
	return pos.Wrap(pos.ErrCodeRemoteUnavailable, op, err)
}

func apiMessage(gerr *googleapi.Error) string {
	if gerr.Message != "" {
		return fmt.Sprintf("%d %s", gerr.Code, gerr.Message)
	}
	return fmt.Sprintf("%d", gerr.Code)
}

// Explain turns a connection-test failure into the text shown to the user.
func Explain(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	var gerr *googleapi.Error
	status := 0
	if errors.As(err, &gerr) {
		status = gerr.Code
		msg = gerr.Message + " " + msg
	}
	switch {
	case pos.IsConfigMissing(err):
		return "Sheet ID and API key are required."
	case status == http.StatusForbidden || strings.Contains(msg, "PERMISSION_DENIED"):
		return "Permission denied. Share the sheet so anyone with the link can edit it."
	case strings.Contains(msg, "API key not valid"):
		return "The API key is not valid. Check it in the cloud console."
	case status == http.StatusNotFound || strings.Contains(strings.ToLower(msg), "not found"):
		return "Spreadsheet not found. Check the Sheet ID."
	case pos.HasCode(err, pos.ErrCodeRemoteUnavailable):
		return "The spreadsheet service could not be reached."
	}
	return "Connection failed: " + err.Error()
}
