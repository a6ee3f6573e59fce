package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const defaultAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioDialer drives the Twilio voice REST API.
type TwilioDialer struct {
	AccountSID string
	AuthToken  string
	From       string // caller ID in E.164 form

	// APIBase overrides the production endpoint, for tests.
	APIBase string

	// Client defaults to http.DefaultClient.
	Client *http.Client

	Log *slog.Logger
}

type callResource struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type apiError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
}

// PlaceCall dials an outbound call and returns its SID.
func (d *TwilioDialer) PlaceCall(ctx context.Context, to, answerURL string) (string, error) {
	form := url.Values{
		"To":     {to},
		"From":   {d.From},
		"Url":    {answerURL},
		"Method": {"POST"},
	}
	res, err := d.post(ctx, "/Calls.json", form)
	if err != nil {
		return "", fmt.Errorf("telephony: place call to %s: %w", to, err)
	}
	d.log().Info("call placed", "to", to, "call_sid", res.SID, "status", res.Status)
	return res.SID, nil
}

// EndCall transitions an in-progress call to completed, hanging it up.
func (d *TwilioDialer) EndCall(ctx context.Context, callSID string) error {
	form := url.Values{"Status": {"completed"}}
	_, err := d.post(ctx, "/Calls/"+callSID+".json", form)
	if err != nil {
		return fmt.Errorf("telephony: end call %s: %w", callSID, err)
	}
	d.log().Info("call ended", "call_sid", callSID)
	return nil
}

func (d *TwilioDialer) post(ctx context.Context, path string, form url.Values) (*callResource, error) {
	base := d.APIBase
	if base == "" {
		base = defaultAPIBase
	}
	endpoint := base + "/Accounts/" + d.AccountSID + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(d.AccountSID, d.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return nil, fmt.Errorf("api status %d (code %d): %s", resp.StatusCode, apiErr.Code, apiErr.Message)
		}
		return nil, fmt.Errorf("api status %d", resp.StatusCode)
	}

	var res callResource
	if err := json.Unmarshal(body, &res); err != nil {
		return nil, fmt.Errorf("decode call resource: %w", err)
	}
	return &res, nil
}

func (d *TwilioDialer) log() *slog.Logger {
	if d.Log != nil {
		return d.Log
	}
	return slog.Default()
}
