package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// NewSheetsService builds a Sheets API client from an OAuth client secret
// file and a previously cached token. The server never runs the
// interactive consent flow; the token must have been provisioned ahead of
// time.
func NewSheetsService(ctx context.Context, credentialsPath, tokenPath string) (*sheets.Service, error) {
	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}

	f, err := os.Open(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("unable to open cached token %s: %w", tokenPath, err)
	}
	defer f.Close()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("unable to decode cached token: %w", err)
	}

	client := config.Client(ctx, &token)
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}
	return svc, nil
}
