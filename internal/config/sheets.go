package config

import (
	"os"

	"github.com/Veraticus/charge-tax-intel/internal/sheets"
	"github.com/spf13/viper"
)

// LoadSheetsConfig loads Google Sheets configuration from Viper and environment variables.
// It follows this precedence:
// 1. Viper configuration (from config file or TAXINTEL_ env vars)
// 2. Direct environment variables (GOOGLE_SHEETS_*)
// 3. Default values
func LoadSheetsConfig() (*sheets.Config, error) {
	config := SheetsConfigFrom(viper.GetViper())

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// SheetsConfigFrom resolves sheets settings without validating them, which
// `taxintel sheets auth` needs before a token exists.
func SheetsConfigFrom(v *viper.Viper) sheets.Config {
	config := sheets.DefaultConfig()

	config.ServiceAccountPath = ExpandPath(firstSet(v.GetString("sheets.service_account_path"), os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH")))
	config.ClientID = firstSet(v.GetString("sheets.client_id"), os.Getenv("GOOGLE_SHEETS_CLIENT_ID"))
	config.ClientSecret = firstSet(v.GetString("sheets.client_secret"), os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET"))
	config.RefreshToken = firstSet(v.GetString("sheets.refresh_token"), os.Getenv("GOOGLE_SHEETS_REFRESH_TOKEN"))
	config.SpreadsheetID = firstSet(v.GetString("sheets.spreadsheet_id"), os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"))
	config.SpreadsheetName = firstSet(v.GetString("sheets.spreadsheet_name"), os.Getenv("GOOGLE_SHEETS_SPREADSHEET_NAME"), config.SpreadsheetName)
	config.SheetTitle = firstSet(v.GetString("sheets.sheet_title"), config.SheetTitle)
	config.TimeZone = firstSet(v.GetString("sheets.time_zone"), config.TimeZone)

	// A service account never needs the cached user token.
	if config.ServiceAccountPath == "" {
		config.TokenFile = ExpandPath(firstSet(v.GetString("sheets.token_file"), os.Getenv("GOOGLE_SHEETS_TOKEN_FILE"), DefaultTokenFile()))
	}
	if v.IsSet("sheets.formatting") {
		config.EnableFormatting = v.GetBool("sheets.formatting")
	}

	return config
}

func firstSet(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
