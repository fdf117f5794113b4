package main

import (
	"fmt"
	"time"

	"github.com/Veraticus/charge-tax-intel/internal/cli"
	"github.com/Veraticus/charge-tax-intel/internal/common"
	"github.com/Veraticus/charge-tax-intel/internal/config"
	"github.com/Veraticus/charge-tax-intel/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func sheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Manage the Google Sheets export",
	}
	cmd.AddCommand(sheetsAuthCmd())
	return cmd
}

func sheetsAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Google Sheets",
		Long: `Run the OAuth2 consent flow in your browser and cache the token so
'taxintel analyze --sheets' can export without prompting.

The client ID and secret come from flags, sheets.client_id and
sheets.client_secret, or GOOGLE_SHEETS_CLIENT_ID and
GOOGLE_SHEETS_CLIENT_SECRET.`,
		Args: cobra.NoArgs,
		RunE: runSheetsAuth,
	}

	cmd.Flags().String("client-id", "", "OAuth2 client ID")
	cmd.Flags().String("client-secret", "", "OAuth2 client secret")
	cmd.Flags().String("callback", sheets.DefaultCallbackAddr, "Address for the local OAuth2 callback")
	cmd.Flags().Duration("timeout", 5*time.Minute, "How long to wait for consent")

	return cmd
}

func runSheetsAuth(cmd *cobra.Command, _ []string) error {
	cfg := config.SheetsConfigFrom(viper.GetViper())
	if id, _ := cmd.Flags().GetString("client-id"); id != "" {
		cfg.ClientID = id
	}
	if secret, _ := cmd.Flags().GetString("client-secret"); secret != "" {
		cfg.ClientSecret = secret
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return common.NewUserError("A client ID and secret are required. Pass --client-id and --client-secret", nil)
	}
	if cfg.TokenFile == "" {
		cfg.TokenFile = config.DefaultTokenFile()
	}

	callback, _ := cmd.Flags().GetString("callback")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	out := cmd.OutOrStdout()

	token, err := sheets.GetOrCreateToken(cmd.Context(), sheets.OAuth2Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenFile:    cfg.TokenFile,
		CallbackAddr: callback,
		Timeout:      timeout,
		OpenURL: func(url string) {
			fmt.Fprintln(out, cli.FormatInfo("Open this URL to authorize access:"))
			fmt.Fprintln(out, url)
		},
	})
	if err != nil {
		return common.NewUserError("Authorization failed", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess("Authorized. Token saved to "+cfg.TokenFile))
	if !token.Expiry.IsZero() {
		fmt.Fprintln(out, cli.KeyValue("Access token expires", token.Expiry.Local().Format(time.RFC1123)))
	}
	return nil
}
