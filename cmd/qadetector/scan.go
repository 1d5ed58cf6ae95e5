package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/raysh454/qadetector/internal/model"
)

func newScanCommand() *cobra.Command {
	var (
		token    string
		pageURL  string
		htmlFile string
		textFile string
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan one page and print the result",
		Long: `Scan one page of the project owning --token. With --html-file the page is
taken from disk; otherwise it is loaded with the configured extractor.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			req := model.ScanRequest{Token: token, URL: pageURL, TriggeredBy: model.TriggerManual}
			if htmlFile != "" {
				html, err := os.ReadFile(htmlFile)
				if err != nil {
					return fmt.Errorf("read html: %w", err)
				}
				req.Content = &model.Content{HTML: string(html)}
				if textFile != "" {
					text, err := os.ReadFile(textFile)
					if err != nil {
						return fmt.Errorf("read text: %w", err)
					}
					req.Content.Text = string(text)
				}
			}

			res, err := a.Scanner.Scan(ctx, req)
			if err != nil {
				return err
			}
			if res.Persist != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: scan not stored: %v\n", res.Persist)
			}
			return printJSON(cmd.OutOrStdout(), res.Scan)
		},
	}

	cmd.Flags().StringVarP(&token, "token", "t", "", "Project embed token (required)")
	cmd.Flags().StringVarP(&pageURL, "url", "u", "", "Page URL (required)")
	cmd.Flags().StringVar(&htmlFile, "html-file", "", "Read the page HTML from a file instead of loading it")
	cmd.Flags().StringVar(&textFile, "text-file", "", "Visible text to spell check, used with --html-file")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}
