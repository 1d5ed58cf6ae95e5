package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/raysh454/qadetector/internal/widget"
)

func newProjectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	cmd.AddCommand(newProjectCreateCommand())
	cmd.AddCommand(newProjectListCommand())
	cmd.AddCommand(newProjectSettingsCommand())
	cmd.AddCommand(newProjectTokenCommand())
	return cmd
}

func newProjectCreateCommand() *cobra.Command {
	var owner, name, domain string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a domain and print its embed snippet",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.Registry.CreateProject(ctx, strings.ToLower(owner), name, domain)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), p); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), widget.ScriptTag(a.Config.Server.PublicURL, p.Token))
			return nil
		},
	}

	cmd.Flags().StringVarP(&owner, "owner", "o", "", "Owner user id, usually the email (required)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name (default: the domain)")
	cmd.Flags().StringVarP(&domain, "domain", "d", "", "Domain to register (required)")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("domain")
	return cmd
}

func newProjectListCommand() *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an owner's projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			ps, err := a.Registry.ListProjects(ctx, strings.ToLower(owner))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), ps)
		},
	}

	cmd.Flags().StringVarP(&owner, "owner", "o", "", "Owner user id (required)")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func newProjectSettingsCommand() *cobra.Command {
	var accessibility, spelling, htmlValidation, notifications bool

	cmd := &cobra.Command{
		Use:   "settings <project-id>",
		Short: "Toggle checks and notifications; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.Registry.GetProject(ctx, args[0])
			if err != nil {
				return err
			}
			s := p.Settings
			flags := cmd.Flags()
			if flags.Changed("accessibility") {
				s.Accessibility = accessibility
			}
			if flags.Changed("spelling") {
				s.Spelling = spelling
			}
			if flags.Changed("html-validation") {
				s.HTMLValidation = htmlValidation
			}
			if flags.Changed("notifications") {
				s.Notifications = notifications
			}

			p, err = a.Registry.UpdateSettings(ctx, p.ID, s)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p.Settings)
		},
	}

	cmd.Flags().BoolVar(&accessibility, "accessibility", true, "Run the accessibility check")
	cmd.Flags().BoolVar(&spelling, "spelling", true, "Run the spelling check")
	cmd.Flags().BoolVar(&htmlValidation, "html-validation", true, "Run the HTML validation check")
	cmd.Flags().BoolVar(&notifications, "notifications", true, "Send low-score notifications")
	return cmd
}

func newProjectTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token <project-id>",
		Short: "Print the embed token and snippet, issuing a token if missing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			token, err := a.Registry.EnsureToken(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintln(cmd.OutOrStdout(), widget.ScriptTag(a.Config.Server.PublicURL, token))
			return nil
		},
	}
}
