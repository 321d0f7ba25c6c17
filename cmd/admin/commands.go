package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/retreat-admin/backend/internal/auth"
	"github.com/retreat-admin/backend/internal/idcard"
	"github.com/retreat-admin/backend/internal/invitations"
	"github.com/retreat-admin/backend/internal/models"
	"github.com/retreat-admin/backend/internal/roster"
	"github.com/retreat-admin/backend/internal/volunteers"
)

func seedAdminCmd() *cobra.Command {
	var identifier, password, name string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create the bootstrap Admin account if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if identifier == "" {
				identifier = app.cfg.Bootstrap.Identifier
			}
			if password == "" {
				password = app.cfg.Bootstrap.Password
			}
			if name == "" {
				name = app.cfg.Bootstrap.DisplayName
			}
			if identifier == "" {
				return fmt.Errorf("an identifier is required (--identifier or BOOTSTRAP_ADMIN_IDENTIFIER)")
			}
			pool, err := app.pool()
			if err != nil {
				return err
			}
			acct, err := auth.SeedAdmin(app.ctx, auth.NewRepository(pool), identifier, password, name, app.logger)
			if err != nil {
				return fmt.Errorf("failed to seed admin: %w", err)
			}
			fmt.Printf("Admin account %s (%s) is ready\n", acct.Identifier(), acct.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&identifier, "identifier", "", "Email or phone of the admin")
	cmd.Flags().StringVar(&password, "password", "", "Initial password")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	return cmd
}

func issueInvitationCmd() *cobra.Command {
	var email, role, permissions string
	cmd := &cobra.Command{
		Use:   "issue-invitation",
		Short: "Print a signed invitation link for a Google account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, ok := models.ParseRole(role)
			if !ok {
				return fmt.Errorf("unknown role %q", role)
			}
			var perms []string
			for _, p := range strings.Split(permissions, ",") {
				if p = strings.TrimSpace(p); p != "" {
					perms = append(perms, p)
				}
			}
			cfg := app.cfg.Invitation
			issuer := invitations.NewIssuer(cfg.Secret, time.Duration(cfg.TTLHours)*time.Hour, cfg.BaseURL)
			link, grant, err := issuer.Issue(email, r, perms)
			if err != nil {
				return fmt.Errorf("failed to issue invitation: %w", err)
			}
			app.logger.Info("invitation issued", zap.String("email", grant.Email), zap.String("role", string(grant.Role)))
			fmt.Println(link)
			fmt.Printf("Expires: %s\n", grant.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Invitee email")
	cmd.Flags().StringVar(&role, "role", string(models.RoleStaff), "Role granted on acceptance")
	cmd.Flags().StringVar(&permissions, "permissions", "", "Comma-separated module keys")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func exportCardsCmd() *cobra.Command {
	var ids []string
	var out string
	var all bool
	cmd := &cobra.Command{
		Use:   "export-cards",
		Short: "Render participant ID cards into a PDF file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := app.pool()
			if err != nil {
				return err
			}
			participants := roster.NewRepository(pool)

			var selected []uuid.UUID
			if all {
				entries, err := participants.List(app.ctx)
				if err != nil {
					return fmt.Errorf("failed to list participants: %w", err)
				}
				for _, p := range entries {
					selected = append(selected, p.ID)
				}
			}
			for _, raw := range ids {
				id, err := uuid.Parse(strings.TrimSpace(raw))
				if err != nil {
					return fmt.Errorf("invalid participant id %q", raw)
				}
				selected = append(selected, id)
			}
			if len(selected) == 0 {
				return fmt.Errorf("pass --ids or --all")
			}

			renderer, err := idcard.NewRenderer()
			if err != nil {
				return err
			}
			ev := app.cfg.Event
			svc := idcard.NewService(renderer, idcard.Header{
				Title:       ev.Title,
				Subtitle:    ev.Subtitle,
				DateLine:    ev.DateLine,
				AddressLine: ev.AddressLine,
			}, participants, volunteers.NewRepository(pool), nil, app.logger)

			exp, err := svc.BulkPDF(app.ctx, selected)
			if err != nil {
				return fmt.Errorf("failed to export cards: %w", err)
			}
			if out == "" {
				out = exp.Filename
			}
			if err := os.WriteFile(out, exp.Body, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", out, err)
			}
			fmt.Printf("Wrote %d cards on %d pages to %s\n", exp.Count, idcard.PageCount(exp.Count), out)
			if len(exp.Skipped) > 0 {
				fmt.Printf("Skipped %d entries without an assigned code\n", len(exp.Skipped))
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "Participant ids (comma-separated)")
	cmd.Flags().BoolVar(&all, "all", false, "Export every participant with an assigned code")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (defaults to ID_Cards_<date>.pdf)")
	return cmd
}
