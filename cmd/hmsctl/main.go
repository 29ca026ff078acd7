package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/hms-api/config"
	"github.com/jwalitptl/hms-api/internal/model"
	"github.com/jwalitptl/hms-api/internal/service/schedule"
	"github.com/jwalitptl/hms-api/pkg/auth"
	"github.com/jwalitptl/hms-api/pkg/validator"
)

// errConflicts makes `hmsctl check` exit non-zero when the draft collides.
var errConflicts = errors.New("draft conflicts with existing schedules")

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "hmsctl",
		Short:        "Hospital scheduling admin tools",
		SilenceUsage: true,
	}
	root.AddCommand(checkCmd())
	root.AddCommand(tokenCmd())
	return root
}

func checkCmd() *cobra.Command {
	var schedulesPath, draftPath, exclude string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a schedule draft against saved schedules offline",
		RunE: func(cmd *cobra.Command, args []string) error {
			var existing []*model.Schedule
			if err := readJSON(schedulesPath, &existing); err != nil {
				return err
			}
			for _, s := range existing {
				if s.Status == "" {
					s.Status = model.ScheduleStatusActive
				}
			}

			var draft model.ScheduleDraft
			if err := readJSON(draftPath, &draft); err != nil {
				return err
			}
			draft.WorkingDays = draft.WorkingDays.Normalize()
			if err := validator.New().Validate(&draft); err != nil {
				return fmt.Errorf("invalid draft: %w", err)
			}

			var excludeID *uuid.UUID
			if exclude != "" {
				id, err := uuid.Parse(exclude)
				if err != nil {
					return fmt.Errorf("invalid --exclude: %w", err)
				}
				excludeID = &id
			}

			conflicts := schedule.Describe(draft, schedule.CheckOverlaps(draft, existing, excludeID))
			return printConflicts(cmd.OutOrStdout(), conflicts)
		},
	}

	cmd.Flags().StringVar(&schedulesPath, "schedules", "", "JSON file with the saved schedules")
	cmd.Flags().StringVar(&draftPath, "draft", "", "JSON file with the draft to check")
	cmd.Flags().StringVar(&exclude, "exclude", "", "id of the schedule being edited")
	_ = cmd.MarkFlagRequired("schedules")
	_ = cmd.MarkFlagRequired("draft")
	return cmd
}

func printConflicts(w io.Writer, conflicts []model.Conflict) error {
	if len(conflicts) == 0 {
		fmt.Fprintln(w, "no conflicts")
		return nil
	}

	fmt.Fprintf(w, "%d conflicting schedule(s):\n", len(conflicts))
	for _, c := range conflicts {
		fmt.Fprintf(w, "  %s  %s  %s-%s (overlap %s-%s)\n",
			c.Schedule.ID, c.CommonDays, c.Schedule.StartTime, c.Schedule.EndTime, c.From, c.To)
	}
	return errConflicts
}

func tokenCmd() *cobra.Command {
	var subject, role, secret string
	var expiry time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a JWT for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			issuer := "hms-api"
			if secret == "" {
				cfg, err := config.LoadConfig()
				if err != nil {
					return err
				}
				secret, issuer = cfg.Auth.Secret, cfg.Auth.Issuer
				if expiry == 0 {
					expiry = time.Duration(cfg.Auth.ExpiryHours) * time.Hour
				}
			}
			if expiry == 0 {
				expiry = 24 * time.Hour
			}

			token, err := auth.NewJWTService(secret, issuer, expiry).GenerateToken(subject, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "", "token subject, recorded as the audit actor")
	cmd.Flags().StringVar(&role, "role", auth.RoleStaff, "admin, staff or doctor")
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (defaults to auth.secret from config)")
	cmd.Flags().DurationVar(&expiry, "expiry", 0, "token lifetime")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
