package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/garyjia/travel-approval/internal/application/port"
	"github.com/garyjia/travel-approval/internal/config"
	"github.com/garyjia/travel-approval/internal/domain/entity"
	"github.com/garyjia/travel-approval/internal/infrastructure/auth"
	"github.com/garyjia/travel-approval/migrations"
	"github.com/garyjia/travel-approval/pkg/database"
	"github.com/garyjia/travel-approval/pkg/utils"
)

func newMigrateCmd(flags *globalFlags) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			logger, err := utils.NewCLILogger(flags.verbose)
			if err != nil {
				return err
			}
			defer logger.Sync()

			db, err := database.New(database.Config{Path: cfg.Database.Path}, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			migrator := database.NewMigrator(db, logger)
			var listed []database.Migration
			if dryRun {
				listed, err = migrator.Pending(cmd.Context(), migrations.FS)
			} else {
				listed, err = migrator.Run(cmd.Context(), migrations.FS)
			}
			if err != nil {
				return err
			}

			versions := make([]int, 0, len(listed))
			for _, m := range listed {
				versions = append(versions, m.Version)
			}
			key := "applied"
			if dryRun {
				key = "pending"
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"database": cfg.Database.Path,
				key:        versions,
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list pending migrations without applying them")
	return cmd
}

func newTimelineCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "timeline <request-id>",
		Short: "Print the audit timeline of a travel request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer closeContainer(c)

			timeline, err := c.Services().Requests.Timeline(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), timeline)
		},
	}
}

func newRedispatchCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "redispatch <audit-log-id>",
		Short: "Send the notifications for an audit entry again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || logID <= 0 {
				return fmt.Errorf("invalid audit log id %q", args[0])
			}

			c, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer closeContainer(c)

			services := c.Services()
			log, err := services.Audit.GetByID(cmd.Context(), logID)
			if err != nil {
				return err
			}
			if err := services.Notification.Notify(cmd.Context(), log); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Notifications for audit log %d on request %s dispatched.\n", log.LogID, log.RequestID)
			return nil
		},
	}
}

func newSendTestEmailCmd(flags *globalFlags) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "send-test-email",
		Short: "Render the general template and send it through the configured transport",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := utils.ValidateEmail(to); err != nil {
				return err
			}

			c, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer closeContainer(c)

			bundle := c.Email()
			subject, body, err := bundle.Renderer.Render(port.TemplateGeneral, port.EmailData{
				Salutation: "Operator",
				RequestID:  "TEST",
				Message:    "This is a test message from the travel approval service.",
			})
			if err != nil {
				return err
			}

			if err := bundle.Sender.Send(cmd.Context(), port.EmailMessage{
				To:       []string{utils.NormalizeEmail(to)},
				Subject:  subject,
				HTMLBody: body,
			}); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Test email sent to %s.\n", to)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Recipient address (required)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newHashPasswordCmd() *cobra.Command {
	var cost int

	cmd := &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the bcrypt hash of a password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := utils.ValidatePassword(args[0]); err != nil {
				return err
			}
			hash, err := auth.NewBcryptHasher(cost).Hash(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	cmd.Flags().IntVar(&cost, "cost", 12, "bcrypt cost")
	return cmd
}

func newUserCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUserAddCmd(flags))
	return cmd
}

func newUserAddCmd(flags *globalFlags) *cobra.Command {
	var (
		name       string
		email      string
		role       string
		department string
		password   string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user who can sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := utils.ValidateEmail(email); err != nil {
				return err
			}
			if err := utils.ValidatePassword(password); err != nil {
				return err
			}
			switch role {
			case "Admin", "Manager", "Employee":
			default:
				return errors.New("role must be Admin, Manager or Employee")
			}

			c, err := bootstrap(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer closeContainer(c)

			user, err := c.Services().Auth.Register(cmd.Context(), &entity.User{
				EmployeeName:  name,
				EmployeeEmail: utils.NormalizeEmail(email),
				UserRole:      role,
				Department:    department,
				IsActive:      true,
			}, password)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), user)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Full name (required)")
	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&role, "role", "Employee", "Admin, Manager or Employee")
	cmd.Flags().StringVar(&department, "department", "", "Department")
	cmd.Flags().StringVar(&password, "password", "", "Initial password (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
