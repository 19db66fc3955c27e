// Package main provides the facilities admin CLI: schema migrations,
// account provisioning and leaderboard inspection against the configured
// database.
package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sbms/facilities-server/internal/auth"
	"github.com/sbms/facilities-server/internal/config"
	"github.com/sbms/facilities-server/internal/database"
	"github.com/sbms/facilities-server/internal/handlers"
	"github.com/sbms/facilities-server/internal/models"
	"github.com/sbms/facilities-server/internal/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "facilities-admin",
		Short:         "Administer the facilities database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(migrateCmd(), seedCmd(), addUserCmd(), leaderboardCmd())
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("facilities-admin version %s\n", handlers.Version)
		},
	})
	return cmd
}

// withStore loads configuration, opens storage and runs fn.
func withStore(ctx context.Context, fn func(db *database.Handle, log *zap.SugaredLogger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// Migrations and seeding are explicit subcommands here.
	cfg.AutoMigrate = false
	cfg.SeedDefaultUsers = false

	logger, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	db, err := database.Open(ctx, cfg, sugar)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db, sugar)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <command> [args...]",
		Short: "Run a goose migration command (up, down, status, version, redo, up-to N)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(db *database.Handle, log *zap.SugaredLogger) error {
				if db.Pool == nil {
					return fmt.Errorf("migrations need STORAGE=%s", config.StoragePostgres)
				}
				if err := database.Migrate(cmd.Context(), db.Pool, args[0], args[1:]...); err != nil {
					return err
				}
				log.Infow("Migration command finished", "command", args[0])
				return nil
			})
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Provision the default admin, officer and student accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(db *database.Handle, log *zap.SugaredLogger) error {
				n, err := database.Seed(cmd.Context(), db.Store, database.DefaultUsers)
				if err != nil {
					return err
				}
				log.Infow("Default users provisioned", "created", n, "existing", len(database.DefaultUsers)-n)
				return nil
			})
		},
	}
}

func addUserCmd() *cobra.Command {
	var (
		role       string
		department string
		password   string
		plain      bool
	)

	cmd := &cobra.Command{
		Use:   "adduser <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := newUser(args[0], models.Role(role), department, password, plain)
			if err != nil {
				return err
			}
			return withStore(cmd.Context(), func(db *database.Handle, log *zap.SugaredLogger) error {
				created, err := db.Store.CreateUser(cmd.Context(), u)
				if err != nil {
					return fmt.Errorf("create user: %w", err)
				}
				if !created {
					return fmt.Errorf("username %q is taken", u.Username)
				}
				log.Infow("User created", "id", u.ID, "username", u.Username, "role", u.Role)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&role, "role", string(models.RoleStudent), "Role (admin, officer, student)")
	cmd.Flags().StringVar(&department, "department", "", "Department, required for officers")
	cmd.Flags().StringVar(&password, "password", "", "Initial password")
	cmd.Flags().BoolVar(&plain, "plain", false, "Store the password without hashing")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// newUser builds the account adduser inserts.
func newUser(username string, role models.Role, department, password string, plain bool) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	if role == models.RoleOfficer && department == "" {
		return nil, fmt.Errorf("officers need --department")
	}
	if role != models.RoleOfficer && department != "" {
		return nil, fmt.Errorf("only officers belong to a department")
	}

	u := &models.User{Username: username, Password: password, Role: role}
	if department != "" {
		u.Department = &department
	}
	if !plain {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return nil, err
		}
		u.Password = hash
	}
	return u, nil
}

func leaderboardCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the top students by points",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(db *database.Handle, log *zap.SugaredLogger) error {
				entries, err := services.NewLeaderboardService(db.Store, nil, log).TopStudents(cmd.Context(), limit)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "RANK\tUSERNAME\tPOINTS")
				for i, e := range entries {
					fmt.Fprintf(tw, "%d\t%s\t%d\n", i+1, e.Username, e.Points)
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", services.DefaultLeaderboardSize, "Number of students to show")
	return cmd
}
