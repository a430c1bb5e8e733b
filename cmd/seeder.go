package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	accountPostgres "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/account/postgres"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/auth"
	authPostgres "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/auth/postgres"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/core/events"
	"github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/project"
	projectPostgres "github.com/hemanthsrinivasb/kaveesha-timekeeper/internal/project/postgres"
)

var (
	seedAdminEmail    string
	seedAdminPassword string
)

// sampleProjects always includes the leave and holiday buckets the
// dashboard excludes from approved totals.
var sampleProjects = []project.CreateProjectDTO{
	{Name: "Internal", Description: "Internal tooling and meetings"},
	{Name: "Client Onboarding", Description: "Customer onboarding work"},
	{Name: "Leave", Description: "Annual, sick and personal leave"},
	{Name: "Holiday", Description: "Public holidays"},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with an admin account and sample projects",
	Long:  `Seed the database with an admin account and sample projects for development and testing purposes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return runSeed(ctx)
	},
}

func runSeed(ctx context.Context) error {
	cfg, lg, err := setup()
	if err != nil {
		return err
	}

	password := seedAdminPassword
	if password == "" {
		password = os.Getenv("SEED_ADMIN_PASSWORD")
	}
	if password == "" {
		return errors.New("admin password is required: pass --admin-password or set SEED_ADMIN_PASSWORD")
	}

	db, err := initDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	gdb, err := initGorm(db)
	if err != nil {
		return err
	}

	tokens := auth.NewJWTTokenGenerator(cfg.Security.JWTAccessSecret, cfg.Security.JWTRefreshSecret,
		cfg.Security.AccessTokenDuration, cfg.Security.RefreshTokenDuration)
	authRepo := authPostgres.NewRepository(gdb)
	authService := auth.NewService(authRepo, tokens, cfg.Security.BCryptCost, lg)
	accountRepo := accountPostgres.NewAccountRepository(gdb)

	adminID, err := authService.CreateUser(ctx, seedAdminEmail, password, "Administrator")
	switch {
	case errors.Is(err, auth.ErrEmailRegistered):
		cred, lookupErr := authRepo.GetCredentialByEmail(ctx, seedAdminEmail)
		if lookupErr != nil {
			return fmt.Errorf("failed to look up admin account: %w", lookupErr)
		}
		adminID = cred.ID
		fmt.Println("admin account already exists; ensuring role:", seedAdminEmail)
	case err != nil:
		return fmt.Errorf("failed to create admin account: %w", err)
	default:
		fmt.Println("Seeded admin account:", seedAdminEmail)
	}

	if err := accountRepo.UpsertRole(ctx, adminID, string(auth.RoleAdmin)); err != nil {
		return fmt.Errorf("failed to grant admin role: %w", err)
	}
	if err := accountRepo.UpdateProfile(ctx, adminID, map[string]interface{}{"full_name": "Administrator"}); err != nil {
		return fmt.Errorf("failed to update admin profile: %w", err)
	}

	admin := &auth.Session{AccountID: adminID, Email: seedAdminEmail, Role: auth.RoleAdmin}
	projects := project.NewService(projectPostgres.NewProjectRepository(gdb), events.NewEventBus(lg), lg)
	for _, dto := range sampleProjects {
		_, err := projects.CreateProject(ctx, admin, dto)
		if errors.Is(err, project.ErrDuplicateProject) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to seed project %s: %w", dto.Name, err)
		}
		fmt.Printf("Seeded project: %s\n", dto.Name)
	}

	fmt.Println("Seed complete")
	return nil
}

func init() {
	seedCmd.Flags().StringVar(&seedAdminEmail, "admin-email", "admin@timekeeper.local", "email of the seeded admin account")
	seedCmd.Flags().StringVar(&seedAdminPassword, "admin-password", "", "password of the seeded admin account (or SEED_ADMIN_PASSWORD)")
}
