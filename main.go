// main.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"kitchenops/internal/auth"
	"kitchenops/internal/config"
	"kitchenops/internal/data"
	"kitchenops/internal/logger"
	"kitchenops/internal/prep"
	"kitchenops/internal/validation"
)

var rootCmd = &cobra.Command{
	Use:   "kitchenops",
	Short: "Kitchen prep operations service",
	Long: `kitchenops serves the stations, menu, par level, sales and prep list API
used by kitchen tablets and the admin dashboard.

Running without a subcommand is the same as "kitchenops serve".`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the prep list for a date from par levels",
	Long: `Generate (or regenerate) the prep list for a date without going through HTTP.

Existing tasks for the date are replaced. Locked lists are left untouched.`,
	RunE: runGenerate,
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage staff profiles",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a staff profile and print a bearer token for it",
	RunE:  runUserCreate,
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a bearer token for an existing profile",
	RunE:  runToken,
}

func init() {
	generateCmd.Flags().String("date", "", "prep date (YYYY-MM-DD)")
	generateCmd.Flags().String("user", "", "profile id recorded as the list creator")
	_ = generateCmd.MarkFlagRequired("date")

	userCreateCmd.Flags().String("name", "", "full name")
	userCreateCmd.Flags().String("role", data.RoleCook, "role: admin, chef or cook")
	userCreateCmd.Flags().String("station", "", "home station id")
	_ = userCreateCmd.MarkFlagRequired("name")

	tokenCmd.Flags().String("user", "", "profile id")
	tokenCmd.Flags().Duration("ttl", 0, "token lifetime (defaults to TOKEN_TTL_HOURS)")
	_ = tokenCmd.MarkFlagRequired("user")

	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd, generateCmd, userCmd, tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads .env and the environment.
func loadConfig() config.Config {
	config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	setLocalTimeZone(cfg.Logger.TimeZone)
	return cfg
}

// setLocalTimeZone makes the daily cleanup schedule follow the kitchen's clock.
func setLocalTimeZone(name string) {
	if name == "" || name == "Local" {
		return
	}
	if loc, err := time.LoadLocation(name); err == nil {
		time.Local = loc
	}
}

func openStore(ctx context.Context, cfg config.Config) (*data.Store, error) {
	dialect, err := data.ParseDialect(cfg.DatabaseDriver)
	if err != nil {
		return nil, err
	}
	store, err := data.Open(dialect, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()

	if err := logger.SetupLogger(cfg.Logger); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Only NOW is logging safe to use!
	logger.LogInfo("Environment loaded. Logger ready.")
	config.LogCurrentEnvironment(cfg)

	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	return NewApp(cfg, store).Run(cmd.Context())
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg := loadConfig()
	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "Schema is up to date (%s)\n", store.Dialect())
	return nil
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	date, _ := cmd.Flags().GetString("date")
	user, _ := cmd.Flags().GetString("user")
	if !validation.IsDate(date) {
		return fmt.Errorf("invalid --date %q: use YYYY-MM-DD", date)
	}

	cfg := loadConfig()
	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var createdBy *string
	if user != "" {
		createdBy = &user
	}

	res, err := prep.NewGenerator(store, nil).Generate(cmd.Context(), date, createdBy)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Prep list %s for %s: %d task(s)\n", res.ID, res.PrepDate, res.TaskCount)
	return nil
}

func runUserCreate(cmd *cobra.Command, _ []string) error {
	name, _ := cmd.Flags().GetString("name")
	role, _ := cmd.Flags().GetString("role")
	station, _ := cmd.Flags().GetString("station")

	role = strings.ToLower(role)
	switch role {
	case data.RoleAdmin, data.RoleChef, data.RoleCook:
	default:
		return fmt.Errorf("invalid --role %q: want admin, chef or cook", role)
	}

	cfg := loadConfig()
	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	in := data.NewProfile{FullName: &name, Role: role}
	if station != "" {
		in.StationID = &station
	}
	profile, err := store.InsertProfile(cmd.Context(), in)
	if err != nil {
		return err
	}

	token, err := auth.GenerateToken(profile.ID, cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s profile %s\n", profile.Role, profile.ID)
	fmt.Fprintf(out, "Token: %s\n", token)
	return nil
}

func runToken(cmd *cobra.Command, _ []string) error {
	user, _ := cmd.Flags().GetString("user")
	ttl, _ := cmd.Flags().GetDuration("ttl")

	cfg := loadConfig()
	if ttl <= 0 {
		ttl = cfg.TokenTTL
	}
	store, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	profile, err := store.GetProfile(cmd.Context(), user)
	if err != nil {
		return err
	}
	token, err := auth.GenerateToken(profile.ID, cfg.JWTSecret, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
