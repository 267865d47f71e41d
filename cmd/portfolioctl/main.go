// main.go - Admin control tool for the portfolio backend
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"portfolio/internal"
	"portfolio/internal/config"
	"portfolio/internal/jobs"
	"portfolio/internal/messages"
	"portfolio/internal/pkg/geoip"
	"portfolio/internal/seeder"
	"portfolio/internal/users"
	"portfolio/internal/visitors"
)

const (
	defaultShutdownTimeout = 30 * time.Second
)

var stdin = bufio.NewReader(os.Stdin)

// Command defines the interface for all command implementations
type Command interface {
	// Name returns the command name
	Name() string
	// Description returns the command description
	Description() string
	// Execute runs the command with the given app and args
	Execute(ctx context.Context, app *internal.Application, args []string) error
}

// The set of available commands
var commands = []Command{
	&CreateAdminCommand{},
	&ChangePasswordCommand{},
	&MigrateCommand{},
	&SeedCommand{},
	&SweepUploadsCommand{},
	&LookupCountryCommand{},
	&StatusCommand{},
	&HelpCommand{},
}

func main() {
	flag.Parse()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v, initiating cleanup...", sig)
		cancel()
	}()

	cmdName, args := parseArgs()

	cmd := findCommand(cmdName)
	if cmd == nil {
		showUsageAndExit()
	}

	app, err := internal.NewApp()
	if err != nil {
		log.Printf("Warning: Failed to initialize app: %v", err)
		log.Println("Proceeding with limited functionality...")
	}

	err = cmd.Execute(ctx, app, args)

	if app != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		if shutdownErr := app.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Printf("Warning: Cleanup error: %v", shutdownErr)
		}
		cancelShutdown()
	}

	if err != nil {
		log.Fatalf("Command failed: %v", err)
	}
	log.Printf("Command %s completed successfully", cmd.Name())
}

// CreateAdminCommand creates the single admin account
type CreateAdminCommand struct{}

func (c *CreateAdminCommand) Name() string        { return "create-admin" }
func (c *CreateAdminCommand) Description() string { return "Creates the admin account" }

func (c *CreateAdminCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return fmt.Errorf("app initialization failed, cannot connect to database")
	}

	email := config.GetConfig().AdminEmail
	if len(args) >= 1 {
		email = args[0]
	}

	password, err := passwordArg(args, 1)
	if err != nil {
		return err
	}

	log.Printf("Setting up admin account with email: %s", email)

	if err := users.CreateAdminUser(app.DBManager.GetConnection(), email, password); err != nil {
		if errors.Is(err, users.ErrUserExists) {
			log.Println("An admin account already exists, use change-password instead")
			return nil
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}
	return nil
}

// ChangePasswordCommand resets the admin password without the current one
type ChangePasswordCommand struct{}

func (c *ChangePasswordCommand) Name() string { return "change-password" }
func (c *ChangePasswordCommand) Description() string {
	return "Changes the admin password [email] [password]"
}

func (c *ChangePasswordCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return fmt.Errorf("app initialization failed, cannot connect to database")
	}
	db := app.DBManager.GetConnection()

	var email string
	if len(args) >= 1 {
		email = args[0]
	} else {
		admin, err := users.FindAdmin(db)
		if err != nil {
			return fmt.Errorf("admin lookup failed: %w", err)
		}
		email = admin.Email
	}

	if _, err := users.FindByEmail(db, email); err != nil {
		return fmt.Errorf("user lookup failed: %w", err)
	}

	password, err := passwordArg(args, 1)
	if err != nil {
		return err
	}

	if err := users.ChangePassword(db, email, password); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	fmt.Println("Password updated successfully")
	return nil
}

// MigrateCommand runs database migrations
type MigrateCommand struct{}

func (c *MigrateCommand) Name() string        { return "migrate" }
func (c *MigrateCommand) Description() string { return "Runs database migrations" }

func (c *MigrateCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return fmt.Errorf("app initialization failed, cannot run migrations")
	}

	log.Println("Running database migrations...")
	if err := app.DBManager.MigrateDatabase(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Println("Migrations completed successfully")
	return nil
}

// SeedCommand stores default content and optionally synthetic visitors
type SeedCommand struct{}

func (c *SeedCommand) Name() string { return "seed" }
func (c *SeedCommand) Description() string {
	return "Seeds default content [-visitors N]"
}

func (c *SeedCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	visitorCount := fs.Int("visitors", 0, "number of synthetic visits to record")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if app == nil {
		return fmt.Errorf("unable to initialise app")
	}

	if *visitorCount > 0 && config.GetConfig().IsProduction() {
		return fmt.Errorf("refusing to seed synthetic visitors in production")
	}

	se := seeder.NewSeeder(app.DBManager, app.Logger, *visitorCount)

	created, err := se.SeedContent(ctx)
	if err != nil {
		return err
	}
	log.Printf("Created %d default sections: %s", len(created), strings.Join(created, ", "))

	if *visitorCount > 0 {
		return se.SeedVisitors(ctx)
	}
	return nil
}

// SweepUploadsCommand deletes unreferenced uploads once
type SweepUploadsCommand struct{}

func (c *SweepUploadsCommand) Name() string { return "sweep-uploads" }
func (c *SweepUploadsCommand) Description() string {
	return "Deletes stored files no longer referenced by content [-grace 1h]"
}

func (c *SweepUploadsCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	fs := flag.NewFlagSet("sweep-uploads", flag.ContinueOnError)
	grace := fs.Duration("grace", time.Hour, "keep files younger than this")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if app == nil {
		return fmt.Errorf("unable to initialise app")
	}

	job := jobs.NewUploadSweepJob(app.DBManager, app.Store, app.Logger, *grace)
	removed, err := job.Sweep(ctx)
	if err != nil {
		return err
	}

	for _, key := range removed {
		fmt.Printf("  removed %s\n", key)
	}
	fmt.Printf("Removed %d files\n", len(removed))
	return nil
}

// LookupCountryCommand resolves an IP through the GeoLite2 database
type LookupCountryCommand struct{}

func (c *LookupCountryCommand) Name() string        { return "lookup-country" }
func (c *LookupCountryCommand) Description() string { return "Resolves an IP to a country code <ip>" }

func (c *LookupCountryCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: %s <ip>", c.Name())
	}

	country := geoip.CountryForIP(args[0])
	if country == "" {
		fmt.Printf("%s: unknown (database: %s)\n", args[0], config.GetConfig().GeoDBPath)
		return nil
	}
	fmt.Printf("%s: %s\n", args[0], country)
	return nil
}

// StatusCommand implements a command to check the system status
type StatusCommand struct{}

func (c *StatusCommand) Name() string        { return "status" }
func (c *StatusCommand) Description() string { return "Shows the current system status" }

func (c *StatusCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	if app == nil {
		return fmt.Errorf("cannot check status: app initialization failed")
	}

	db := app.DBManager.GetConnection()

	var userCount int64
	if err := db.Model(&users.User{}).Count(&userCount).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	visitorCount, err := visitors.CountVisitors(db)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	messageCount, err := messages.CountMessages(db)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	unread, err := messages.CountUnread(db)
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}

	log.Println("System Status:")
	log.Println("- Database: Connected")
	log.Printf("- Admin accounts: %d", userCount)
	log.Printf("- Visitors: %d", visitorCount)
	log.Printf("- Messages: %d (%d unread)", messageCount, unread)

	objects, err := app.Store.List(ctx)
	if err != nil {
		log.Printf("- Uploads: unavailable (%v)", err)
	} else {
		log.Printf("- Uploads: %d files", len(objects))
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB: %w", err)
	}

	stats := sqlDB.Stats()
	log.Printf("- Max Open Connections: %d", stats.MaxOpenConnections)
	log.Printf("- Open Connections: %d", stats.OpenConnections)
	log.Printf("- In Use: %d", stats.InUse)
	log.Printf("- Idle: %d", stats.Idle)

	return nil
}

// HelpCommand implements a command to show usage information
type HelpCommand struct{}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Description() string { return "Shows usage information" }

func (c *HelpCommand) Execute(ctx context.Context, app *internal.Application, args []string) error {
	printUsage()
	return nil
}

// Helper functions

// passwordArg returns args[idx] or prompts twice without echo.
func passwordArg(args []string, idx int) (string, error) {
	if len(args) > idx {
		return args[idx], nil
	}

	first, err := readPassword("Enter new password: ")
	if err != nil {
		return "", err
	}
	second, err := readPassword("Confirm new password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", fmt.Errorf("passwords do not match")
	}
	if first == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	return first, nil
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := stdin.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimSpace(line), nil
	}

	raw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// parseArgs parses the command name and arguments
func parseArgs() (string, []string) {
	args := flag.Args()
	if len(args) == 0 {
		return "help", []string{}
	}
	return args[0], args[1:]
}

// findCommand finds a command by name
func findCommand(name string) Command {
	for _, cmd := range commands {
		if cmd.Name() == name {
			return cmd
		}
	}
	return nil
}

func printUsage() {
	fmt.Println("Usage: portfolioctl [command] [args...]")
	fmt.Println("Available commands:")

	for _, cmd := range commands {
		fmt.Printf("  %s: %s\n", cmd.Name(), cmd.Description())
	}
}

// showUsageAndExit shows usage information and exits
func showUsageAndExit() {
	printUsage()
	os.Exit(1)
}
