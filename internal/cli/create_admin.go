package cli

import (
	"flag"
	"fmt"
	"io"
	"os"

	"gorm.io/gorm/logger"

	"github.com/mrlokans/staffmanager/internal/auth"
	"github.com/mrlokans/staffmanager/internal/config"
	"github.com/mrlokans/staffmanager/internal/database"
	"github.com/mrlokans/staffmanager/internal/entities"
)

// CreateAdminCommand creates an administrator account from the shell.
type CreateAdminCommand struct {
	Username     string
	Email        string
	Password     string
	DatabasePath string
	BcryptCost   int

	out io.Writer
}

func NewCreateAdminCommand() *CreateAdminCommand {
	return &CreateAdminCommand{out: os.Stdout}
}

func (cmd *CreateAdminCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)

	fs.StringVar(&cmd.Username, "username", "admin", "Username of the new administrator")
	fs.StringVar(&cmd.Email, "email", config.DefaultAdminEmail, "Email address of the new administrator")
	fs.StringVar(&cmd.Password, "password", "", "Password, at least 12 characters (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")
	fs.IntVar(&cmd.BcryptCost, "bcrypt-cost", 12, "bcrypt cost factor")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-admin -password <password> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create an account with the Admin role.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s create-admin -username head -email head@library.test -password 'a long passphrase'\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Password == "" {
		return fmt.Errorf("required flag -password not provided")
	}
	if len(cmd.Password) < auth.MinPasswordLength {
		return auth.ErrPasswordTooShort
	}

	return nil
}

func (cmd *CreateAdminCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath, database.WithLogLevel(logger.Warn))
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	service := auth.NewService(db.DB, config.Auth{
		Mode:       config.AuthModeLocal,
		BcryptCost: cmd.BcryptCost,
	})

	user, err := service.CreateUser(cmd.Username, cmd.Email, cmd.Password, entities.UserRoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to create administrator: %w", err)
	}

	fmt.Fprintf(cmd.out, "Created administrator %q (id %d) in %s\n", user.Username, user.ID, cmd.DatabasePath)
	return nil
}
