package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/frahmantamala/helpdesk/internal"
	"github.com/frahmantamala/helpdesk/internal/auth"
	coreuser "github.com/frahmantamala/helpdesk/internal/core/user"
	"github.com/frahmantamala/helpdesk/internal/db"
	"github.com/frahmantamala/helpdesk/internal/user"
	userPostgres "github.com/frahmantamala/helpdesk/internal/user/postgres"
	"github.com/frahmantamala/helpdesk/pkg/logger"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed a staff account",
	Long:  `Create a bootstrap admin or operator account. Registration only ever creates plain users.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		role := coreuser.Role(seedRole)
		if !role.IsValid() || role == coreuser.RoleUser {
			log.Fatalf("seed role must be admin or operator, got %q", seedRole)
		}

		lg := logger.LoggerWrapper()
		handle, err := db.Open(ctx, cfg.Database, lg)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer handle.Close()

		svc := user.NewService(
			userPostgres.NewUserRepository(handle.Gorm),
			auth.NewBcryptHasher(cfg.Security.BCryptCost),
			lg,
		)

		identity, err := svc.Create(ctx, user.CreateUserDTO{
			Email:    seedEmail,
			Password: seedPassword,
			Role:     &role,
		})
		if errors.Is(err, internal.ErrDuplicateEmail) {
			fmt.Println("account already exists:", seedEmail)
			return
		}
		if err != nil {
			log.Fatalf("failed to seed %s: %v", seedEmail, err)
		}

		fmt.Printf("Seeded %s account: %s (id %d)\n", identity.Role, identity.Email, identity.ID)
	},
}
