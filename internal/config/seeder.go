package config

import (
	"context"
	"errors"
	"log"

	"langlearn-api/internal/adapters/persistence/repositories"
	"langlearn-api/internal/core/domain"
	"langlearn-api/internal/pkg/password"

	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	users repositories.UserRepository
	seed  SeedConfig
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, cfg *Config) *Seeder {
	hasher := password.NewHasher(cfg.Password.BcryptCost)
	return &Seeder{
		users: repositories.NewUserRepository(db, hasher),
		seed:  cfg.Seed,
	}
}

// Run executes all seeders
func (s *Seeder) Run(ctx context.Context) error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedAdminUser(ctx); err != nil {
		return err
	}

	log.Println("✅ Database seeding completed")
	return nil
}

// seedAdminUser creates the bootstrap admin when it does not exist yet
func (s *Seeder) seedAdminUser(ctx context.Context) error {
	if s.seed.AdminPassword == "" {
		log.Println("⚠️ Skipping admin seed: SEED_ADMIN_PASSWORD is not set")
		return nil
	}

	existing, err := s.users.GetByEmail(ctx, s.seed.AdminEmail)
	switch {
	case err == nil:
		return s.ensureAdminRole(ctx, existing)
	case !errors.Is(err, domain.ErrUserNotFound):
		return err
	}

	admin := &domain.User{
		Email:    s.seed.AdminEmail,
		Username: s.seed.AdminUsername,
		Roles:    []domain.Role{domain.RoleAdmin},
	}
	if err := s.users.Create(ctx, admin, s.seed.AdminPassword); err != nil {
		if errors.Is(err, domain.ErrDuplicateIdentity) {
			log.Printf("⚠️ Skipping admin seed: username %q is taken", s.seed.AdminUsername)
			return nil
		}
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Username)
	return nil
}

func (s *Seeder) ensureAdminRole(ctx context.Context, user *domain.User) error {
	if user.HasRole(domain.RoleAdmin) {
		return nil
	}
	return s.users.AddRole(ctx, user.ID, domain.RoleAdmin)
}
