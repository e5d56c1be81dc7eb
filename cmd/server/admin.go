package main

import (
	"fmt"
	"time"

	"grocery_backend/internal/database"
	"grocery_backend/internal/middleware"
	"grocery_backend/internal/models"
	"grocery_backend/internal/repositories"
	"grocery_backend/pkg/utils"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			return database.Migrate(cmd.Context(), db)
		},
	}
}

var seedCategories = []string{"fruit", "vegetables", "bakery", "dairy", "snacks", "drinks"}

func seedCmd() *cobra.Command {
	var (
		count int
		seed  int64
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert fake catalog products for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			faker := gofakeit.New(seed)
			products := repositories.NewProductRepository(db)
			if _, err := repositories.NewSettingsRepository(db).GetOrCreate(cmd.Context()); err != nil {
				return err
			}

			created := 0
			for i := 0; i < count; i++ {
				p := &models.Product{
					Name:        fmt.Sprintf("%s %s", faker.AdjectiveDescriptive(), faker.Noun()),
					Price:       faker.Price(5, 250),
					Category:    faker.RandomString(seedCategories),
					IsAvailable: faker.Number(0, 9) > 0,
					CreatedAt:   time.Now(),
				}
				if _, err := products.Create(cmd.Context(), p); err != nil {
					log.Warn().Err(err).Str("name", p.Name).Msg("skipping product")
					continue
				}
				created++
			}
			log.Info().Int("created", created).Msg("seed finished")
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 50, "number of products to create")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed, 0 for a random one")
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		userID   int64
		username string
		role     string
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tokens, err := utils.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
			if err != nil {
				return err
			}
			tok, err := tokens.GenerateAccessToken(userID, username, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user-id", 1, "user id claim")
	cmd.Flags().StringVar(&username, "username", "dev", "username claim")
	cmd.Flags().StringVar(&role, "role", middleware.RoleCustomer, "role claim (customer or admin)")
	return cmd
}
