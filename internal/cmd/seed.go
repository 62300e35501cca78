package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/ioproxxy/mosolarweb/internal/pkg/telemetry"
	"github.com/ioproxxy/mosolarweb/internal/storefront/app"
	"github.com/ioproxxy/mosolarweb/internal/storefront/domain"
)

var (
	adminPassword string
	skipProducts  bool
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create payment methods, the default invoice template and demo products",
	Long: `Seeds the store with the card and M-Pesa payment methods, the default
invoice template, the product categories and a demo catalog.

Existing rows are left alone, so seeding twice is safe.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringVar(&adminPassword, "admin-password", "", "create an admin account with this password")
	seedCmd.Flags().BoolVar(&skipProducts, "no-products", false, "skip the demo categories and products")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	telemetry.InitLogger(cfg.Log.Level, cfg.Telemetry.ServiceName)
	if cfg.Store.Driver != "postgres" {
		return errors.New("seed needs store.driver=postgres; the memory store is seeded by serve")
	}

	var closers cleanup
	defer closers.run()
	store, err := openStore(cmd.Context(), cfg, &closers)
	if err != nil {
		return err
	}
	return Seed(cmd.Context(), store, SeedOptions{AdminPassword: adminPassword, Products: !skipProducts})
}

type SeedOptions struct {
	// AdminPassword, when set, creates the "admin" account.
	AdminPassword string
	Products      bool
}

type seedCategory struct {
	name, slug, description string
}

var seedCategories = []seedCategory{
	{"Solar Panels", "solar-panels", "High-efficiency solar panels for residential and commercial use"},
	{"Inverters", "inverters", "Convert DC power from solar panels into AC power for home use"},
	{"Batteries", "batteries", "Store solar energy for use during nighttime or power outages"},
	{"Solar Water Heaters", "solar-water-heaters", "Efficient water heating using solar energy"},
	{"CCTV", "cctv", "Security camera systems for residential and commercial use"},
	{"Electronics", "electronics", "Electronic devices and components for various applications"},
	{"Electricals", "electricals", "Electrical equipment and supplies"},
	{"Accessories", "accessories", "Mounting hardware, cables, and other solar accessories"},
}

type seedProduct struct {
	name     string
	category string
	price    int64
	stock    int
	featured bool
}

var seedProducts = []seedProduct{
	{"Mo Solar Technologies 100W Panel", "solar-panels", 6500, 50, true},
	{"Mo Solar Technologies 250W Panel", "solar-panels", 12500, 30, false},
	{"Mo Solar Technologies 500W Panel", "solar-panels", 24000, 20, false},
	{"Must Solar 5kW Inverter", "inverters", 65000, 10, true},
	{"Mo Solar Technologies 3kW Inverter", "inverters", 35000, 15, false},
	{"Must LiFePO4 100Ah Battery", "batteries", 45000, 15, true},
	{"Mo Solar Technologies 200Ah Battery", "batteries", 32000, 20, false},
	{"AquaHeat Solar Water Heater 200L", "solar-water-heaters", 85000, 8, true},
	{"Seven Stars Solar Water Heater 150L", "solar-water-heaters", 75000, 5, false},
	{"Solar Panel Mounting Kit", "accessories", 7500, 35, true},
	{"Solar DC Cable Set", "accessories", 3500, 60, false},
	{"Solar Charge Controller", "accessories", 5500, 45, false},
}

// Seed inserts the reference data the storefront needs to take orders.
func Seed(ctx context.Context, store app.Store, opts SeedOptions) error {
	return store.WithinTx(ctx, func(tx app.Store) error {
		if err := seedPaymentMethods(ctx, tx); err != nil {
			return err
		}
		if err := seedTemplate(ctx, tx); err != nil {
			return err
		}
		if opts.AdminPassword != "" {
			if err := seedAdmin(ctx, tx, opts.AdminPassword); err != nil {
				return err
			}
		}
		if opts.Products {
			return seedCatalog(ctx, tx)
		}
		return nil
	})
}

func seedPaymentMethods(ctx context.Context, tx app.Store) error {
	methods := []domain.PaymentMethod{
		{Name: "Credit/Debit Card", Code: domain.MethodCard, IsActive: true},
		{Name: "M-Pesa", Code: domain.MethodMpesa, IsActive: true},
	}
	for _, m := range methods {
		_, err := tx.PaymentMethods().GetByCode(ctx, m.Code)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if err := tx.PaymentMethods().Create(ctx, &m); err != nil {
			return fmt.Errorf("seed payment method %s: %w", m.Code, err)
		}
		slog.InfoContext(ctx, "payment method created", "code", m.Code)
	}
	return nil
}

func seedTemplate(ctx context.Context, tx app.Store) error {
	_, err := tx.InvoiceTemplates().Active(ctx, domain.TemplateInvoice)
	if err == nil || !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	tpl := domain.DefaultInvoiceTemplate()
	tpl.CreatedAt = time.Now().UTC()
	tpl.UpdatedAt = tpl.CreatedAt
	if err := tx.InvoiceTemplates().Save(ctx, &tpl); err != nil {
		return fmt.Errorf("seed invoice template: %w", err)
	}
	slog.InfoContext(ctx, "default invoice template created")
	return nil
}

func seedAdmin(ctx context.Context, tx app.Store, password string) error {
	_, err := tx.Users().GetByLogin(ctx, "admin")
	if err == nil || !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	admin := &domain.User{
		Username:     "admin",
		Email:        "admin@mo-solar.co.ke",
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.Users().Create(ctx, admin); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	slog.InfoContext(ctx, "admin account created", "user_id", admin.ID)
	return nil
}

func seedCatalog(ctx context.Context, tx app.Store) error {
	ids := make(map[string]uint, len(seedCategories))
	for _, c := range seedCategories {
		existing, err := tx.Categories().GetBySlug(ctx, c.slug)
		if err == nil {
			ids[c.slug] = existing.ID
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		cat := &domain.Category{Name: c.name, Slug: c.slug, Description: c.description}
		if err := tx.Categories().Create(ctx, cat); err != nil {
			return fmt.Errorf("seed category %s: %w", c.slug, err)
		}
		ids[c.slug] = cat.ID
	}

	created := 0
	now := time.Now().UTC()
	for i, p := range seedProducts {
		s := slug.Make(p.name)
		_, err := tx.Products().GetBySlug(ctx, s)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		at := now.Add(time.Duration(i) * time.Second)
		product := &domain.Product{
			Name:       p.name,
			Slug:       s,
			Price:      decimal.NewFromInt(p.price),
			Stock:      p.stock,
			Featured:   p.featured,
			CategoryID: ids[p.category],
			CreatedAt:  at,
			UpdatedAt:  at,
		}
		if err := tx.Products().Create(ctx, product); err != nil {
			return fmt.Errorf("seed product %s: %w", s, err)
		}
		created++
	}
	slog.InfoContext(ctx, "catalog seeded", "categories", len(ids), "products_created", created)
	return nil
}
