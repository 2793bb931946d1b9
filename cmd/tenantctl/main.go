package main

import (
	"context"
	"fmt"
	"os"

	"tenant-service/internal/model"
	"tenant-service/internal/schema"
	"tenant-service/internal/tenant"
	"tenant-service/pkg/config"
	"tenant-service/pkg/database"
	"tenant-service/pkg/logger"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var rootCmd = &cobra.Command{
	Use:   "tenantctl",
	Short: "Tenant Service Administration CLI",
	Long:  `A command-line interface for managing tenants, their schemas, and admin accounts.`,
}

var (
	createName   string
	createDomain string
	createPlan   string
)

var createCmd = &cobra.Command{
	Use:   "create <slug>",
	Short: "Create and provision a tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := bootstrap()
		if err != nil {
			return err
		}

		slug := args[0]
		name := createName
		if name == "" {
			name = slug
		}
		var domain *string
		if createDomain != "" {
			domain = &createDomain
		}

		t, err := env.lifecycle.CreateTenant(context.Background(), tenant.CreateRequest{
			Name:   name,
			Slug:   slug,
			Domain: domain,
			Plan:   createPlan,
		})
		if err != nil {
			return fmt.Errorf("create tenant %s: %w", slug, err)
		}

		fmt.Printf("Tenant %s created (id=%s schema=%s status=%s)\n", t.Slug, t.ID, t.SchemaName, t.Status)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tenants",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := bootstrap()
		if err != nil {
			return err
		}

		tenants, err := env.directory.List(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("%-36s  %-20s  %-30s  %-20s  %s\n", "ID", "SLUG", "SCHEMA", "STATUS", "PLAN")
		for _, t := range tenants {
			fmt.Printf("%-36s  %-20s  %-30s  %-20s  %s\n", t.ID, t.Slug, t.SchemaName, t.Status, t.Plan)
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <slug>",
	Short: "Delete a tenant and drop its schema (irreversible)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := bootstrap()
		if err != nil {
			return err
		}

		ctx := context.Background()
		t, err := env.directory.FindBySlug(ctx, args[0])
		if err != nil {
			return err
		}

		if err := env.lifecycle.DeleteTenant(ctx, t); err != nil {
			return fmt.Errorf("delete tenant %s: %w", t.Slug, err)
		}

		fmt.Printf("Tenant %s deleted\n", t.Slug)
		return nil
	},
}

var archiveCmd = &cobra.Command{
	Use:   "archive <slug>",
	Short: "Soft-delete a tenant, keeping its schema and data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := bootstrap()
		if err != nil {
			return err
		}

		ctx := context.Background()
		t, err := env.directory.FindBySlug(ctx, args[0])
		if err != nil {
			return err
		}

		if err := env.directory.SoftDelete(ctx, t.ID); err != nil {
			return fmt.Errorf("archive tenant %s: %w", t.Slug, err)
		}

		fmt.Printf("Tenant %s archived (schema %s retained)\n", t.Slug, t.SchemaName)
		return nil
	},
}

var provisionCmd = &cobra.Command{
	Use:   "provision <slug>",
	Short: "Re-run provisioning for a tenant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := bootstrap()
		if err != nil {
			return err
		}

		ctx := context.Background()
		t, err := env.directory.FindBySlug(ctx, args[0])
		if err != nil {
			return err
		}

		if err := env.lifecycle.Provision(ctx, t); err != nil {
			return fmt.Errorf("provision tenant %s: %w", t.Slug, err)
		}

		fmt.Printf("Tenant %s provisioned (schema=%s)\n", t.Slug, t.SchemaName)
		return nil
	},
}

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "List tenant schemas in the catalog (for reconciling orphans)",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := bootstrap()
		if err != nil {
			return err
		}

		names, err := env.store.ListSchemas(context.Background(), schema.SchemaPrefix)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

var (
	adminPassword string
	adminSuper    bool
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin <email>",
	Short: "Create an administrative user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := bootstrap()
		if err != nil {
			return err
		}

		if adminPassword == "" {
			return fmt.Errorf("--password is required")
		}

		user := &model.User{Email: args[0], IsSuper: adminSuper}
		if err := user.SetPassword(adminPassword); err != nil {
			return err
		}
		if err := env.db.Create(user).Error; err != nil {
			return fmt.Errorf("create admin %s: %w", args[0], err)
		}

		fmt.Printf("Admin %s created (super=%t)\n", user.Email, user.IsSuper)
		return nil
	},
}

type environment struct {
	db        *gorm.DB
	store     *schema.Store
	directory *tenant.Directory
	lifecycle *tenant.Lifecycle
}

func bootstrap() (*environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.InitLogger(cfg)
	log := logger.GetLogger()

	if err := database.Initialize(database.DBConfig{
		DSN:             cfg.DB.GetDSN(),
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		LogLevel:        cfg.DB.LogLevel,
	}); err != nil {
		return nil, err
	}

	db := database.GetDB()
	store := schema.NewStore(db, cfg.Tenant.SharedSchema, log)
	dir := tenant.NewDirectory(db)
	binder := tenant.NewBinder(db, store, cfg.Tenant.SharedSchema, log)
	lifecycle := tenant.NewLifecycle(dir, store, binder, schema.DefaultModules(), log)

	return &environment{db: db, store: store, directory: dir, lifecycle: lifecycle}, nil
}

func main() {
	createCmd.Flags().StringVar(&createName, "name", "", "display name (defaults to slug)")
	createCmd.Flags().StringVar(&createDomain, "domain", "", "custom domain")
	createCmd.Flags().StringVar(&createPlan, "plan", model.PlanFree, "subscription plan")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
	createAdminCmd.Flags().BoolVar(&adminSuper, "super", false, "grant superuser access")

	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(schemasCmd)
	rootCmd.AddCommand(createAdminCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
