package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vitebski/mysql-schema-sync/internal/config"
	"github.com/vitebski/mysql-schema-sync/internal/connector"
	"github.com/vitebski/mysql-schema-sync/internal/differ"
	"github.com/vitebski/mysql-schema-sync/internal/syncer"
	"github.com/vitebski/mysql-schema-sync/internal/utils"
)

func main() {
	var (
		host             string
		user             string
		password         string
		database         string
		port             string
		charset          string
		schemaFile       string
		configFile       string
		envFile          string
		logLevel         string
		dryRun           bool
		yes              bool
		allowColumnDrops bool
		ignoreTables     []string
		ignoreColumns    []string
	)

	rootCmd := &cobra.Command{
		Use:   "mysql-schema-sync",
		Short: "A tool to synchronize a MySQL database schema with a DDL file",
		Long: `MySQL Schema Sync

A Go tool that compares a target schema file of CREATE TABLE statements
against a live MySQL database and generates the minimal ordered DDL to
bring the database up to date. Changes can be previewed or applied
under confirmation.`,
		Run: func(cmd *cobra.Command, args []string) {
			// Setup logging
			logger := utils.SetupLogging(logLevel)

			// Load environment variables
			utils.LoadEnvironmentVariables(envFile, logger)

			// Load optional config file
			cfg, err := config.LoadConfig(configFile)
			if err != nil {
				logger.Errorf("Failed to load configuration: %v", err)
				os.Exit(1)
			}

			// Flags win over the config file, which wins over env vars
			if host == "" {
				host = cfg.Database.Host
			}
			if user == "" {
				user = cfg.Database.User
			}
			if password == "" {
				password = cfg.Database.Password
			}
			if database == "" {
				database = cfg.Database.Database
			}
			if port == "" {
				port = cfg.Database.Port
			}
			if charset == "" {
				charset = cfg.Database.Charset
			}
			if schemaFile == "" {
				schemaFile = cfg.SchemaFile
			}
			if schemaFile == "" {
				logger.Error("A schema file is required (--schema-file or schema_file in the config)")
				os.Exit(1)
			}

			ignoreTableSet := cfg.IgnoreTableSet()
			for _, t := range ignoreTables {
				ignoreTableSet[t] = true
			}
			ignoreColumnSet := cfg.IgnoreColumnSet()
			for _, c := range ignoreColumns {
				ignoreColumnSet[c] = true
			}

			// Create database connector
			db := connector.NewDatabaseConnector(host, user, password, database, port, charset, logger)
			if !utils.ValidateConnectionParams(db.Host, db.User, db.Database, db.Port, logger) {
				os.Exit(1)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := db.Connect(ctx); err != nil {
				logger.Errorf("Failed to connect to database: %v", err)
				os.Exit(1)
			}
			defer db.Disconnect()

			// Build the pipeline
			opts := differ.Options{
				IgnoreTables:  ignoreTableSet,
				IgnoreColumns: ignoreColumnSet,
			}
			s := syncer.NewSyncer(db, opts, allowColumnDrops || cfg.AllowColumnDrops, logger)
			s.AppliedEvents = func(e syncer.StatementEvent) {
				if e.Err != nil {
					logger.Errorf("FAILED: %s (%v)", e.Statement, e.Err)
				} else {
					logger.Infof("OK: %s", e.Statement)
				}
			}

			// Compute the plan
			plan, err := s.PlanFromFile(ctx, schemaFile)
			if err != nil {
				logger.Errorf("Failed to compute migration plan: %v", err)
				os.Exit(1)
			}

			if plan.NoChanges {
				logger.Info("Database schema is up to date")
				return
			}

			utils.PrintPlan(plan.Statements)

			if dryRun {
				logger.Info("Dry-run mode, not applying changes")
				return
			}

			if !yes && !utils.ConfirmApply(len(plan.Statements)) {
				logger.Info("Aborted by user")
				return
			}

			if err := s.Apply(ctx, plan); err != nil {
				logger.Errorf("Failed to apply migration plan: %v", err)
				os.Exit(1)
			}
		},
	}

	// Define flags
	rootCmd.Flags().StringVarP(&host, "host", "H", "", "MySQL host (default: localhost)")
	rootCmd.Flags().StringVarP(&user, "user", "u", "", "MySQL user (default: root)")
	rootCmd.Flags().StringVarP(&password, "password", "p", "", "MySQL password")
	rootCmd.Flags().StringVarP(&database, "database", "d", "", "MySQL database name")
	rootCmd.Flags().StringVarP(&port, "port", "P", "", "MySQL port (default: 3306)")
	rootCmd.Flags().StringVar(&charset, "charset", "", "Connection charset (default: utf8mb4)")
	rootCmd.Flags().StringVarP(&schemaFile, "schema-file", "f", "", "Path to the target schema DDL file")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to a yaml config file")
	rootCmd.Flags().StringVarP(&envFile, "env-file", "e", ".env", "Path to .env file")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the plan without applying it")
	rootCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Apply without interactive confirmation")
	rootCmd.Flags().BoolVar(&allowColumnDrops, "allow-column-drops", false, "Emit DROP COLUMN statements for columns missing from the target schema")
	rootCmd.Flags().StringSliceVar(&ignoreTables, "ignore-table", nil, "Table name to exclude from the diff (repeatable)")
	rootCmd.Flags().StringSliceVar(&ignoreColumns, "ignore-column", nil, "Column (column or table.column) to exclude from the diff (repeatable)")

	// Execute
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
