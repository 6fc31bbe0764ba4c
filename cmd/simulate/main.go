// Command simulate is the CLI entrypoint (C6): run an experiment from a
// JSON config file and export CSV/JSON results, validate a config without
// running it, or serve the HTTP API.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/casperlundberg/edge-offload-simulator/internal/api"
	"github.com/casperlundberg/edge-offload-simulator/internal/database"
	"github.com/casperlundberg/edge-offload-simulator/pkg/export"
	"github.com/casperlundberg/edge-offload-simulator/pkg/models"
	"github.com/casperlundberg/edge-offload-simulator/pkg/simulation"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "simulate",
		Short: "Edge-offload Lyapunov/MPC simulation core",
	}
	root.AddCommand(runCmd(), validateCmd(), serveCmd())
	return root
}

func loadConfig(path string) (models.ExperimentConfig, error) {
	var cfg models.ExperimentConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

func runCmd() *cobra.Command {
	var configPath, csvPath, jsonPath string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an experiment configuration to completion",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if errs := cfg.Validate(); errs.HasErrors() {
				return errs
			}

			printBanner(cfg)
			result := simulation.New(cfg).Run(simulation.RunOptions{
				OnProgress: func(s models.SimulationState) {
					if s.CurrentSlot%50 == 0 {
						log.Printf("slot %d/%d", s.CurrentSlot, s.TotalSlots)
					}
				},
			})
			log.Printf("\nSimulation finished: status=%s slots=%d", result.Status, result.CurrentSlot)

			if csvPath != "" {
				f, err := os.Create(csvPath)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := export.WriteCSV(f, result); err != nil {
					return err
				}
				log.Printf("Wrote CSV export to %s", csvPath)
			}
			if jsonPath != "" {
				data, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return err
				}
				if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
					return err
				}
				log.Printf("Wrote JSON export to %s", jsonPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to ExperimentConfig JSON")
	cmd.Flags().StringVar(&csvPath, "csv", "", "optional CSV export path")
	cmd.Flags().StringVar(&jsonPath, "json", "", "optional JSON export path")
	cmd.MarkFlagRequired("config")
	return cmd
}

func validateCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a config file without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			errs := cfg.Validate()
			if !errs.HasErrors() {
				fmt.Println("config is valid")
				return nil
			}
			for _, e := range errs {
				fmt.Printf("%s: %s (got %v)\n", e.Field, e.Message, e.Value)
			}
			os.Exit(1)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to ExperimentConfig JSON")
	cmd.MarkFlagRequired("config")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, dbPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			var repo *database.Repository
			if dbPath != "" {
				db, err := database.NewDatabase(dbPath)
				if err != nil {
					return fmt.Errorf("opening database: %w", err)
				}
				repo = database.NewRepository(db)
				log.Printf("Persisting completed runs to %s", dbPath)
			}
			server := api.NewServer(repo)
			log.Printf("Serving on %s", addr)
			return server.Run(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&dbPath, "db", "", "optional sqlite persistence path")
	return cmd
}

func printBanner(cfg models.ExperimentConfig) {
	log.Printf("Edge-offload simulation")
	log.Printf("========================")
	log.Printf("Sensors: %d  Edge: %s  Slots: %d  Horizon: %d  Seed: %d",
		len(cfg.Sensors), cfg.Edge.ID, cfg.TotalSlots, cfg.Constants.Horizon, cfg.Constants.Seed)
}
