package config

import (
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result
// to path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to huntctl! Let's configure your console.")
	fmt.Println()

	cfg := DefaultConfig()

	apiPrompt := promptui.Prompt{
		Label:   "Platform API base URL",
		Default: cfg.APIBase,
	}
	apiBase, err := apiPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("api base: %w", err)
	}
	cfg.APIBase = apiBase

	ttlPrompt := promptui.Prompt{
		Label:   "Default block duration in minutes",
		Default: strconv.Itoa(cfg.BlockTTLMinutes),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return fmt.Errorf("must be a positive number")
			}
			return nil
		},
	}
	ttlStr, err := ttlPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("block ttl: %w", err)
	}
	cfg.BlockTTLMinutes, _ = strconv.Atoi(ttlStr)

	portPrompt := promptui.Prompt{
		Label:   "Local dashboard port",
		Default: strconv.Itoa(cfg.DashboardPort),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("must be a port number")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("dashboard port: %w", err)
	}
	cfg.DashboardPort, _ = strconv.Atoi(portStr)

	dataPrompt := promptui.Prompt{
		Label:   "Data directory",
		Default: cfg.DataDir,
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	cfg.DataDir = dataDir

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.Save(path); err != nil {
		return nil, err
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}
