package main

import (
	"context"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/reeladmin/internal/server"
	"github.com/desertthunder/reeladmin/internal/shared"
)

// Sandbox runs the local backend and identity emulator until interrupted.
func (r *Runner) Sandbox(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Sandbox
	if cmd.IsSet("host") {
		cfg.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Port = cmd.Int("port")
	}
	if cmd.IsSet("token-ttl") {
		cfg.TokenTTLSeconds = cmd.Int("token-ttl")
	}
	cfg.Seed = !cmd.Bool("empty")

	sb := server.New(cfg, shared.WithLogger(r.logger, "component", "sandbox"))
	configPath := cmd.String("write-config")

	var readyErr error
	err := sb.Serve(ctx, func(baseURL string) {
		r.writePlain("✓ Sandbox listening on %s\n", baseURL)
		r.writePlain("  API:      %s%s\n", baseURL, server.APIPrefix)
		r.writePlain("  Identity: %s%s\n", baseURL, server.IdentityPrefix)
		if cfg.AdminEmail != "" {
			r.writePlain("  Sign in as %s / %s\n", cfg.AdminEmail, cfg.AdminPassword)
		}
		r.writePlain("  Tokens expire after %s\n", cfg.TokenTTL())

		if configPath != "" {
			if readyErr = writeClientConfig(configPath, server.ClientConfig(*r.config, baseURL)); readyErr != nil {
				r.logger.Error("failed to write client config", "path", configPath, "error", readyErr)
				return
			}
			r.writePlain("✓ Client config written to %s\n", configPath)
		}
	})
	if err != nil {
		return err
	}
	return readyErr
}

func writeClientConfig(path string, cfg shared.Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
