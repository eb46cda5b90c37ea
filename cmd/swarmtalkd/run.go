package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/swarmtalk/swarmtalk/internal/config"
	"github.com/swarmtalk/swarmtalk/pkg/engine"
	"github.com/swarmtalk/swarmtalk/pkg/identity"
	"github.com/swarmtalk/swarmtalk/pkg/overlay/tcpoverlay"
)

type stringSlice []string

func (s *stringSlice) String() string { return fmt.Sprintf("%v", []string(*s)) }
func (s *stringSlice) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	identityPath := fs.String("identity", "swarmtalk.key", "path to the node's persisted identity")
	listenAddr := fs.String("listen", "", "override the configured listen address")
	var seeds stringSlice
	fs.Var(&seeds, "seed", "seed address to dial (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(*configPath)
	if err != nil {
		return newStartupError("config", err)
	}
	if *listenAddr != "" {
		cfg.ListenAddress = *listenAddr
	}
	if len(seeds) > 0 {
		cfg.Seeds = seeds
	}

	id, err := loadOrCreateIdentity(*identityPath, cfg.PoWDifficulty, log)
	if err != nil {
		return newStartupError("identity", err)
	}

	ov := tcpoverlay.New(cfg.ListenAddress, cfg.Seeds, log)
	eng := engine.New(id, cfg, ov, log)

	log.Info("starting swarmtalkd", "id", id.IDHex(), "listen", cfg.ListenAddress)

	ctx, cancel := signalContext()
	defer cancel()

	return eng.Run(ctx)
}

func loadOrCreateIdentity(path string, difficulty int, log *slog.Logger) (*identity.Identity, error) {
	if _, err := os.Stat(path); err == nil {
		id, err := identity.LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("load identity: %w", err)
		}
		log.Info("loaded existing identity", "path", path, "id", id.IDHex())
		return id, nil
	}

	id, err := identity.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate identity: %w", err)
	}
	log.Info("solving proof-of-work for new identity", "difficulty", difficulty)
	id.SolveProofOfWork(difficulty)
	if err := id.SaveToFile(path); err != nil {
		return nil, fmt.Errorf("save identity: %w", err)
	}
	log.Info("generated new identity", "path", path, "id", id.IDHex())
	return id, nil
}
