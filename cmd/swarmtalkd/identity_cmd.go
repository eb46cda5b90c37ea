package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/swarmtalk/swarmtalk/internal/config"
	"github.com/swarmtalk/swarmtalk/pkg/identity"
)

func identityCommand(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("identity: expected a subcommand (generate, show)")
	}
	switch args[0] {
	case "generate":
		return identityGenerateCommand(args[1:])
	case "show":
		return identityShowCommand(args[1:])
	default:
		return fmt.Errorf("identity: unknown subcommand %q", args[0])
	}
}

func identityGenerateCommand(args []string) error {
	fs := flag.NewFlagSet("identity generate", flag.ExitOnError)
	out := fs.String("out", "swarmtalk.key", "output path for the generated identity")
	difficulty := fs.Int("difficulty", config.Default().PoWDifficulty, "proof-of-work difficulty in leading zero bits")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := identity.Generate()
	if err != nil {
		return fmt.Errorf("generate identity: %w", err)
	}
	id.SolveProofOfWork(*difficulty)
	if err := id.SaveToFile(*out); err != nil {
		return fmt.Errorf("save identity: %w", err)
	}
	fmt.Printf("generated identity %s (nonce=%d) -> %s\n", id.IDHex(), id.Nonce, *out)
	return nil
}

func identityShowCommand(args []string) error {
	fs := flag.NewFlagSet("identity show", flag.ExitOnError)
	path := fs.String("path", "swarmtalk.key", "path to a persisted identity")
	if err := fs.Parse(args); err != nil {
		return err
	}

	id, err := identity.LoadFromFile(*path)
	if err != nil {
		return fmt.Errorf("load identity: %w", err)
	}
	fmt.Fprintf(os.Stdout, "id:    %s\nlabel: %s\nnonce: %d\n", id.IDHex(), id.Label(), id.Nonce)
	return nil
}
