// Command otsctl stamps files into OpenTimestamps proofs, verifies
// existing proofs, inspects them, and requests upgrades from calendars.
//
// Usage:
//
//	otsctl stamp [-a] <file>
//	otsctl verify [-a] <file> <file.ots>
//	otsctl info <file.ots>
//	otsctl upgrade <file.ots>
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"io"
	"os"

	"otsproof/internal/config"
	"otsproof/internal/logging"
	"otsproof/internal/otscache"
	"otsproof/internal/otshttp"
	"otsproof/internal/otsproof/attestation"
	"otsproof/internal/otsproof/calendar"
	"otsproof/internal/otsrpc"
	"otsproof/pkg/ots"
)

var (
	version = "dev"
	commit  = "unknown"
)

type systemRNG struct{}

func (systemRNG) RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "otsctl - stamp and verify OpenTimestamps proofs\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s <command> [args]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  stamp [-a] <file>            create file.ots (and file.ots.attached with -a)\n")
		fmt.Fprintf(os.Stderr, "  verify [-a] <file> <file.ots>  check a proof against a file (-a: single attached file)\n")
		fmt.Fprintf(os.Stderr, "  info <file.ots>              summarize a proof's contents\n")
		fmt.Fprintf(os.Stderr, "  upgrade <file.ots>           replace pending attestations in place\n")
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	log := logging.Default()
	cfg, err := config.Load("")
	if err != nil {
		log.Warn("using default configuration", "error", err)
		cfg = config.DefaultConfig()
	}

	ctx := context.Background()
	var exitErr error
	switch flag.Arg(0) {
	case "stamp":
		exitErr = runStamp(ctx, cfg, flag.Args()[1:])
	case "verify":
		exitErr = runVerify(ctx, cfg, flag.Args()[1:])
	case "info":
		exitErr = runInfo(flag.Args()[1:])
	case "upgrade":
		exitErr = runUpgrade(ctx, cfg, flag.Args()[1:])
	case "version":
		fmt.Printf("otsctl %s (%s)\n", version, commit)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", flag.Arg(0))
		flag.Usage()
		os.Exit(2)
	}

	if exitErr != nil {
		if exitErr == errNoUpgrade {
			fmt.Fprintln(os.Stderr, "no upgrade available")
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", exitErr)
		os.Exit(1)
	}
}

// errNoUpgrade signals runUpgrade's "nothing to upgrade yet" outcome,
// which the CLI maps to exit code 2, distinct from exit code 1's generic
// failure.
var errNoUpgrade = fmt.Errorf("no upgrade available")

// calendarClient builds a calendar.Client backed by the configured
// calendars. It also opens the SQLite cache so Upgrade's cooldown
// tracking persists across runs; the returned closer must be closed by
// the caller once the client is no longer needed (it is a no-op if the
// cache could not be opened, matching runVerify's tolerance of a
// missing cache).
func calendarClient(cfg *config.Config) (*calendar.Client, io.Closer) {
	httpClient := otshttp.New()

	var cache attestation.Cache
	var closer io.Closer = noopCloser{}
	if cfg.Cache.Enabled {
		store, err := otscache.Open(cfg.Cache.Path)
		if err != nil {
			logging.Default().Warn("cache unavailable, upgrade cooldowns will not persist", "error", err)
		} else {
			cache = store
			closer = store
		}
	}

	client := calendar.New(httpClient, cache, calendar.Config{
		Calendars:          cfg.Calendar.URLs,
		Strategy:           calendar.Strategy(cfg.Calendar.Strategy),
		MinSuccessful:      cfg.Calendar.MinSuccessful,
		PerCalendarTimeout: cfg.Calendar.RequestTimeout(),
		BatchDeadline:      cfg.Calendar.BatchDeadline(),
		UpgradeCooldown:    cfg.Calendar.UpgradeCooldown(),
	})
	return client, closer
}

type noopCloser struct{}

func (noopCloser) Close() error { return nil }

func runStamp(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("stamp", flag.ContinueOnError)
	attached := fs.Bool("a", false, "also produce an attached timestamp file (document bytes + envelope)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: otsctl stamp [-a] <file>")
	}
	path := fs.Arg(0)

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	cal, closeCal := calendarClient(cfg)
	defer closeCal.Close()

	result, err := ots.Stamp(ctx, data, ots.StampOptions{
		Calendar: cal,
		RNG:      systemRNG{},
		Attached: *attached,
	})
	if err != nil {
		return err
	}

	outPath := path + ".ots"
	if err := os.WriteFile(outPath, result.ProofFile, 0644); err != nil {
		return err
	}
	fmt.Println(result)
	fmt.Printf("wrote %s\n", outPath)

	if *attached {
		attachedPath := path + ".ots.attached"
		if err := os.WriteFile(attachedPath, result.AttachedFile, 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", attachedPath)
	}
	return nil
}

func runVerify(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	attached := fs.Bool("a", false, "verify a single attached timestamp file instead of <file> <file.ots>")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var document, proof []byte
	var attachedFile []byte
	if *attached {
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: otsctl verify -a <file.ots.attached>")
		}
		data, err := os.ReadFile(fs.Arg(0))
		if err != nil {
			return err
		}
		attachedFile = data
	} else {
		if fs.NArg() != 2 {
			return fmt.Errorf("usage: otsctl verify <file> <file.ots>")
		}
		var err error
		document, err = os.ReadFile(fs.Arg(0))
		if err != nil {
			return err
		}
		proof, err = os.ReadFile(fs.Arg(1))
		if err != nil {
			return err
		}
	}

	httpClient := otshttp.New()
	cache, cacheErr := otscache.Open(cfg.Cache.Path)
	if cacheErr == nil {
		defer cache.Close()
	}

	vc := &attestation.VerifyContext{
		HTTP:              httpClient,
		BitcoinExplorers:  cfg.Bitcoin.Explorers,
		LitecoinExplorers: cfg.Litecoin.Explorers,
		EthereumExplorers: cfg.Ethereum.Explorers,
		RequestTimeout:    cfg.Bitcoin.Timeout(),
	}
	if cfg.Bitcoin.RPCEndpoint != "" {
		vc.Bitcoin = otsrpc.NewBitcoinClient(cfg.Bitcoin.RPCEndpoint, cfg.Bitcoin.RPCUser, cfg.Bitcoin.RPCPassword)
	}
	if cfg.Ethereum.RPCEndpoint != "" {
		eth, err := otsrpc.DialEthereumClient(cfg.Ethereum.RPCEndpoint)
		if err != nil {
			logging.Default().Warn("ethereum RPC unavailable, falling back to explorers", "error", err)
		} else {
			vc.Ethereum = eth
		}
	}
	if cacheErr == nil && cfg.Cache.Enabled {
		vc.Cache = cache
	}

	var result *ots.VerifyResult
	var err error
	if *attached {
		result, err = ots.VerifyAttached(ctx, attachedFile, vc)
	} else {
		result, err = ots.Verify(ctx, document, proof, vc)
	}
	if err != nil {
		return err
	}
	fmt.Print(result)
	if !result.Valid {
		os.Exit(1)
	}
	return nil
}

func runInfo(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: otsctl info <file.ots>")
	}
	proof, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	info, err := ots.Info(proof)
	if err != nil {
		return err
	}
	fmt.Println(info)
	return nil
}

func runUpgrade(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: otsctl upgrade <file.ots>")
	}
	proof, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	cal, closeCal := calendarClient(cfg)
	defer closeCal.Close()

	newProof, upgraded, err := ots.Upgrade(ctx, proof, cal)
	if err != nil {
		return err
	}
	if !upgraded {
		return errNoUpgrade
	}
	if err := os.WriteFile(args[0], newProof, 0644); err != nil {
		return err
	}
	fmt.Println("upgraded")
	return nil
}
