// Grue CLI - runs Z-machine story files in a terminal.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"

	"github.com/chazu/grue/manifest"
	"github.com/chazu/grue/trace"
	"github.com/chazu/grue/zmachine"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("grue.cli")

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	seed := flag.Int64("seed", 0, "Deterministic random seed (0 = from entropy)")
	traceDB := flag.String("trace", "", "Record a step trace into the given sqlite database")
	manifestDir := flag.String("m", "", "Directory containing grue.toml (default: search upward from cwd)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: grue [options] [story-file]\n\n")
		fmt.Fprintf(os.Stderr, "Runs a Z-machine story file (versions 1-8).\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  grue czech.z5              # Run a story\n")
		fmt.Fprintf(os.Stderr, "  grue -seed 1234 czech.z5   # Deterministic random stream\n")
		fmt.Fprintf(os.Stderr, "  grue -trace trace.db zork1.z3  # Record a step trace\n")
		fmt.Fprintf(os.Stderr, "  grue -m ./game             # Use ./game/grue.toml\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 1
	}
	commonlog.Configure(verbosity, nil)

	// Command line settings override the manifest.
	cfg := loadManifest(*manifestDir)
	storyPath := cfg.Story.Path
	if flag.NArg() > 0 {
		storyPath = flag.Arg(0)
	} else if storyPath != "" {
		storyPath = cfg.StoryPath()
	}
	if storyPath == "" {
		flag.Usage()
		os.Exit(1)
	}
	if *seed == 0 {
		*seed = cfg.Random.Seed
	}
	if *traceDB == "" && cfg.Trace.Enabled {
		*traceDB = cfg.TraceDBPath()
	}

	data, err := os.ReadFile(storyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading story: %v\n", err)
		os.Exit(1)
	}

	mem, err := zmachine.NewMemory(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading story: %v\n", err)
		os.Exit(1)
	}
	log.Infof("loaded %s: v%d release %d serial %s",
		storyPath, mem.Version(), mem.Release(), mem.Serial())

	proc, err := zmachine.NewProcessor(mem)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing processor: %v\n", err)
		os.Exit(1)
	}
	if *seed != 0 {
		proc.Randomize(*seed)
	}

	screen := newTerminalScreen(cfg.Screen.Width, cfg.Screen.Height)
	defer screen.Close()
	proc.RegisterScreen(screen)

	if *traceDB != "" {
		store, err := trace.Open(*traceDB)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening trace store: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
		recorder := trace.NewRecorder(proc, store)
		proc.AddListener(recorder)
		defer func() {
			if err := recorder.Err(); err != nil {
				log.Errorf("trace recording failed: %v", err)
			}
		}()
		log.Infof("recording step trace to %s", *traceDB)
	}

	// The terminal screen delivers input synchronously, so Run only stops
	// on quit or a machine fault.
	if err := proc.Run(); err != nil && !errors.Is(err, zmachine.ErrAwaitingInput) {
		in := proc.ExecutingInstruction()
		if in != nil {
			fmt.Fprintf(os.Stderr, "\nMachine fault at %s: %v\n", in, err)
		} else {
			fmt.Fprintf(os.Stderr, "\nMachine fault: %v\n", err)
		}
		os.Exit(1)
	}
	fmt.Println()
}

// loadManifest returns the session config, or an empty manifest when none
// is found.
func loadManifest(dir string) *manifest.Manifest {
	var (
		m   *manifest.Manifest
		err error
	)
	if dir != "" {
		m, err = manifest.Load(dir)
	} else {
		cwd, _ := os.Getwd()
		m, err = manifest.FindAndLoad(cwd)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading manifest: %v\n", err)
		os.Exit(1)
	}
	if m == nil {
		return &manifest.Manifest{
			Screen: manifest.Screen{Width: 80, Height: 24},
		}
	}
	return m
}
