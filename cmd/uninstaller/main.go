package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"nordvpn-uninstall/internal/app/uninstaller"
	"nordvpn-uninstall/internal/data"
	"nordvpn-uninstall/internal/logger"
	"nordvpn-uninstall/internal/menu"
	"nordvpn-uninstall/internal/system"
	"nordvpn-uninstall/internal/ui"
)

func main() {
	os.Exit(run())
}

// run holds the program logic so deferred cleanup executes before the
// process exits with a status code.
func run() int {
	var (
		manifestPath = flag.String("manifest", "", "path to a manifest file overriding the built-in uninstall targets")
		assumeYes    = flag.Bool("yes", false, "answer yes to every package removal prompt")
		keepPackages = flag.Bool("keep-packages", false, "skip all package removals, only delete the indicator files")
		debug        = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	log := logger.NewColoredLogger()
	if *debug {
		log.SetLevel(logger.LevelDebug)
	}

	if os.Geteuid() != 0 {
		log.Warn("Not running as root: removing the installation directory and packages may fail. Consider running with sudo.")
	}

	manifest, err := loadManifest(*manifestPath)
	if err != nil {
		log.Error("Failed to load uninstall manifest: %v", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Received exit signal, remaining steps will be skipped...")
		cancel()
	}()

	journal := openJournal(ctx, manifest, log)
	if journal != nil {
		defer journal.Close()
	}

	printer := ui.NewPrinter()
	printer.PrintBanner()

	sequencer, err := uninstaller.NewSequencer(uninstaller.Options{
		Manifest:  manifest,
		Confirmer: pickConfirmer(*assumeYes, *keepPackages),
		Journal:   journal,
		Console:   ui.NewConsole(log, os.Stdout),
		Logger:    log,
	})
	if err != nil {
		log.Error("Failed to initialise uninstaller: %v", err)
		return 1
	}

	summary := sequencer.Run(ctx)
	printer.PrintSummary(uninstaller.SummaryRows(summary))

	if summary.Failed() {
		log.Error("Uninstall finished with failed steps")
		return 1
	}

	log.Info("Uninstall finished")
	return 0
}

func loadManifest(path string) (*system.Manifest, error) {
	if path != "" {
		return system.LoadManifest(path)
	}
	return system.BaseManifest()
}

func pickConfirmer(assumeYes, keepPackages bool) menu.Confirmer {
	switch {
	case keepPackages:
		return menu.StaticConfirmer{Answer: false}
	case assumeYes:
		return menu.StaticConfirmer{Answer: true}
	default:
		return menu.NewPromptConfirmer()
	}
}

// openJournal opens the run journal; journaling is best effort and never
// blocks the uninstall itself.
func openJournal(ctx context.Context, manifest *system.Manifest, log logger.Logger) data.Repository {
	journal, err := data.OpenSQLiteRepository(manifest.JournalPath())
	if err != nil {
		log.Warn("Run journal unavailable: %v", err)
		return nil
	}

	if err := journal.Bootstrap(ctx); err != nil {
		log.Warn("Run journal unavailable: %v", err)
		journal.Close()
		return nil
	}

	return journal
}
