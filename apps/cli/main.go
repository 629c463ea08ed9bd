// Command campusctl shows the academic dashboard in the terminal.
package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/trezcool/campuscompanion/apps/shared"
	"github.com/trezcool/campuscompanion/core"
	"github.com/trezcool/campuscompanion/services/chat"
	logsvc "github.com/trezcool/campuscompanion/services/logger"
)

func main() {
	conf := core.NewConfig()

	std := log.New(os.Stderr, "CLI : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)

	// the command line keeps its preferences between runs
	if conf.Prefs.Path == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			dir = filepath.Join(dir, "campuscompanion")
			if err := os.MkdirAll(dir, 0o700); err == nil {
				conf.Prefs.Path = filepath.Join(dir, "prefs.db")
			}
		}
	}

	repo, closePrefs, err := shared.OpenPrefs(conf)
	if err != nil {
		std.Fatal(err)
	}

	cli := commandLine{
		svc:   shared.NewSessionService(conf, repo, logger),
		prefs: repo,
		asker: chat.NewFromConfig(conf),
		out:   os.Stdout,
	}
	err = cli.run(os.Args)
	if cErr := closePrefs(); cErr != nil {
		std.Printf("closing preferences: %v", cErr)
	}
	if err != nil {
		if err != errHelp {
			std.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
