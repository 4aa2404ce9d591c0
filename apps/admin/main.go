package main

import (
	"log"
	"os"

	"github.com/hogandenver05/Norse-Interview/core"
	"github.com/hogandenver05/Norse-Interview/core/user"
	emailsvc "github.com/hogandenver05/Norse-Interview/services/email"
	logsvc "github.com/hogandenver05/Norse-Interview/services/logger"
	"github.com/hogandenver05/Norse-Interview/storage"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	repos, err := storage.Open(conf, false /* migrate */)
	if err != nil {
		logger.Fatal("setting up database", err)
	}

	// start CLI
	cli := commandLine{
		db:     repos.DB,
		usrSvc: user.NewService(repos.Users, emailsvc.NewConsoleService(conf, logger), conf),
	}
	err = cli.run(os.Args)
	if cErr := repos.Close(); cErr != nil {
		logger.Error("closing database", cErr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}
