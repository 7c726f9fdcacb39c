package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/STPREETHI/learning-portal/core"
	"github.com/STPREETHI/learning-portal/core/user"
	logsvc "github.com/STPREETHI/learning-portal/services/logger"
	"github.com/STPREETHI/learning-portal/storage"
	"github.com/STPREETHI/learning-portal/storage/database"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	defer logger.Close()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	cli := commandLine{validate: validate, translator: translator}

	// migrations run against the bare SQL database, the other commands go through the user service
	if len(args) > 1 && args[1] == "migrate" {
		if conf.Database.Engine == storage.EnginePostgres {
			if err := database.CreateIfNotExist(conf); err != nil {
				logger.Error("creating database", err)
				return 1
			}
			db, err := database.Open(conf)
			if err != nil {
				logger.Error("opening database", err)
				return 1
			}
			defer db.Close()
			cli.db = db.DB
		}
	} else if len(args) > 1 {
		ctx := context.Background()
		repos, err := storage.Open(ctx, conf)
		if err != nil {
			logger.Error("setting up storage", err)
			return 1
		}
		defer repos.Close(ctx)
		cli.usrSvc = user.NewService(repos.Users)
	}

	if err := cli.run(args); err != nil {
		if err != errHelp {
			logger.Error("command failed: "+err.Error(), err)
		}
		return 1
	}
	return 0
}
