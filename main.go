package main

import (
	"context"

	"github.com/pluzgi/chatbot-study-sub001/internal/config"
	"github.com/pluzgi/chatbot-study-sub001/internal/database"
	logger "github.com/pluzgi/chatbot-study-sub001/internal/logging"
	"github.com/pluzgi/chatbot-study-sub001/internal/repository"
	"github.com/pluzgi/chatbot-study-sub001/internal/router"
	"github.com/pluzgi/chatbot-study-sub001/internal/services"
	"github.com/pluzgi/chatbot-study-sub001/internal/study"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Local development reads secrets from .env; in deployment they come
	// from the environment directly.
	_ = godotenv.Load()

	if err := config.Init("."); err != nil {
		panic("failed to load configuration: " + err.Error())
	}

	log, err := logger.Init(".", config.Conf.Logging)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	database.Init(log)

	// Load the study protocol; validation of every participant write
	// depends on it.
	def, err := study.LoadDefinition(config.Conf.Study.DefinitionFile)
	if err != nil {
		log.Fatal("Failed to load study definition", zap.Error(err))
	}
	repository.Def = def

	chat, err := services.NewChatService(context.Background(), log, config.Conf.Chat)
	if err != nil {
		log.Fatal("Failed to set up chat relay", zap.Error(err))
	}

	services.NewRecruitmentMonitor(log).Start()

	r := router.Setup(log, def, chat)

	port := ":" + config.Conf.Server.Port
	log.Info("Server listening on http://localhost" + port)
	if err := r.Run(port); err != nil {
		log.Fatal("Failed to run Gin server", zap.Error(err))
	}
}
