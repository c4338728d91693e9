package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"lectio-quiz-service/internal/app"
	"lectio-quiz-service/internal/config"
	"lectio-quiz-service/internal/domain"
	cognitogw "lectio-quiz-service/internal/infra/cognito"
	dynamostore "lectio-quiz-service/internal/infra/dynamo"
	"lectio-quiz-service/internal/infra/memory"
	pgstore "lectio-quiz-service/internal/infra/postgres"
	redisinfra "lectio-quiz-service/internal/infra/redis"
	transport "lectio-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	profiles, sets, err := buildStores(ctx, cfg)
	if err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	if redisClient != nil {
		dailyTTL := config.TTLDuration(cfg.Daily.TTL, time.Hour)
		sets = redisinfra.NewDailyQuestionsCache(redisClient, sets, dailyTTL)
	}

	var locks app.AccountLocker = memory.NewAccountLock()
	if redisClient != nil {
		lockTTL := config.TTLDuration(cfg.Redis.LockTTL, 5*time.Second)
		locks = redisinfra.NewAccountLock(redisClient, lockTTL)
	}

	events := app.NewProfileEvents()
	quizService := app.NewQuizService(profiles, sets, locks, events)

	gateway, err := buildAuthGateway(ctx, cfg)
	if err != nil {
		return err
	}
	authService := app.NewAuthService(gateway, profiles)

	if cfg.Storage.Driver == "" || cfg.Storage.Driver == "memory" {
		seedSampleQuestions(ctx, quizService)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	transport.NewHandler(quizService, authService).Register(mux)
	mux.HandleFunc("/ws", transport.NewWSHandler(quizService, events).ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildStores(ctx context.Context, cfg config.Config) (app.ProfileRepository, app.DailyQuestionsRepository, error) {
	switch cfg.Storage.Driver {
	case "", "memory":
		return memory.NewProfileRepository(), memory.NewDailyQuestionsRepository(), nil

	case "postgres":
		if cfg.Postgres.URL == "" {
			return nil, nil, fmt.Errorf("postgres url not configured")
		}
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, err
		}
		return pgstore.NewProfileRepository(pool), pgstore.NewDailyQuestionsRepository(pool), nil

	case "dynamo":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Dynamo.Region))
		if err != nil {
			return nil, nil, err
		}
		client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
			if cfg.Dynamo.Endpoint != "" {
				o.BaseEndpoint = &cfg.Dynamo.Endpoint
			}
		})
		return dynamostore.NewProfileRepository(client, cfg.Dynamo.ProfilesTable),
			dynamostore.NewDailyQuestionsRepository(client, cfg.Dynamo.DailyQuestionsTable), nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func buildAuthGateway(ctx context.Context, cfg config.Config) (app.AuthGateway, error) {
	if cfg.Cognito.AppClientID == "" {
		return memory.NewAuthGateway(), nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Cognito.Region))
	if err != nil {
		return nil, err
	}
	client := cognitoidentityprovider.NewFromConfig(awsCfg)
	return cognitogw.NewAuthGateway(client, cfg.Cognito.AppClientID, cfg.Cognito.AppClientSecret, cfg.Cognito.UserPoolID), nil
}

// seedSampleQuestions gives the in-memory driver a playable set for
// today; durable drivers get content from the admin endpoint.
func seedSampleQuestions(ctx context.Context, service *app.QuizService) {
	_, err := service.CreateDailyQuestions(ctx, time.Now().In(domain.ReferenceZone), []domain.Question{
		{
			ID:                 0,
			Text:               "Which book opens with the creation account?",
			Difficulty:         domain.DifficultyEasy,
			Options:            []string{"Exodus", "Genesis", "Psalms", "John"},
			CorrectOptionIndex: 1,
			Answer:             "Genesis opens with the creation account.",
		},
		{
			ID:                 1,
			Text:               "How many days did the rain fall during the flood?",
			Difficulty:         domain.DifficultyMedium,
			Options:            []string{"7", "12", "40", "100"},
			CorrectOptionIndex: 2,
			Answer:             "The rain fell for forty days and forty nights.",
		},
		{
			ID:                 2,
			Text:               "Which prophet confronted the prophets of Baal on Mount Carmel?",
			Difficulty:         domain.DifficultyHard,
			Options:            []string{"Isaiah", "Elijah", "Jeremiah", "Elisha"},
			CorrectOptionIndex: 1,
			Answer:             "Elijah challenged the prophets of Baal on Mount Carmel.",
		},
	})
	if err != nil {
		log.Printf("seed daily questions: %v", err)
	}
}
