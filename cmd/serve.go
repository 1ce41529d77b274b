package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/procurely/rfp-pilot/internal/ai/gemini"
	"github.com/procurely/rfp-pilot/internal/extract"
	"github.com/procurely/rfp-pilot/internal/logger"
	"github.com/procurely/rfp-pilot/internal/mail"
	"github.com/procurely/rfp-pilot/internal/procurement"
	"github.com/procurely/rfp-pilot/internal/secrets"
	"github.com/procurely/rfp-pilot/internal/server"
	"github.com/procurely/rfp-pilot/internal/store/memory"
	"github.com/procurely/rfp-pilot/internal/store/postgres"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultAddress = "0.0.0.0:8080"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the rfp-pilot API server",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Bool("in-memory", false, "use the in-process store instead of PostgreSQL")
}

func serve(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := newLogger()

	config, err := getConfig()
	if err != nil {
		log.Fatal("getting a config", zap.Error(err))
	}

	log.Info("starting the rfp-pilot", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	log.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	if config == nil {
		log.Fatal("config is required")
	}

	store, cleanup, err := buildStore(ctx, cmd, config, log)
	if err != nil {
		log.Fatal("building the store", zap.Error(err))
	}
	defer cleanup()

	generator, err := buildGenerator(ctx, config.AI)
	if err != nil {
		log.Fatal(
			"building the gemini generator",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY_FILE environment variable or the 'ai.gemini' section in the configuration file"),
		)
	}

	mailer, err := buildMailer(config.SMTP)
	if err != nil {
		log.Fatal("building the smtp mailer", zap.Error(err))
	}

	svc := procurement.New(procurement.Deps{
		Store:     store,
		Generator: generator,
		Extractor: extract.New(generator, log),
		Mail:      mailer,
		ClientURL: config.ClientURL,
		Logger:    log,
	})

	addr := defaultAddress
	if config.Server != nil && config.Server.Address != "" {
		addr = config.Server.Address
	}

	srv := server.New(addr, server.NewHandler(svc, log), log)
	if err := srv.Run(ctx); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

func buildStore(ctx context.Context, cmd *cobra.Command, config *Config, log *zap.Logger) (procurement.Store, func(), error) {
	inMemory := config != nil && config.Database != nil && config.Database.InMemory
	if flag := cmd.Flag("in-memory"); flag != nil && strings.EqualFold(flag.Value.String(), "true") {
		inMemory = true
	}

	if inMemory {
		log.Warn("using the in-process store; data will not survive a restart")
		return memory.New(), func() {}, nil
	}

	if config == nil || config.Database == nil || config.Database.Conn == "" {
		return nil, nil, fmt.Errorf("database connection string is required (database.conn or POSTGRES_CONN)")
	}

	db, err := postgres.Open(ctx, config.Database.Conn)
	if err != nil {
		return nil, nil, err
	}

	if err := postgres.Migrate(db); err != nil {
		db.Close()
		return nil, nil, err
	}

	return postgres.NewStore(db), func() { db.Close() }, nil
}

func buildGenerator(ctx context.Context, config *AIConfig) (*gemini.Generator, error) {
	if config == nil || config.Gemini == nil {
		return nil, fmt.Errorf("ai.gemini configuration is required")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: config.Gemini.APIKey,
		File:  config.Gemini.APIKeyFile,
	})
	if err != nil {
		return nil, err
	}

	return gemini.NewGenerator(ctx, apiKey, config.Gemini.Model)
}

func buildMailer(config *SMTPConfig) (mail.Sender, error) {
	if config == nil {
		return nil, fmt.Errorf("smtp configuration is required")
	}

	password := config.Password
	if config.PasswordFile != "" || config.Password != "" {
		loaded, err := secrets.Load(secrets.Source{
			Name:  "smtp password",
			Value: config.Password,
			File:  config.PasswordFile,
		})
		if err != nil {
			return nil, err
		}
		password = loaded
	}

	return mail.NewSMTPSender(mail.SMTPConfig{
		Host:     config.Host,
		Port:     config.Port,
		Username: config.Username,
		Password: password,
		From:     config.From,
	})
}
