package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/juju/clock"
	"google.golang.org/grpc"
	v1 "k8s.io/externaljwt/apis/v1"
	"k8s.io/externaljwt/apis/v1alpha1"

	"github.com/zarvd/khaithi-translator/internal/config"
	"github.com/zarvd/khaithi-translator/internal/key"
	"github.com/zarvd/khaithi-translator/internal/server"
	"github.com/zarvd/khaithi-translator/internal/translate"
)

type CLI struct {
	LogLevel string `default:"info" enum:"debug,info,warn,error" env:"LOG_LEVEL" help:"Log level"`

	Serve  ServeCmd  `cmd:"" default:"1" help:"Serve the translation HTTP API"`
	Signer SignerCmd `cmd:"" help:"Serve the service account key as an ExternalJWTSigner over gRPC"`
}

type CredentialFlags struct {
	ServiceAccountJSON string `env:"GOOGLE_SERVICE_ACCOUNT_JSON" help:"Service account key JSON"`
	ServiceAccountFile []byte `type:"filecontent" help:"Path to a service account key JSON file"`
}

func (f *CredentialFlags) serviceAccountJSON() string {
	if len(f.ServiceAccountFile) > 0 {
		return string(f.ServiceAccountFile)
	}
	return f.ServiceAccountJSON
}

type ServeCmd struct {
	CredentialFlags

	Listen          string        `default:":3000" env:"PORT" help:"Address or port to listen on"`
	APIKey          string        `env:"GOOGLE_API_KEY" help:"Generative Language API key, used when no service account is set"`
	Region          string        `default:"us-central1" help:"Vertex AI region"`
	VertexModel     string        `default:"gemini-1.5-flash-001" help:"Model used with a service account"`
	GeminiModel     string        `default:"gemini-1.5-flash-latest" help:"Model used with an API key"`
	TokenURL        string        `help:"Override the OAuth2 token endpoint"`
	VertexBaseURL   string        `help:"Override the Vertex AI base URL"`
	GeminiBaseURL   string        `help:"Override the Generative Language base URL"`
	TokenTimeout    time.Duration `default:"10s" help:"Deadline for the token exchange"`
	GenerateTimeout time.Duration `default:"60s" help:"Deadline for the generation call"`
}

func (cmd *ServeCmd) Run(ctx context.Context, logger *slog.Logger) error {
	cfg := &config.Config{
		APIKey:             cmd.APIKey,
		ServiceAccountJSON: cmd.serviceAccountJSON(),
		Region:             cmd.Region,
		VertexModel:        cmd.VertexModel,
		GeminiModel:        cmd.GeminiModel,
		TokenURL:           cmd.TokenURL,
		VertexBaseURL:      cmd.VertexBaseURL,
		GeminiBaseURL:      cmd.GeminiBaseURL,
		TokenTimeout:       cmd.TokenTimeout,
	}
	client := &http.Client{}
	backend, err := cfg.Backend(logger, client, clock.WallClock)
	if err != nil {
		return fmt.Errorf("failed to configure translation backend: %w", err)
	}
	if backend.Auth.Mode() == "unconfigured" {
		logger.Warn("neither GOOGLE_SERVICE_ACCOUNT_JSON nor GOOGLE_API_KEY is set; translations will fail")
	}
	logger.Info("configured translation backend", slog.String("auth", backend.Auth.Mode()))

	translator := translate.NewTranslator(logger, client, backend, cmd.GenerateTimeout)
	httpServer := &http.Server{
		Addr:              listenAddr(cmd.Listen),
		Handler:           server.NewHTTPServer(logger, translator).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving on", slog.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// listenAddr accepts a bare port, as platforms set PORT that way.
func listenAddr(listen string) string {
	if !strings.Contains(listen, ":") {
		return ":" + listen
	}
	return listen
}

type SignerCmd struct {
	CredentialFlags

	UnixDomainSocket string `arg:"" required:"" help:"Unix domain socket to listen on"`
}

func (cmd *SignerCmd) Run(ctx context.Context, logger *slog.Logger) error {
	cfg := &config.Config{ServiceAccountJSON: cmd.serviceAccountJSON()}
	sa, err := cfg.ServiceAccount()
	if err != nil {
		return err
	}
	if sa == nil {
		return errors.New("a service account is required to run the signer")
	}

	km, err := key.NewServiceAccountKeyManager(logger, clock.WallClock, sa)
	if err != nil {
		return fmt.Errorf("failed to create key manager: %w", err)
	}

	grpcServer := grpc.NewServer()
	v1.RegisterExternalJWTSignerServer(grpcServer, server.NewV1Server(logger, km))
	v1alpha1.RegisterExternalJWTSignerServer(grpcServer, server.NewV1Alpha1Server(logger, km))

	listener, err := net.Listen("unix", cmd.UnixDomainSocket)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	defer listener.Close()

	go func() {
		logger.Info("serving on", slog.String("address", listener.Addr().String()))
		if err := grpcServer.Serve(listener); err != nil {
			logger.Error("failed to serve", slog.Any("error", err))
		}
	}()

	<-ctx.Done()
	grpcServer.GracefulStop()
	logger.Info("shutting down")
	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cli CLI
	cliCtx := kong.Parse(&cli,
		kong.Name("translator"),
		kong.Description("Chinese to Vietnamese translation backed by Gemini."),
	)

	var level slog.Level
	if err := level.UnmarshalText([]byte(cli.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cliCtx.BindTo(ctx, (*context.Context)(nil))
	cliCtx.Bind(logger)

	if err := cliCtx.Run(); err != nil {
		logger.Error("failed to run CLI", slog.Any("error", err))
		os.Exit(1)
	}
}
