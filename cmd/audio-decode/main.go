package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/open-component-model/audio-decode/pkg/decoder"
	"github.com/open-component-model/audio-decode/pkg/encoding"
	decodehttp "github.com/open-component-model/audio-decode/pkg/http"
	"github.com/open-component-model/audio-decode/pkg/input"
	logutil "github.com/open-component-model/audio-decode/pkg/log"
	"github.com/open-component-model/audio-decode/pkg/tlsutil"
)

const DefaultOutFile = "./output.wav"

var stdOut = os.Stdout
var stdErr = os.Stderr

type Config struct {
	// cli args
	RunServer bool

	StdOut string

	// Decode args
	OutFile  string
	MimeType string
	Field    string
	Encoding string

	// Server args
	GracefulTimeout time.Duration
	ServerKeyPath   string
	CaCertsPath     string
	ClientCAPath    string

	CertPath string
	Host     string
	Port     string

	DevelopmentLogging bool
	MaxBodySizeBytes   int
	DisableAuth        bool
	DisableHTTPS       bool

	// calculated by program
	Logger *zap.Logger
}

func (c *Config) Validate(args []string) error {
	if c.Logger == nil {
		return errors.New("logger must be set")
	}
	if c.Field == "" {
		return errors.New("payload field must be set")
	}
	if _, err := encoding.GetDecoder(c.Encoding); err != nil {
		return err
	}

	if c.RunServer {
		if len(args) > 0 {
			return errors.New("no input file possible in server mode")
		}
		if c.MaxBodySizeBytes <= 0 {
			return errors.New("max body size must be > 0")
		}
		if !c.DisableHTTPS {
			if c.ServerKeyPath == "" {
				return errors.New("path to private server key file must be set")
			}
			if c.CertPath == "" && !strings.HasSuffix(c.ServerKeyPath, ".pfx") {
				return errors.New("path to cert file must be set")
			}
			if c.Host == "" {
				return errors.New("host must be set if https is enabled")
			}
			if c.DisableAuth {
				c.Logger.Warn("running server with disabled authentication. should only be used for development")
			} else if c.ClientCAPath == "" {
				return errors.New("client CA must be set")
			}
		}
		if c.Port == "" {
			return errors.New("port must be set")
		}
	} else if len(args) > 1 {
		return errors.New("only one input file possible")
	}

	return nil
}

func run(cfg *Config, args []string) error {
	err := cfg.Validate(args)
	if err != nil {
		return fmt.Errorf("unable to validate config: %w", err)
	}

	if cfg.RunServer {
		return RunServer(cfg)
	}
	return RunDecoder(context.Background(), cfg, args)
}

// RunDecoder decodes the payload of a single JSON document.
func RunDecoder(ctx context.Context, cfg *Config, args []string) error {
	path := input.DefaultPath
	if len(args) == 1 {
		path = args[0]
	}

	payload, err := input.Load(path, cfg.Field)
	if err != nil {
		return fmt.Errorf("unable to load JSON input: %w", err)
	}

	res := decoder.New(cfg.Logger, stdOut).Decode(ctx, decoder.Request{
		Data:       payload,
		OutputPath: cfg.OutFile,
		MimeType:   cfg.MimeType,
		Encoding:   cfg.Encoding,
	})
	if !res.Success {
		return fmt.Errorf("decoding failed: %w", res.Err())
	}
	fmt.Fprintln(stdOut, "decoding completed")
	return nil
}

func RunServer(cfg *Config) error {
	var err error

	addr := ":" + cfg.Port

	r := mux.NewRouter()
	r.Methods(http.MethodPost).Path(decodehttp.DecodePath).Handler(decodehttp.CreateDecodeHandler(decodehttp.DecodeOptions{
		Field:            cfg.Field,
		MimeType:         cfg.MimeType,
		Encoding:         cfg.Encoding,
		MaxContentLength: cfg.MaxBodySizeBytes,
	}, encoding.CreateResponseBuilders()))
	r.Methods(http.MethodGet).Path(decodehttp.HealthPath).HandlerFunc(decodehttp.HealthHandler)
	lm := logutil.LoggingMiddleware{
		Logger: cfg.Logger,
	}

	r.Use(lm.PrepareLogger)
	r.Use(lm.LogRequests)

	var tlsConfig *tls.Config
	if !cfg.DisableHTTPS {
		tlsConfig, err = tlsutil.NewServerConfig(tlsutil.Options{
			Host:         cfg.Host,
			KeyPath:      cfg.ServerKeyPath,
			CertPath:     cfg.CertPath,
			ClientCAPath: cfg.ClientCAPath,
			CACertsPath:  cfg.CaCertsPath,
			DisableAuth:  cfg.DisableAuth,
			Logger:       cfg.Logger,
		})
		if err != nil {
			return fmt.Errorf("unable to create tls config: %w", err)
		}
	}

	srv := &http.Server{
		Addr:         addr,
		WriteTimeout: time.Second * 15,
		ReadTimeout:  time.Minute * 15,
		IdleTimeout:  time.Second * 15,
		Handler:      r,
		TLSConfig:    tlsConfig,
	}

	var startServer func() error
	if cfg.DisableHTTPS {
		startServer = func() error {
			return srv.ListenAndServe()
		}
	} else {
		startServer = func() error {
			return srv.ListenAndServeTLS("", "")
		}
	}

	stop := make(chan struct{})
	go func() {
		cfg.Logger.Info("starting server", zap.String("address", addr))
		if err := startServer(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cfg.Logger.Error("server stopped with error", zap.Error(err))
		}
		close(stop)
	}()

	c := make(chan os.Signal, 1)
	// Graceful shutdown on SIGINT only.
	signal.Notify(c, os.Interrupt)
	defer signal.Stop(c)

	select {
	case <-c:
	case <-stop:
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GracefulTimeout)
	defer cancel()
	// Doesn't block if no connections, but will otherwise wait
	// until the timeout deadline.
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("unable to shutdown server: %w", err)
	}
	cfg.Logger.Info("shutting down server")
	return nil
}

func main() {
	cfg := Config{}

	pflag.StringVar(&cfg.StdOut, "stdout", "", "[OPTIONAL] log file for stderr, stdout and logging")

	pflag.StringVar(&cfg.OutFile, "out", DefaultOutFile, "[OPTIONAL] output file for the decoded audio, empty to skip writing")
	pflag.StringVar(&cfg.MimeType, "mime-type", encoding.MediaTypeWAV, "[OPTIONAL] mime type of the decoded audio (informational)")
	pflag.StringVar(&cfg.Field, "field", input.DefaultField, "[OPTIONAL] JSON field holding the encoded audio")
	pflag.StringVar(&cfg.Encoding, "encoding", encoding.Base64, "[OPTIONAL] encoding of the audio field")

	pflag.BoolVar(&cfg.RunServer, "server", false, "[OPTIONAL] run decoding server")
	pflag.StringVar(&cfg.ServerKeyPath, "server-key", "", "path to a file which contains the server private key (.pem or .pfx)")
	pflag.StringVar(&cfg.CertPath, "cert", "", "path to a file which contains the server certificate in pem format")
	pflag.StringVar(&cfg.CaCertsPath, "ca-certs", "", "[OPTIONAL] path to a file which contains the concatenation of any intermediate and ca certificate in pem format")
	pflag.StringVar(&cfg.ClientCAPath, "client-ca-certs", "", "[OPTIONAL] CA used for client certificates")
	pflag.DurationVar(&cfg.GracefulTimeout, "graceful-timeout", time.Second*15, "[OPTIONAL] the duration for which the server gracefully wait for existing connections to finish - e.g. 15s or 1m")
	pflag.StringVar(&cfg.Host, "host", "localhost", "[OPTIONAL] hostname that is resolvable via dns")
	pflag.StringVar(&cfg.Port, "port", "8080", "[OPTIONAL] port where the server should listen")
	pflag.BoolVar(&cfg.DevelopmentLogging, "dev-logging", false, "[OPTIONAL] enable development logging")
	pflag.IntVar(&cfg.MaxBodySizeBytes, "max-body-size", 10<<20, "[OPTIONAL] maximum allowed size of the request body in bytes")
	pflag.BoolVar(&cfg.DisableAuth, "disable-auth", false, "[OPTIONAL] disable authentication. should only be used for development")
	pflag.BoolVar(&cfg.DisableHTTPS, "disable-https", false, "[OPTIONAL] disable https. runs the server with http")
	pflag.Parse()

	var err error

	stdOut = os.Stdout
	stdErr = os.Stderr
	if cfg.StdOut != "" {
		var out *os.File
		out, err = os.OpenFile(cfg.StdOut, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
		if err == nil {
			fmt.Printf("redirecting all output to %s\n", cfg.StdOut)
			os.Stdout, os.Stderr = out, out
			stdOut, stdErr = out, out
		} else {
			err = fmt.Errorf("cannot create output file %s: %w", cfg.StdOut, err)
		}
	}

	if err == nil {
		cfg.Logger, err = logutil.New(cfg.DevelopmentLogging, cfg.RunServer)
		if err == nil {
			err = run(&cfg, pflag.CommandLine.Args())
			_ = cfg.Logger.Sync()
		} else {
			err = fmt.Errorf("unable to create logger: %w", err)
		}
	}

	if err != nil {
		fmt.Fprintf(stdErr, "%s\n", err)
		os.Exit(1)
	}
}
