package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/inconshreveable/log15"

	"github.com/dalnet/ircutils/internal/config"
	"github.com/dalnet/ircutils/internal/irc"
	"github.com/dalnet/ircutils/internal/storage"
	"github.com/dalnet/ircutils/internal/transport"
)

// Version information - set at build time via ldflags
var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

func main() {
	// Command line flags
	configPath := flag.String("c", "./config.yaml", "Path to configuration file")
	pidPath := flag.String("p", "", "Write the process ID to this file")
	showVersion := flag.Bool("v", false, "Show version information and exit")
	showVersionLong := flag.Bool("version", false, "Show version information and exit")
	flag.Parse()

	// Show version and exit
	if *showVersion || *showVersionLong {
		fmt.Printf("ircutils version %s\n", version)
		fmt.Printf("Built: %s\n", buildDate)
		fmt.Printf("Commit: %s\n", gitCommit)
		os.Exit(0)
	}

	if err := run(*configPath, *pidPath); err != nil {
		fmt.Fprintf(os.Stderr, "ircutils: %v\n", err)
		os.Exit(1)
	}
}

func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644)
}

func newLogger(level string) (log15.Logger, error) {
	lvl, err := log15.LvlFromString(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logger := log15.New("module", "ircutils")
	logger.SetHandler(log15.LvlFilterHandler(lvl, log15.StreamHandler(os.Stderr, log15.LogfmtFormat())))
	return logger, nil
}

func run(configPath, pidPath string) error {
	// Make config path absolute
	if !filepath.IsAbs(configPath) {
		wd, _ := os.Getwd()
		configPath = filepath.Join(wd, configPath)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	if pidPath != "" {
		if err := writePIDFile(pidPath); err != nil {
			logger.Warn("could not write PID file", "path", pidPath, "err", err)
		}
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("connecting", "server", cfg.Addr(), "tls", cfg.TLS)
	conn, err := transport.Dial(ctx, transport.Config{
		Addr:        cfg.Addr(),
		TLS:         cfg.TLS,
		TLSInsecure: cfg.TLSInsecure,
		Proxy:       cfg.Proxy,
		DialTimeout: 30 * time.Second,
		SendRate:    cfg.SendRate,
		SendBurst:   cfg.SendBurst,
		Encoding:    cfg.Encoding,
		Logger:      logger.New("module", "transport"),
	})
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	client := irc.NewClient(irc.Options{
		Nick:             cfg.Nick,
		AltNick:          cfg.Alternate,
		Ident:            cfg.Username,
		RealName:         cfg.IRCName,
		Mode:             cfg.Mode,
		Password:         cfg.ServerPass,
		FilterFormatting: cfg.FilterFormatting,
		AutoPong:         true,
		Version:          "ircutils " + version,
		Logger:           logger.New("module", "irc"),
	}, conn)

	if err := bindHandlers(client, cfg, storage.NewTranscripts(cfg.DataDir), logger); err != nil {
		return err
	}

	// Quit politely on signal; Run returns once the server closes the link
	// or the grace period runs out.
	runCtx, stop := context.WithCancel(context.Background())
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("received signal, shutting down")
		if err := client.Quit("Received shutdown signal"); err != nil {
			logger.Warn("failed to send QUIT", "err", err)
		}
		time.AfterFunc(5*time.Second, stop)
	}()

	if err := client.Register(); err != nil {
		return fmt.Errorf("failed to register: %w", err)
	}

	err = client.Run(runCtx, conn.Reader())
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func bindHandlers(client *irc.Client, cfg *config.Config, transcripts *storage.Transcripts, logger log15.Logger) error {
	return client.Dispatcher().Bind(map[string]irc.Handler{
		"welcome": func(c *irc.Client, ev irc.Event) (irc.Result, error) {
			logger.Info("registered", "nick", c.Nickname())
			if cfg.NickPass != "" {
				if err := c.Identify(cfg.NickPass); err != nil {
					logger.Warn("failed to identify", "err", err)
				}
			}
			for _, channel := range cfg.Channels {
				if err := c.Join(channel, ""); err != nil {
					logger.Warn("failed to join", "channel", channel, "err", err)
				}
			}
			return irc.Continue, nil
		},
		"message": func(c *irc.Client, ev irc.Event) (irc.Result, error) {
			msg := ev.(*irc.MessageEvent)
			target := msg.Target
			if !msg.InChannel() {
				target = msg.Source
			}
			entry := storage.FormatLine(time.Now(), msg.Source, msg.Text)
			if err := transcripts.Record(target, entry); err != nil {
				logger.Warn("failed to record transcript", "target", target, "err", err)
			}
			return irc.Continue, nil
		},
		"name_reply": func(c *irc.Client, ev irc.Event) (irc.Result, error) {
			names := ev.(*irc.NameReplyEvent)
			logger.Debug("names", "channel", names.Channel, "count", len(names.Names))
			return irc.Continue, nil
		},
		"whois_reply": func(c *irc.Client, ev irc.Event) (irc.Result, error) {
			whois := ev.(*irc.WhoisReplyEvent)
			logger.Info("whois", "nick", whois.Nick, "host", whois.User+"@"+whois.Host,
				"server", whois.Server, "channels", strings.Join(whois.Channels, " "))
			return irc.Continue, nil
		},
		"error": func(c *irc.Client, ev irc.Event) (irc.Result, error) {
			logger.Error("server error", "message", ev.(*irc.StandardEvent).Trailing())
			return irc.Continue, nil
		},
		"disconnect": func(c *irc.Client, ev irc.Event) (irc.Result, error) {
			if err := ev.(*irc.ConnectionEvent).Err; err != nil {
				logger.Warn("disconnected", "err", err)
			} else {
				logger.Info("disconnected")
			}
			return irc.Continue, nil
		},
	})
}
