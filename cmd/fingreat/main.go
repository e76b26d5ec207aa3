package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"fingreat/internal/agents"
	"fingreat/internal/conversation"
	"fingreat/internal/financials"
	"fingreat/internal/logger"
	"fingreat/internal/server"
	"fingreat/internal/tradelog"
	"fingreat/internal/types"
)

var configPath string

func main() {
	if err := initializeSystem(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer shutdownSystem()

	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "Error:", err)
		shutdownSystem()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fingreat",
		Short: "Multi-agent financial assistant for Nifty 50 stocks",
		Long: `FinGReaT answers questions about Nifty 50 companies with a team of LLM agents,
places trades through Upstox or Zerodha, and predicts how news will move a stock.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to config.yaml")

	cmd.AddCommand(
		newServeCmd(),
		newChatCmd(),
		newIngestNewsCmd(),
		newFinancialsCmd(),
		newEODCmd(),
	)
	return cmd
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := loadConfig(ctx, configPath)
	if err != nil {
		return nil, err
	}
	return buildApp(ctx, cfg)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with the live price feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			compressOldLogs(ctx)

			go a.feed.Run(ctx)
			if m := a.cfg.News.IngestIntervalMinutes; m > 0 {
				go a.ingestor.Run(ctx, a.catalog.Symbols(), time.Duration(m)*time.Minute)
			}

			srv := server.New(a.cfg.Server.Addr,
				time.Duration(a.cfg.Server.ReadTimeoutSeconds)*time.Second,
				time.Duration(a.cfg.Server.WriteTimeoutSeconds)*time.Second,
				server.Deps{
					Master:        a.master,
					Orders:        a.trading,
					Conversations: a.convs,
					Prices:        a.feed,
					Candles:       a.history,
					Impact:        a.impact,
				})

			errc := make(chan error, 1)
			go func() { errc <- srv.Start() }()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
				logger.Info(context.Background(), "Shutting down...")
				if p, err := tradelog.WriteDaySummary(time.Now()); err != nil {
					logger.Warn(context.Background(), "EOD summary failed", "error", err)
				} else if p != "" {
					logger.Info(context.Background(), "EOD CSV written", "path", p)
				}
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}
}

func newChatCmd() *cobra.Command {
	var user, company string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the master agent from the terminal",
		Example: `  fingreat chat --company TCS
  fingreat chat --user alice --company "Infosys Limited"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			return chat(ctx, a, user, company)
		},
	}
	cmd.Flags().StringVar(&user, "user", "cli", "user id the conversation is stored under")
	cmd.Flags().StringVar(&company, "company", "", "company the questions are about")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

func chat(ctx context.Context, a *app, user, company string) error {
	prompt := color.New(color.FgCyan, color.Bold)
	reply := color.New(color.FgGreen)
	warn := color.New(color.FgYellow)

	warn.Printf("Chatting about %s. Type /clear to forget the conversation, /exit to quit.\n", company)
	in := bufio.NewScanner(os.Stdin)
	for {
		prompt.Print("you> ")
		if !in.Scan() {
			fmt.Println()
			return in.Err()
		}
		line := strings.TrimSpace(in.Text())
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/clear":
			if err := a.convs.Clear(ctx, conversation.MasterAgent, user); err != nil {
				return err
			}
			warn.Println("Conversation cleared.")
			continue
		}

		answer, err := a.master.Handle(ctx, agents.Query{UserID: user, Company: company, Text: line})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			color.New(color.FgRed).Println(err)
			continue
		}
		reply.Println(answer)
	}
}

func newIngestNewsCmd() *cobra.Command {
	var symbols []string

	cmd := &cobra.Command{
		Use:   "ingest-news",
		Short: "Scrape recent headlines and add them to the similar-news index",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := setup(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if len(symbols) == 0 {
				symbols = a.catalog.Symbols()
			}
			n, err := a.ingestor.IngestOnce(ctx, symbols)
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Printf("Indexed %d new articles (%d total)\n", n, a.index.Count())
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&symbols, "symbol", nil, "symbols to scrape (default: every Nifty 50 symbol)")
	return cmd
}

func newFinancialsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "financials SYMBOL",
		Short: "Print a company's financial report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			fin, err := financials.Load(cfg.Data.FinancialsPath)
			if err != nil {
				return err
			}
			report := fin.Report(args[0])
			if report == "" {
				return fmt.Errorf("no financial data for %s", strings.ToUpper(args[0]))
			}
			fmt.Fprintln(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func newEODCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "eod",
		Short: "Write the per-symbol order summary CSV for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now().In(types.IST)
			if date != "" {
				d, err := time.ParseInLocation("2006-01-02", date, types.IST)
				if err != nil {
					return fmt.Errorf("--date: %w", err)
				}
				day = d
			}
			p, err := tradelog.WriteDaySummary(day)
			if err != nil {
				return err
			}
			if p == "" {
				color.New(color.FgYellow).Printf("No orders on %s\n", day.Format("2006-01-02"))
				return nil
			}
			color.New(color.FgGreen).Println("EOD CSV written:", p)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to summarise, YYYY-MM-DD (default: today)")
	return cmd
}
