package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"syscall"

	"github.com/massmux/lndhub/internal"
	"github.com/massmux/lndhub/internal/api"
	"github.com/massmux/lndhub/internal/errors"
	"github.com/massmux/lndhub/internal/lndhub"
	"github.com/massmux/lndhub/internal/network"
	log "github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"
)

const usage = `usage: lndhub [-config config.yaml] [-debug] <command> [arguments]

commands:
  create  <username> <password>        create a wallet
  auth    <username> <password>        obtain a token pair
  refresh <refresh token>              exchange a refresh token
  invoice [-memo text] [-qr file.png] <sats>
  balance                              list accounts
  pay     <payment request>
  txs                                  list settled transactions
  decode  <payment request>
  mock                                 run a development LNDHub service

authenticated commands read the bearer token from $LNDHUB_TOKEN.
`

// setLogger will initialize the log format
func setLogger(verbose bool) {
	log.SetLevel(log.InfoLevel)
	if verbose {
		log.SetLevel(log.DebugLevel)
	}
	customFormatter := new(log.TextFormatter)
	customFormatter.TimestampFormat = "2006-01-02 15:04:05"
	customFormatter.FullTimestamp = true
	log.SetFormatter(customFormatter)
	log.SetOutput(os.Stderr)
}

func main() {
	defer withRecovery()

	configPath := flag.String("config", "config.yaml", "configuration file")
	debugLog := flag.Bool("debug", false, "debug logging")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	setLogger(*debugLog)

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	cfg, err := configLoader(flag.Arg(0))(*configPath)
	if err != nil {
		log.Fatalf("[config] %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, flag.Arg(0), flag.Args()[1:]); err != nil {
		log.Errorf("[%s] %v", flag.Arg(0), err)
		os.Exit(exitCode(err))
	}
}

// configLoader picks the configuration loader for command. The mock service
// runs without a remote lndhub url.
func configLoader(command string) func(files ...string) (*internal.Configuration, error) {
	if command == "mock" {
		return internal.LoadMockConfiguration
	}
	return internal.LoadConfiguration
}

func run(ctx context.Context, cfg *internal.Configuration, command string, args []string) error {
	if command == "mock" {
		return runMock(ctx, cfg)
	}
	client := lndhub.NewClient(cfg.LndHub.Url, lndhub.WithTransport(network.NewHTTPTransport(network.FromConfiguration(cfg)...)))
	token := os.Getenv("LNDHUB_TOKEN")

	switch command {
	case "create":
		if len(args) != 2 {
			return fmt.Errorf("create needs <username> <password>")
		}
		outcome, err := client.CreateWallet(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		if failed, ok := outcome.(lndhub.WalletCreationFailed); ok {
			return errors.Newf(errors.ApplicationError, "wallet not created: %s", failed.Error)
		}
		return printJSON(outcome)
	case "auth":
		if len(args) != 2 {
			return fmt.Errorf("auth needs <username> <password>")
		}
		tokens, err := client.Authenticate(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(tokens)
	case "refresh":
		if len(args) != 1 {
			return fmt.Errorf("refresh needs <refresh token>")
		}
		tokens, err := client.RefreshTokens(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(tokens)
	case "invoice":
		return runInvoice(ctx, client, token, args)
	case "balance":
		accounts, err := client.GetBalance(ctx, token)
		if err != nil {
			return err
		}
		return printJSON(accounts)
	case "pay":
		if len(args) != 1 {
			return fmt.Errorf("pay needs <payment request>")
		}
		result, err := client.PayInvoice(ctx, args[0], token)
		if err != nil {
			if errors.Is(err, errors.ApplicationError) {
				printJSON(result)
			}
			return err
		}
		return printJSON(result)
	case "txs":
		txs, err := client.GetTransactions(ctx, token)
		if err != nil {
			return err
		}
		return printJSON(txs)
	case "decode":
		if len(args) != 1 {
			return fmt.Errorf("decode needs <payment request>")
		}
		invoice, err := lndhub.DecodeInvoice(args[0])
		if err != nil {
			return err
		}
		return printJSON(invoice)
	}
	return fmt.Errorf("unknown command %q", command)
}

func runInvoice(ctx context.Context, client *lndhub.Client, token string, args []string) error {
	fs := flag.NewFlagSet("invoice", flag.ContinueOnError)
	memo := fs.String("memo", "", "invoice description")
	qrPath := fs.String("qr", "", "write the payment request as QR code png")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("invoice needs <sats>")
	}
	sats, err := strconv.ParseUint(fs.Arg(0), 10, 32)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", fs.Arg(0), err)
	}
	invoice, err := client.CreateInvoice(ctx, *memo, uint32(sats), token)
	if err != nil {
		return err
	}
	if len(*qrPath) > 0 {
		if err := qrcode.WriteFile("lightning:"+invoice.PaymentRequest, qrcode.Medium, 256, *qrPath); err != nil {
			return fmt.Errorf("could not write qr code: %w", err)
		}
		log.Infof("[invoice] qr code written to %s", *qrPath)
	}
	return printJSON(invoice)
}

func runMock(ctx context.Context, cfg *internal.Configuration) error {
	s := api.NewServer(cfg.Mock.Address)
	hub := api.NewMockHub()
	hub.Register(s)
	log.Infof("[mock] serving lndhub on %s as node %s", cfg.Mock.Address, hub.NodeId())
	go func() {
		<-ctx.Done()
		s.Shutdown(context.Background())
	}()
	return s.ListenAndServe()
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func exitCode(err error) int {
	switch errors.CodeOf(err) {
	case errors.TransportError:
		return 3
	case errors.DecodeError, errors.InvalidInvoiceError:
		return 4
	case errors.AuthError:
		return 5
	case errors.ApplicationError:
		return 6
	}
	return 1
}

func withRecovery() {
	if r := recover(); r != nil {
		log.Errorln("Recovered panic: ", r)
		debug.PrintStack()
	}
}
