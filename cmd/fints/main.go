package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openfints/fints/internal/banking"
	"github.com/openfints/fints/internal/client"
	"github.com/openfints/fints/internal/config"
	"github.com/openfints/fints/internal/logging"
	"github.com/openfints/fints/internal/tan"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "fints: %v\n", err)
		os.Exit(1)
	}
}

func usage() error {
	return errors.New(`usage: fints [-config path] <command> [args]

commands:
  init-config                       write a starter config file
  accounts                          list SEPA accounts
  balance <iban>                    show the balance of an account
  statements <iban> [from] [to]     list booked transactions (dates YYYY-MM-DD)
  holdings <iban>                   list depot holdings
  standing-orders <iban>            list standing orders
  transfer <iban> <to-name> <to-iban> <amount> [purpose]
  direct-debit <iban> <from-name> <from-iban> <amount> <creditor-id> <mandate-id>`)
}

func run(args []string) error {
	configPath := "fints.toml"
	for len(args) > 0 && strings.HasPrefix(args[0], "-") {
		switch args[0] {
		case "-config", "--config":
			if len(args) < 2 {
				return usage()
			}
			configPath = args[1]
			args = args[2:]
		default:
			return usage()
		}
	}
	if len(args) == 0 {
		return usage()
	}
	command, rest := args[0], args[1:]

	if command == "init-config" {
		if err := config.WriteTemplate(configPath, false); err != nil {
			return err
		}
		fmt.Printf("wrote starter config to %s\n", configPath)
		return nil
	}

	log := logging.ConfigureRuntime("fints")
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	c := client.New(config.ClientConfig(cfg)).WithLogger(log)
	ctx := context.Background()

	switch command {
	case "accounts":
		return printAccounts(ctx, c)
	case "balance":
		if len(rest) < 1 {
			return usage()
		}
		return printBalance(ctx, c, account(rest[0]))
	case "statements":
		if len(rest) < 1 {
			return usage()
		}
		return printStatements(ctx, c, account(rest[0]), rest[1:])
	case "holdings":
		if len(rest) < 1 {
			return usage()
		}
		return printHoldings(ctx, c, account(rest[0]))
	case "standing-orders":
		if len(rest) < 1 {
			return usage()
		}
		return printStandingOrders(ctx, c, account(rest[0]))
	case "transfer":
		if len(rest) < 4 {
			return usage()
		}
		return runTransfer(ctx, c, rest)
	case "direct-debit":
		if len(rest) < 6 {
			return usage()
		}
		return runDirectDebit(ctx, c, rest)
	default:
		return usage()
	}
}

func account(iban string) banking.Account {
	return banking.Account{IBAN: iban}
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("bad amount %q: %w", raw, err)
	}
	return amount, nil
}

func printAccounts(ctx context.Context, c *client.Client) error {
	accounts, err := c.Accounts(ctx)
	if err != nil {
		return err
	}
	for _, a := range accounts {
		fmt.Printf("%s  %s  %s\n", a.IBAN, a.BIC, a.AccountNumber)
	}
	return nil
}

func printBalance(ctx context.Context, c *client.Client, acct banking.Account) error {
	balance, err := c.Balance(ctx, acct)
	if err != nil {
		return err
	}
	fmt.Printf("booked    %s %s\n", balance.BookedBalance, balance.Currency)
	fmt.Printf("pending   %s %s\n", balance.PendingBalance, balance.Currency)
	fmt.Printf("available %s %s\n", balance.AvailableBalance, balance.Currency)
	return nil
}

func printStatements(ctx context.Context, c *client.Client, acct banking.Account, dates []string) error {
	var start, end time.Time
	var err error
	if len(dates) > 0 {
		if start, err = time.Parse("2006-01-02", dates[0]); err != nil {
			return fmt.Errorf("bad from date %q: %w", dates[0], err)
		}
	}
	if len(dates) > 1 {
		if end, err = time.Parse("2006-01-02", dates[1]); err != nil {
			return fmt.Errorf("bad to date %q: %w", dates[1], err)
		}
	}
	statements, err := c.Statements(ctx, acct, start, end)
	var required *tan.RequiredError
	if errors.As(err, &required) {
		snapshot, reference, cerr := confirm(ctx, c, required)
		if cerr != nil {
			return cerr
		}
		if reference == "" {
			// Decoupled approval already completed the order.
			return nil
		}
		statements, err = c.CompleteStatements(ctx, snapshot, required.Challenge.TransactionReference, reference)
	}
	if err != nil {
		return err
	}
	for _, stmt := range statements {
		for _, tx := range stmt.Transactions {
			fmt.Printf("%s  %10s %s  %s\n",
				tx.ValueDate.Format("2006-01-02"), tx.Amount, tx.Currency, tx.Structured.Purpose)
		}
	}
	return nil
}

func printHoldings(ctx context.Context, c *client.Client, acct banking.Account) error {
	holdings, err := c.Holdings(ctx, acct)
	if err != nil {
		return err
	}
	for _, h := range holdings {
		fmt.Printf("%s  %s  %s x %s %s\n", h.ISIN, h.Name, h.Pieces, h.MarketPrice, h.Currency)
	}
	return nil
}

func printStandingOrders(ctx context.Context, c *client.Client, acct banking.Account) error {
	orders, err := c.StandingOrders(ctx, acct)
	if err != nil {
		return err
	}
	for _, o := range orders {
		fmt.Printf("%s  %s %s  every %d %s  to %s (%s)\n",
			o.OrderID, o.Amount, o.Currency, o.Interval, o.TimeUnit, o.Creditor.Name, o.Creditor.IBAN)
	}
	return nil
}

func runTransfer(ctx context.Context, c *client.Client, args []string) error {
	amount, err := parseAmount(args[3])
	if err != nil {
		return err
	}
	req := banking.CreditTransferRequest{
		Creditor: banking.Party{Name: args[1], IBAN: args[2]},
		Amount:   amount,
	}
	if len(args) > 4 {
		req.RemittanceInformation = args[4]
	}
	receipt, err := c.Transfer(ctx, account(args[0]), req)
	var required *tan.RequiredError
	if errors.As(err, &required) {
		snapshot, tanValue, cerr := confirm(ctx, c, required)
		if cerr != nil {
			return cerr
		}
		if tanValue == "" {
			fmt.Println("transfer confirmed")
			return nil
		}
		receipt, err = c.CompleteTransfer(ctx, snapshot, required.Challenge.TransactionReference, tanValue)
	}
	if err != nil {
		return err
	}
	fmt.Printf("submitted: message %s end-to-end %s\n", receipt.MessageID, receipt.EndToEndID)
	return nil
}

func runDirectDebit(ctx context.Context, c *client.Client, args []string) error {
	amount, err := parseAmount(args[3])
	if err != nil {
		return err
	}
	req := banking.DirectDebitRequest{
		Debtor:                  banking.Party{Name: args[1], IBAN: args[2]},
		Amount:                  amount,
		CreditorID:              args[4],
		MandateID:               args[5],
		CreditorName:            args[1],
		MandateSignatureDate:    time.Now(),
		RequestedCollectionDate: time.Now().AddDate(0, 0, 2),
	}
	receipt, err := c.DirectDebit(ctx, account(args[0]), req)
	var required *tan.RequiredError
	if errors.As(err, &required) {
		snapshot, tanValue, cerr := confirm(ctx, c, required)
		if cerr != nil {
			return cerr
		}
		if tanValue == "" {
			fmt.Println("direct debit confirmed")
			return nil
		}
		receipt, err = c.CompleteDirectDebit(ctx, snapshot, required.Challenge.TransactionReference, tanValue)
	}
	if err != nil {
		return err
	}
	fmt.Printf("submitted: message %s end-to-end %s\n", receipt.MessageID, receipt.EndToEndID)
	return nil
}

// confirm handles a second-factor challenge: decoupled orders are polled
// until approved on the second device, TAN orders prompt on the terminal.
// For decoupled orders the returned TAN is empty and the snapshot nil.
func confirm(ctx context.Context, c *client.Client, required *tan.RequiredError) ([]byte, string, error) {
	fmt.Printf("confirmation required: %s\n", required.Challenge.Text)
	if required.Challenge.Decoupled {
		dc, err := c.Decoupled(required.Snapshot, required.Challenge)
		if err != nil {
			return nil, "", err
		}
		fmt.Println("waiting for approval on your device...")
		messages, err := dc.Wait(ctx)
		if err != nil {
			return nil, "", err
		}
		for _, m := range messages {
			fmt.Println(m)
		}
		return nil, "", nil
	}
	fmt.Print("TAN: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return nil, "", err
	}
	return required.Snapshot, strings.TrimSpace(line), nil
}
