package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dvloznov/bank-backoffice/internal/config"
	"github.com/dvloznov/bank-backoffice/internal/domain"
	"github.com/dvloznov/bank-backoffice/internal/export"
	"github.com/dvloznov/bank-backoffice/internal/gateway/httpapi"
	"github.com/dvloznov/bank-backoffice/internal/jobs"
	"github.com/dvloznov/bank-backoffice/internal/logger"
	"github.com/dvloznov/bank-backoffice/internal/report"
	"github.com/dvloznov/bank-backoffice/internal/report/pdf"
	"github.com/dvloznov/bank-backoffice/internal/usecase"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type app struct {
	cfg          config.Config
	log          zerolog.Logger
	clients      *usecase.ClientUseCases
	accounts     *usecase.AccountUseCases
	transactions *usecase.TransactionUseCases
	reports      *report.Assembler
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		l := logger.New()
		l.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithOptions(os.Stderr, logger.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	timeout := httpapi.WithTimeout(cfg.Services.Timeout)
	clientGW := httpapi.NewClientService(cfg.Services.ClientURL, timeout)
	transactionGW := httpapi.NewTransactionService(cfg.Services.TransactionURL, timeout)
	a := &app{
		cfg:          cfg,
		log:          log,
		clients:      usecase.NewClientUseCases(clientGW),
		accounts:     usecase.NewAccountUseCases(httpapi.NewAccountService(cfg.Services.AccountURL, timeout), clientGW),
		transactions: usecase.NewTransactionUseCases(transactionGW),
		reports:      report.NewAssembler(transactionGW, pdf.New()),
	}

	switch os.Args[1] {
	case "clients":
		a.runClients(os.Args[2:])
	case "accounts":
		a.runAccounts(os.Args[2:])
	case "transactions":
		a.runTransactions(os.Args[2:])
	case "report":
		a.runReport(os.Args[2:])
	case "export":
		a.runExport(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Bank Back-Office CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> <action> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  clients       list | get | create | update | activate | deactivate | delete")
	fmt.Println("  accounts      list | get | create | delete")
	fmt.Println("  transactions  list | get | create | delete")
	fmt.Println("  report        Build a movements report and write its PDF")
	fmt.Println("  export        Build a report and send it to the configured export sinks")
	fmt.Println("  help          Show this help message")
	fmt.Println("\nRun 'cli <command> <action> -h' for more information on a command.")
}

func (a *app) context() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	return logger.WithContext(ctx, a.log), cancel
}

// fail prints the operator-facing message for err and exits.
func (a *app) fail(err error) {
	a.log.Debug().Err(err).Msg("Command failed")
	fmt.Fprintln(os.Stderr, "Error:", usecase.Message(err))
	os.Exit(1)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func action(args []string, usage string) (string, []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage:", usage)
		os.Exit(1)
	}
	return args[0], args[1:]
}

func unknownAction(cmd, act string) {
	fmt.Fprintf(os.Stderr, "Unknown %s action: %s\n", cmd, act)
	os.Exit(1)
}

func (a *app) runClients(args []string) {
	act, rest := action(args, "cli clients list|get|create|update|activate|deactivate|delete [options]")
	fs := flag.NewFlagSet("clients "+act, flag.ExitOnError)
	id := fs.Int64("id", 0, "Client ID")
	name := fs.String("name", "", "Full name")
	address := fs.String("address", "", "Address")
	phone := fs.String("phone", "", "Phone, e.g. +593-98-254-7850")
	password := fs.String("password", "", "Password")
	identification := fs.String("identification", "", "Identification number (update)")
	active := fs.Bool("active", true, "Client status")
	fs.Parse(rest)

	ctx, cancel := a.context()
	defer cancel()

	var (
		out any
		err error
	)
	switch act {
	case "list":
		out, err = a.clients.List(ctx)
	case "get":
		out, err = a.clients.Get(ctx, *id)
	case "create":
		out, err = a.clients.Create(ctx, domain.CreateClientRequest{
			FullName: *name, Address: *address, Phone: *phone, Password: *password, Status: *active,
		})
	case "update":
		out, err = a.clients.Update(ctx, *id, domain.Client{
			Person:   domain.Person{FullName: *name, Address: *address, Phone: *phone, Identification: *identification},
			Password: *password,
			Status:   *active,
		})
	case "activate":
		out, err = a.clients.Activate(ctx, *id)
	case "deactivate":
		out, err = a.clients.Deactivate(ctx, *id)
	case "delete":
		if err = a.clients.Delete(ctx, *id); err == nil {
			fmt.Printf("Client %d deleted.\n", *id)
			return
		}
	default:
		unknownAction("clients", act)
	}
	if err != nil {
		a.fail(err)
	}
	printJSON(out)
}

func (a *app) runAccounts(args []string) {
	act, rest := action(args, "cli accounts list|get|create|delete [options]")
	fs := flag.NewFlagSet("accounts "+act, flag.ExitOnError)
	id := fs.Int64("id", 0, "Account ID")
	number := fs.String("number", "", "Account number")
	accountType := fs.String("type", string(domain.AccountSavings), "Account type (Ahorro, Corriente, Credito)")
	balance := fs.String("balance", "0", "Initial balance")
	client := fs.String("client", "", "Client full name")
	verify := fs.Bool("verify-client", false, "Resolve the client name before creating the account")
	active := fs.Bool("active", true, "Account status")
	fs.Parse(rest)

	ctx, cancel := a.context()
	defer cancel()

	var (
		out any
		err error
	)
	switch act {
	case "list":
		out, err = a.accounts.List(ctx)
	case "get":
		out, err = a.accounts.Get(ctx, *id)
	case "create":
		amount, perr := decimal.NewFromString(*balance)
		if perr != nil {
			fmt.Fprintln(os.Stderr, "Error: invalid -balance:", perr)
			os.Exit(1)
		}
		req := domain.CreateAccountRequest{
			AccountNumber:  *number,
			AccountType:    domain.AccountType(*accountType),
			InitialBalance: amount,
			Status:         *active,
			ClientName:     *client,
		}
		if *verify {
			out, err = a.accounts.CreateWithClientLookup(ctx, req)
		} else {
			out, err = a.accounts.Create(ctx, req)
		}
	case "delete":
		if err = a.accounts.Delete(ctx, *id); err == nil {
			fmt.Printf("Account %d deleted.\n", *id)
			return
		}
	default:
		unknownAction("accounts", act)
	}
	if err != nil {
		a.fail(err)
	}
	printJSON(out)
}

func (a *app) runTransactions(args []string) {
	act, rest := action(args, "cli transactions list|get|create|delete [options]")
	fs := flag.NewFlagSet("transactions "+act, flag.ExitOnError)
	id := fs.Int64("id", 0, "Transaction ID")
	account := fs.String("account", "", "Account number")
	txType := fs.String("type", string(domain.TransactionDeposit), "Deposito or Retiro")
	amount := fs.String("amount", "", "Amount")
	fs.Parse(rest)

	ctx, cancel := a.context()
	defer cancel()

	var (
		out any
		err error
	)
	switch act {
	case "list":
		out, err = a.transactions.List(ctx)
	case "get":
		out, err = a.transactions.Get(ctx, *id)
	case "create":
		value, perr := decimal.NewFromString(*amount)
		if perr != nil {
			fmt.Fprintln(os.Stderr, "Error: invalid -amount:", perr)
			os.Exit(1)
		}
		out, err = a.transactions.Create(ctx, domain.Transaction{
			AccountNumber:   *account,
			TransactionType: domain.TransactionType(*txType),
			Amount:          value,
		})
	case "delete":
		if err = a.transactions.Delete(ctx, *id); err == nil {
			fmt.Printf("Transaction %d deleted.\n", *id)
			return
		}
	default:
		unknownAction("transactions", act)
	}
	if err != nil {
		a.fail(err)
	}
	printJSON(out)
}

// reportFlags are shared by report and export.
type reportFlags struct {
	date, client, start, end *string
}

func addReportFlags(fs *flag.FlagSet) reportFlags {
	return reportFlags{
		date:   fs.String("date", "", "Report date (DD/MM/YYYY or YYYY-MM-DD) for a daily report"),
		client: fs.String("client", "", "Client full name for a statement"),
		start:  fs.String("start", "", "Statement start date"),
		end:    fs.String("end", "", "Statement end date"),
	}
}

func (a *app) runReport(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	rf := addReportFlags(fs)
	outDir := fs.String("out", ".", "Directory for the PDF")
	preview := fs.Bool("preview", false, "Print the report as text instead of writing the PDF")
	fs.Parse(args)

	ctx, cancel := a.context()
	defer cancel()

	var (
		r   *report.Report
		err error
	)
	if *rf.date != "" {
		r, err = a.reports.ByDate(ctx, *rf.date)
	} else {
		r, err = a.reports.ByClientAndRange(ctx, *rf.start, *rf.end, *rf.client)
	}
	if err != nil {
		a.fail(err)
	}
	if r.Status != report.StatusSuccess {
		fmt.Println(r.Message)
		if r.Status == report.StatusUnavailable {
			os.Exit(2)
		}
		return
	}
	if r.DecodeErr != nil {
		a.log.Warn().Err(r.DecodeErr).Msg("Service PDF could not be decoded; rendered locally")
	}

	if *preview {
		fmt.Print(r.Text())
		return
	}

	path := filepath.Join(*outDir, r.FileName())
	if err := os.WriteFile(path, r.PDF, 0o644); err != nil {
		a.log.Fatal().Err(err).Str("path", path).Msg("Failed to write PDF")
	}
	fmt.Printf("Report %s: %d movements (%d deposits, %d withdrawals), PDF from %s written to %s\n",
		r.PeriodLabel(), r.Summary.Total, r.Summary.Deposits, r.Summary.Withdrawals, r.PDFSource, path)
}

func (a *app) runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	rf := addReportFlags(fs)
	sinkList := fs.String("sinks", "", "Comma-separated sinks (gcs, bigquery, notion); empty means all configured")
	fs.Parse(args)

	ctx, cancel := a.context()
	defer cancel()

	sinks, closeSinks, err := export.FromConfig(ctx, a.cfg.Export)
	if err != nil {
		a.log.Fatal().Err(err).Msg("Failed to configure export sinks")
	}
	defer closeSinks()

	job := &jobs.ExportReportJob{
		JobID:      uuid.New().String(),
		Date:       *rf.date,
		ClientName: *rf.client,
		StartDate:  *rf.start,
		EndDate:    *rf.end,
		Status:     jobs.JobStatusRunning,
		CreatedAt:  time.Now(),
	}
	for _, s := range strings.Split(*sinkList, ",") {
		if s = strings.TrimSpace(s); s != "" {
			job.Sinks = append(job.Sinks, s)
		}
	}

	runErr := export.NewRunner(a.reports, sinks).Handle(ctx, job)
	completedAt := time.Now()
	job.CompletedAt = &completedAt
	job.Status = jobs.JobStatusCompleted
	if runErr != nil {
		job.Status = jobs.JobStatusFailed
		job.Error = runErr.Error()
	}
	printJSON(job)
	if runErr != nil {
		fmt.Fprintln(os.Stderr, "Error:", runErr)
		os.Exit(1)
	}
}
