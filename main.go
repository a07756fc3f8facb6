package main

import (
	"context"
	"fmt"
	"os"

	"github.com/username/finsync/src/alerts"
	"github.com/username/finsync/src/client"
	"github.com/username/finsync/src/config"
	"github.com/username/finsync/src/logger"
	"github.com/username/finsync/src/services"
	"github.com/username/finsync/src/storage"
)

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("finsync client starting...", "server", config.Cfg.ServerURL)

	store, err := storage.Open(config.Cfg.TokenStorePath)
	if err != nil {
		logger.L.Error("Failed to open session store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	sink := alerts.NewSink(config.Cfg.AlertExpiry, config.Cfg.AlertCleanupInterval)
	orch := client.NewOrchestrator()
	session := client.NewSession(config.Cfg.ServerURL, config.Cfg.OAuthClientID, store, sink, orch)
	sink.SetEnabledFunc(session.Authorized)
	transport := client.NewTransport(config.Cfg.ServerURL, session, sink, orch, config.Cfg.RequestsPerSecond)

	users := services.NewUserCache(transport, session, orch)
	currencies := services.NewCurrencyCache(transport, session, orch)
	accounts := services.NewAccountsCache(transport, session, orch, currencies)
	transactions := services.NewTransactionsCache(transport, session, orch, accounts)
	settings := services.NewSettingsCache(transport, session)

	orch.MustBeComplete()

	if session.Restore() {
		logger.L.Info("Restored persisted session")
	}

	ctx := context.Background()
	command := ""
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "login":
		if len(os.Args) != 4 {
			usage()
		}
		if err := session.Login(ctx, os.Args[2], os.Args[3]); err != nil {
			logger.L.Error("Login failed", "error", err)
			os.Exit(1)
		}
		fmt.Println("logged in")

	case "logout":
		session.Clear("")
		fmt.Println("logged out")

	case "accounts":
		orch.UpdateAllData()
		for _, account := range accounts.Accounts() {
			fmt.Printf("%-8d %-24s %10s %s\n", account.ID, account.Name, account.Balance, account.Currency)
		}
		for currency, total := range accounts.TotalsForCurrency() {
			fmt.Printf("total %s (%s): %s\n", currency, total.Name, total.Total)
		}

	case "transactions":
		orch.UpdateAllData()
		transactions.Refresh(ctx)
		for _, transaction := range transactions.Transactions() {
			fmt.Printf("%s  %-12s %s\n", transaction.Date, transaction.Type, transaction.Description)
		}
		fmt.Printf("page %d of %d\n", transactions.CurrentPage(), transactions.TotalPages())

	case "user":
		users.Refresh(ctx)
		if user := users.User(); user != nil {
			fmt.Printf("%s (default currency %s)\n", user.Username, user.DefaultCurrency)
		}

	case "settings":
		settings.Refresh(ctx)
		for _, setting := range settings.Settings() {
			fmt.Printf("%s=%s\n", setting.Name, setting.Value)
		}

	case "import":
		if len(os.Args) != 3 {
			usage()
		}
		file, err := os.Open(os.Args[2])
		if err != nil {
			logger.L.Error("Failed to open import file", "error", err)
			os.Exit(1)
		}
		defer file.Close()
		if err := services.ImportData(ctx, transport, orch, os.Args[2], file); err != nil {
			logger.L.Error("Import failed", "error", err)
			os.Exit(1)
		}
		fmt.Println("imported")

	default:
		usage()
	}

	for _, alert := range sink.Alerts() {
		fmt.Fprintf(os.Stderr, "%s: %s\n", alert.Severity, alert.Message)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: finsync login <username> <password> | logout | accounts | transactions | user | settings | import <file>")
	os.Exit(2)
}
