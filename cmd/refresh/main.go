package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/STTM-NSU/financeel/internal/app"
	"github.com/STTM-NSU/financeel/internal/config"
	"github.com/STTM-NSU/financeel/internal/logger"
	"github.com/STTM-NSU/financeel/internal/tools"
	"github.com/joho/godotenv"
)

const (
	_cfgFilePath = "./configs/financeel.yaml"
)

// refresh fetches prices once, persists them and prints the portfolio table.
func main() {
	cfgPath := flag.String("config", _cfgFilePath, "path to the config file")
	skipRefresh := flag.Bool("offline", false, "print cached values without fetching")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Printf("can't detect .env file")
	}

	cfg, err := config.LoadConfig(*cfgPath)
	if err != nil {
		log.Fatalf("%s: can't load cfg", err)
	}

	zapLogger, loggerSync, err := logger.NewZapLogger(logger.ParseLevel(cfg.LogLevel))
	if err != nil {
		log.Fatalf("%s: can't init logger", err)
	}
	defer loggerSync()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatalf("%s: can't init app", err)
	}
	defer func() {
		if err := a.Close(context.Background()); err != nil {
			zapLogger.Errorf("%s: can't close app", err)
		}
	}()

	if !*skipRefresh && !a.Tracker.RefreshPrices(ctx) {
		zapLogger.Warnf("prices could not be refreshed, showing last known values")
	}

	rows, totals := a.Tracker.Valuation()
	if err := printTable(os.Stdout, a.Display, a.Display.Rows(rows), a.Display.Totals(totals), a.Tracker.LastRefreshed()); err != nil {
		zapLogger.Errorf("%s: can't print portfolio", err)
	}
}

func printTable(out io.Writer, display tools.DisplayPolicy, rows []tools.DisplayRow, totals tools.DisplayTotals, lastUpdate time.Time) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "#\tSymbol\tName\tQty\tPrice\tChange\tCost basis\tValue\tProfit\tProfit %\tWeight\t")
	for i, r := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			i, r.Symbol, r.Name, r.Quantity, r.CurrentPrice, r.PercentChange,
			r.CostBasis, r.CurrentValue, r.Profit, r.ProfitPercent, r.Weight)
	}
	fmt.Fprintf(w, "\tTotal\t\t\t\t\t%s\t%s\t%s\t%s\t\t\n", totals.CostBasis, totals.Value, totals.Profit, totals.ProfitPercent)
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "\nLast update: %s (values in %s)\n", display.Since(time.Now(), lastUpdate), display.CurrencySymbol)
	return err
}
