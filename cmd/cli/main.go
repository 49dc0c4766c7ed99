// Command cli is a small route explorer over the provider network: list the
// tradeable currencies and preview conversion routes without running a server.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/amirasaad/kapital/config"
	infra_tbdex "github.com/amirasaad/kapital/infra/tbdex"
	providerfixtures "github.com/amirasaad/kapital/internal/fixtures/providers"
	"github.com/amirasaad/kapital/pkg/currency"
	"github.com/amirasaad/kapital/pkg/offering"
	"github.com/amirasaad/kapital/pkg/routing"
	"github.com/amirasaad/kapital/pkg/service/discovery"
)

func main() {
	argsLen := len(os.Args)
	if argsLen < 2 {
		fmt.Println("Usage: cli <command> [arguments]")
		fmt.Println("Commands: currencies, routes <from> <to>, providers")
		return
	}
	cmd := os.Args[1]

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	directory, err := providerfixtures.LoadDefaultDirectory()
	if err != nil {
		fmt.Println("Failed to load provider directory:", err)
		return
	}
	client := infra_tbdex.NewClient(
		config.Tbdex{HTTPTimeout: 10 * time.Second},
		infra_tbdex.PassthroughResolver,
		logger,
	)
	resolver := offering.NewResolver(client, directory, logger)
	svc := discovery.NewService(directory, client, resolver, routing.Options{}, logger)

	switch cmd {
	case "currencies":
		bold := color.New(color.Bold)
		for _, listing := range svc.SupportedCurrencies(context.Background()) {
			var directions []string
			if listing.Payin {
				directions = append(directions, "payin")
			}
			if listing.Payout {
				directions = append(directions, "payout")
			}
			bold.Printf("%-5s", listing.Code)
			fmt.Printf(" %-5s %s\n", listing.Symbol, strings.Join(directions, ", "))
		}
	case "routes":
		if argsLen < 4 {
			fmt.Println("Usage: routes <from> <to>")
			return
		}
		from := currency.Code(strings.ToUpper(os.Args[2]))
		to := currency.Code(strings.ToUpper(os.Args[3]))
		resolved, err := svc.DiscoverRoutes(context.Background(), from, to)
		if err != nil {
			color.Red("Error discovering routes: %v", err)
			return
		}
		if len(resolved) == 0 {
			color.Yellow("No viable route from %s to %s", from, to)
			return
		}
		for i, rp := range resolved {
			codes := make([]string, len(rp.Currencies))
			for j, c := range rp.Currencies {
				codes[j] = c.String()
			}
			color.New(color.Bold).Printf("%d. %s", i+1, strings.Join(codes, " -> "))
			if rate, ok := rp.EstimatedRate(); ok {
				fmt.Printf("  (est. rate %s)", currency.FormatRate(rate))
			}
			fmt.Println()
			for hop, off := range rp.HopOffers {
				fmt.Printf("   hop %d: %s via %s at %s\n",
					hop+1, off.ID(), rp.Providers[hop], off.Data.PayoutUnitsPerPayinUnit)
			}
		}
	case "providers":
		for _, key := range directory.Keys() {
			info, err := directory.Get(key)
			if err != nil {
				continue
			}
			color.New(color.Bold).Printf("%-25s", key)
			fmt.Printf(" %s\n", info.URI)
		}
	default:
		fmt.Println("Unknown command:", cmd)
	}
}
