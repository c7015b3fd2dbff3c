package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"

	"upload-lab/domain"
	"upload-lab/infrastructure/storage"
)

// sessions prints the open upload sessions of a stopped server's ledger.
func main() {
	dbPath := flag.String("db", "", "Path to the badger ledger (BADGER_FILEPATH)")
	staleAfter := flag.Duration("stale", 0, "Only show sessions idle for longer than this")
	flag.Parse()
	if *dbPath == "" {
		log.Fatal("missing -db")
	}

	db, err := badger.Open(badger.DefaultOptions(*dbPath).WithReadOnly(true).WithLogger(nil))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	repo := storage.NewSessionRepository(db, logs.GetLoggerFromString("ERROR"))
	var sessions []domain.Session
	if *staleAfter > 0 {
		sessions, err = repo.ListStale(time.Now().Add(-*staleAfter))
	} else {
		sessions, err = repo.List()
	}
	if err != nil {
		log.Fatal(err)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Hash", "Name", "Size", "Received", "Missing", "Opened", "Idle"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	now := time.Now()
	for _, s := range sessions {
		table.Append([]string{
			s.Fingerprint.String(),
			s.Name,
			strconv.FormatInt(s.FileSize, 10),
			fmt.Sprintf("%d/%d", len(s.Received), s.Total),
			summarize(s.Missing()),
			s.CreatedAt.Local().Format(time.DateTime),
			now.Sub(s.UpdatedAt).Round(time.Second).String(),
		})
	}
	table.Render()
}

// summarize keeps the missing list readable for large sessions
func summarize(missing []int) string {
	const shown = 8
	parts := lo.Map(lo.Subset(missing, 0, shown), func(i int, _ int) string { return strconv.Itoa(i) })
	if len(missing) > shown {
		parts = append(parts, fmt.Sprintf("+%d", len(missing)-shown))
	}
	return strings.Join(parts, ",")
}
