package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"text/tabwriter"

	"openshard.dev/internal/housing"
	"openshard.dev/internal/persistence/housedb"
)

// housedump inspects a shard's house database offline: list rows, dump one
// house as JSON, or summarize storage usage per owner.
func main() {
	var (
		dbPath = flag.String("db", "./data/houses.db", "house database path")
		serial = flag.Uint("serial", 0, "dump one house as JSON")
		owners = flag.Bool("owners", false, "summarize per owner")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "[housedump] ", 0)
	store, err := housedb.Open(*dbPath, logger)
	if err != nil {
		logger.Fatalf("open: %v", err)
	}
	defer store.Close()

	recs, err := store.LoadAll()
	if err != nil {
		logger.Fatalf("load: %v", err)
	}

	if *serial != 0 {
		for _, rec := range recs {
			if rec.Serial == uint32(*serial) {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				_ = enc.Encode(rec)
				return
			}
		}
		logger.Fatalf("house %d not found", *serial)
	}

	if *owners {
		byOwner := map[string]int{}
		for _, rec := range recs {
			byOwner[rec.Owner]++
		}
		names := make([]string, 0, len(byOwner))
		for n := range byOwner {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Printf("%s\t%d\n", n, byOwner[n])
		}
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SERIAL\tMULTI\tMAP\tOWNER\tSTAGE\tLOCKDOWNS\tSECURES\tCUSTOM")
	for _, rec := range recs {
		custom := ""
		if rec.Foundation != nil {
			custom = fmt.Sprintf("rev %d", rec.Foundation.Current.Revision)
		}
		fmt.Fprintf(tw, "%d\t0x%X\t%s\t%s\t%s\t%d\t%d\t%s\n",
			rec.Serial, rec.MultiID, rec.MapName, rec.Owner,
			housing.DecayLevel(rec.Stage), len(rec.LockDowns), len(rec.Secures), custom)
	}
	_ = tw.Flush()
}
