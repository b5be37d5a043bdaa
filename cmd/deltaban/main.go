package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"deltaban/internal/config"
	"deltaban/internal/domain"
	"deltaban/internal/engine"
	"deltaban/internal/report"
	sdk "deltaban/pkg/deltaban"
)

const version = "0.1.0"

// bookFile is the YAML input for the assess command.
type bookFile struct {
	Stock string    `yaml:"stock"`
	Price float64   `yaml:"price"`
	Base  []rowSpec `yaml:"base"`
	New   []rowSpec `yaml:"new"`
}

type rowSpec struct {
	Kind        string  `yaml:"kind"`
	Direction   string  `yaml:"direction"`
	Quantity    float64 `yaml:"quantity"`
	Sensitivity float64 `yaml:"sensitivity"`
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: deltaban <command> [options]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  version          Print the CLI version\n")
		fmt.Fprintf(os.Stderr, "  assess <file>    Assess a YAML book file locally\n")
		fmt.Fprintf(os.Stderr, "  banlist          List securities in the ban period (server)\n")
		fmt.Fprintf(os.Stderr, "  dates            List journal dates (server)\n")
		fmt.Fprintf(os.Stderr, "  journal <date>   Show recorded assessments for a date (server)\n")
		fmt.Fprintf(os.Stderr, "\nServer commands use DELTABAN_SERVER (default http://localhost:8080).\n\n")
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("deltaban %s\n", version)

	case "assess":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "assess: book file required")
			os.Exit(1)
		}
		if err := runAssess(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "assess: %v\n", err)
			os.Exit(1)
		}

	case "banlist":
		if err := runBanList(); err != nil {
			fmt.Fprintf(os.Stderr, "banlist: %v\n", err)
			os.Exit(1)
		}

	case "dates":
		if err := runDates(); err != nil {
			fmt.Fprintf(os.Stderr, "dates: %v\n", err)
			os.Exit(1)
		}

	case "journal":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "journal: date required (YYYY-MM-DD)")
			os.Exit(1)
		}
		if err := runJournal(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "journal: %v\n", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		flag.Usage()
		os.Exit(1)
	}
}

func newSDKClient() *sdk.Client {
	base := os.Getenv("DELTABAN_SERVER")
	if base == "" {
		base = "http://localhost:8080"
	}
	return sdk.NewClient(base)
}

// runAssess runs the full pipeline locally over a YAML book file.
func runAssess(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var bf bookFile
	if err := yaml.Unmarshal(raw, &bf); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if bf.Price <= 0 {
		return fmt.Errorf("price must be positive, got %v", bf.Price)
	}

	params := engine.DefaultPenaltyParams()
	if cfgPath := os.Getenv("DELTABAN_CONFIG"); cfgPath != "" {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		params = cfg.Penalty.Params()
	}
	eng := engine.New(params)

	base, err := buildBook(eng, bf.Base)
	if err != nil {
		return fmt.Errorf("base book: %w", err)
	}
	next, err := buildBook(eng, bf.New)
	if err != nil {
		return fmt.Errorf("new book: %w", err)
	}

	a := eng.Assess(bf.Stock, base, next, bf.Price)
	fmt.Print(report.Breakdown(a, params))
	return nil
}

func buildBook(eng *engine.Engine, rows []rowSpec) (domain.Book, error) {
	var book domain.Book
	for i, row := range rows {
		pos, err := eng.NewPosition(row.Kind, row.Direction, row.Quantity, row.Sensitivity)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		book = append(book, pos)
	}
	return book, nil
}

func runBanList() error {
	entries, err := newSDKClient().GetBanList(context.Background())
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%-16s since %s\n", e.Symbol, e.Since)
	}
	return nil
}

func runDates() error {
	dates, err := newSDKClient().GetJournalDates(context.Background())
	if err != nil {
		return err
	}
	for _, d := range dates {
		fmt.Println(d)
	}
	return nil
}

func runJournal(date string) error {
	journal, err := newSDKClient().GetJournal(context.Background(), date)
	if err != nil {
		return err
	}
	for _, r := range journal.Records {
		verdict := "ok"
		if r.IsViolation {
			verdict = fmt.Sprintf("VIOLATION %.4f penalty %s", r.Magnitude, report.FormatMoney(r.PenaltyTotal))
		}
		fmt.Printf("%-16s %s  base %s  new %s  %s\n",
			r.Stock, r.Reason,
			report.FormatDelta(r.BaseDelta), report.FormatDelta(r.NetDelta), verdict)
	}
	return nil
}
