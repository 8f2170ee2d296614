package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gridstack/internal/compat"
	"gridstack/internal/models"
	"gridstack/internal/usecase"
)

// readProducts decodes a JSON array of products from path, or from stdin
// when path is "-".
func readProducts(stdin io.Reader, path string) ([]models.Product, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	var products []models.Product
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, fmt.Errorf("decoding products: %w", err)
	}
	return products, nil
}

func writeScore(w io.Writer, products []models.Product, asJSON bool) error {
	report := compat.Report(compat.Calculate(products))
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	_, err := io.WriteString(w, renderReport(products, report))
	return err
}

// renderReport formats a report for the terminal.
func renderReport(products []models.Product, report models.StackReport) string {
	names := make(map[string]string, len(products))
	for _, p := range products {
		names[p.ID] = p.DisplayName()
	}

	var b strings.Builder
	for _, r := range report.Pairs {
		fmt.Fprintf(&b, "%-40s %2d/%d", compat.PairLabel(r.PairID, names), r.Score, compat.MaxPairScore)
		if len(r.Reasons) > 0 {
			fmt.Fprintf(&b, "  %s", strings.Join(r.Reasons, ", "))
		}
		b.WriteString("\n")
	}
	if len(report.Pairs) == 0 {
		b.WriteString("Select at least two products to score compatibility.\n")
		return b.String()
	}
	fmt.Fprintf(&b, "\nStack score: %d (%s)\n", report.StackScore, tierStyle(report.Tier).Render(string(report.Tier)))
	return b.String()
}

func printUseCases(w io.Writer, table *usecase.Table) {
	for _, u := range table.All() {
		fmt.Fprintf(w, "%-12s %s %s\n", u.ID, u.Icon, u.Name)
		fmt.Fprintf(w, "%-12s %s\n", "", u.Description)
		for _, c := range u.Categories {
			marker := " "
			if c.Required {
				marker = "*"
			}
			fmt.Fprintf(w, "%-12s %s %s\n", "", marker, c.Name)
		}
	}
}
