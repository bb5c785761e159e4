package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/duynhne/card-service/internal/core/domain"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

func writeCards(w io.Writer, format string, cards []*domain.BusinessCard) error {
	if cards == nil {
		cards = []*domain.BusinessCard{}
	}
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cards)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cards); err != nil {
			return err
		}
		return enc.Close()
	case outputTable, "":
		return writeTable(w, cards)
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}

func writeTable(w io.Writer, cards []*domain.BusinessCard) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPHONE\tEMAIL\tIMAGES\tUPDATED")
	for _, card := range cards {
		fmt.Fprintf(tw, "%s\t%s %s\t%s\t%s\t%s\t%s\n",
			card.ID,
			card.FirstName, card.LastName,
			card.PhoneNumber,
			dash(domain.Deref(card.Email)),
			images(card),
			card.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	return tw.Flush()
}

func images(card *domain.BusinessCard) string {
	switch {
	case card.FrontImageURL != nil && card.BackImageURL != nil:
		return "front+back"
	case card.FrontImageURL != nil:
		return "front"
	case card.BackImageURL != nil:
		return "back"
	default:
		return "-"
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
