package tree

import (
	"testing"

	"github.com/fundops/lookthrough/internal/models"
)

func TestEnrichText_FinalCascadesDeepestFirst(t *testing.T) {
	row := models.NewTreeRow(models.Position{
		Type: "fund", DisplayName: "ROOT FUND", ManagerClean: "ROOT MGR",
		IssuerName: "ROOT ISSUER", ClassKind: "fund", ClassDesc: "fund share",
	})
	row.Levels = []models.Level{
		{FundID: "FA", DisplayName: "MID FUND", ManagerClean: "MID MGR"},
		{FundID: "FB", Type: "bond", DisplayName: "GOV BOND", ClassDesc: "treasury note"},
	}
	row.Depth = 2
	row.InstrumentID = "ISIN-1"

	rows := EnrichText([]models.TreeRow{row})
	final := rows[0].Final

	if final.Type != "bond" {
		t.Errorf("Final.Type = %q, want bond (deepest)", final.Type)
	}
	if final.DisplayName != "GOV BOND" {
		t.Errorf("Final.DisplayName = %q, want GOV BOND", final.DisplayName)
	}
	// deepest level has no manager; the next level up supplies it
	if final.ManagerClean != "MID MGR" {
		t.Errorf("Final.ManagerClean = %q, want MID MGR", final.ManagerClean)
	}
	// only the root carries an issuer
	if final.IssuerName != "ROOT ISSUER" {
		t.Errorf("Final.IssuerName = %q, want ROOT ISSUER", final.IssuerName)
	}
	if final.ClassDesc != "treasury note" {
		t.Errorf("Final.ClassDesc = %q, want treasury note", final.ClassDesc)
	}
	if final.InstrumentID != "ISIN-1" {
		t.Errorf("Final.InstrumentID = %q, want ISIN-1", final.InstrumentID)
	}
}

func TestEnrichText_LeafUsesRootAttributes(t *testing.T) {
	row := models.NewTreeRow(models.Position{
		Type: "equity", DisplayName: "DIRECT STOCK", ManagerClean: "SELF",
	})

	rows := EnrichText([]models.TreeRow{row})

	if rows[0].Final.DisplayName != "DIRECT STOCK" {
		t.Errorf("Final.DisplayName = %q, want DIRECT STOCK", rows[0].Final.DisplayName)
	}
	if rows[0].Final.Type != "equity" {
		t.Errorf("Final.Type = %q, want equity", rows[0].Final.Type)
	}
}

func TestEnrichText_ForwardFillsDisplayNames(t *testing.T) {
	row := models.NewTreeRow(models.Position{DisplayName: "ROOT"})
	row.Levels = []models.Level{
		{FundID: "FA"},                       // blank, takes ROOT
		{FundID: "FB", DisplayName: "NAMED"}, // keeps its own
		{FundID: "FC"},                       // blank, takes NAMED
	}
	row.Depth = 3

	rows := EnrichText([]models.TreeRow{row})

	want := []string{"ROOT", "NAMED", "NAMED"}
	for i, w := range want {
		if rows[0].Levels[i].DisplayName != w {
			t.Errorf("level %d DisplayName = %q, want %q", i, rows[0].Levels[i].DisplayName, w)
		}
	}
}

func TestEnrichText_SearchField(t *testing.T) {
	row := models.NewTreeRow(models.Position{
		DisplayName: "ROOT", ManagerClean: "ACME ASSET MGMT", IssuerName: "TREASURY",
	})
	row.Levels = []models.Level{
		{FundID: "FA", DisplayName: "DEEP BOND"},
	}
	row.Depth = 1
	row.InstrumentID = "ISIN-42"
	row.ParentName = "PARENT FUND"

	rows := EnrichText([]models.TreeRow{row})

	want := "DEEP BOND ACME ASSET MGMT TREASURY PARENT FUND ISIN-42"
	if rows[0].Search != want {
		t.Errorf("Search = %q, want %q", rows[0].Search, want)
	}
}

func TestEnrichText_SearchSkipsEmptyParts(t *testing.T) {
	row := models.NewTreeRow(models.Position{DisplayName: "ONLY NAME"})

	rows := EnrichText([]models.TreeRow{row})

	if rows[0].Search != "ONLY NAME" {
		t.Errorf("Search = %q, want %q (no doubled spaces)", rows[0].Search, "ONLY NAME")
	}
}
