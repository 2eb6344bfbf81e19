package tree

import (
	"strings"

	"github.com/fundops/lookthrough/internal/models"
)

// EnrichText resolves the final display attributes of every row and builds
// its free-text search field. Final attributes take the deepest resolved
// level's value, cascading toward the root when deeper levels leave them
// blank. Display names are separately forward-filled shallow→deep so a
// partially resolved chain still shows an ancestor name at every level.
func EnrichText(rows []models.TreeRow) []models.TreeRow {
	for i := range rows {
		row := &rows[i]
		row.Final = finalAttrs(row)
		forwardFillNames(row)
		row.Search = searchField(row)
	}
	return rows
}

// finalAttrs picks, per attribute, the first non-empty value scanning the
// deepest level first and the root last.
func finalAttrs(row *models.TreeRow) models.FinalAttrs {
	pick := func(get func(*models.Level) string, root string) string {
		for i := len(row.Levels) - 1; i >= 0; i-- {
			if v := get(&row.Levels[i]); v != "" {
				return v
			}
		}
		return root
	}
	return models.FinalAttrs{
		Type:         pick(func(l *models.Level) string { return l.Type }, row.Root.Type),
		DisplayName:  pick(func(l *models.Level) string { return l.DisplayName }, row.Root.DisplayName),
		ManagerClean: pick(func(l *models.Level) string { return l.ManagerClean }, row.Root.ManagerClean),
		IssuerName:   pick(func(l *models.Level) string { return l.IssuerName }, row.Root.IssuerName),
		ClassKind:    pick(func(l *models.Level) string { return l.ClassKind }, row.Root.ClassKind),
		ClassDesc:    pick(func(l *models.Level) string { return l.ClassDesc }, row.Root.ClassDesc),
		InstrumentID: row.InstrumentID,
	}
}

// forwardFillNames carries the last seen display name down the levels.
func forwardFillNames(row *models.TreeRow) {
	last := row.Root.DisplayName
	for i := range row.Levels {
		if row.Levels[i].DisplayName == "" {
			row.Levels[i].DisplayName = last
		} else {
			last = row.Levels[i].DisplayName
		}
	}
}

// searchField joins the resolved name, manager, issuer, the immediate
// parent fund name, and the instrument id for substring filtering.
func searchField(row *models.TreeRow) string {
	parts := []string{
		row.Final.DisplayName,
		row.Final.ManagerClean,
		row.Final.IssuerName,
		row.ParentName,
		row.Final.InstrumentID,
	}
	fields := parts[:0]
	for _, p := range parts {
		if p != "" {
			fields = append(fields, p)
		}
	}
	return strings.Join(fields, " ")
}
