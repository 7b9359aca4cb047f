package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/equipnfc/equipment-manager/internal/model"
	"github.com/equipnfc/equipment-manager/internal/repository"
)

// exportPageSize is the batch size of the export queries. The export
// is a full dump: batches are fetched until one comes back short.
const exportPageSize = 10000

// csvHeader matches the historical export format consumed by the
// office tooling; column names are intentionally French.
const csvHeader = "ID,Nom,Description,Catégorie,Statut,Localisation,Notes,Créateur,Date de création,Tag NFC"

// csvField quotes a value for CSV output, doubling embedded quotes.
func csvField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ExportCSV renders every equipment row as CSV and returns the content
// together with the dated download filename.
func (s *EquipmentService) ExportCSV(ctx context.Context) (filename, content string, err error) {
	var rows []model.EquipmentView
	for page := 1; ; page++ {
		batch, _, err := s.equipments.List(ctx, repository.EquipmentListQuery{
			Page:      page,
			PageSize:  exportPageSize,
			SortBy:    "createdAt",
			SortOrder: "desc",
		})
		if err != nil {
			return "", "", internal(err)
		}
		rows = append(rows, batch...)
		if len(batch) < exportPageSize {
			break
		}
	}

	var b strings.Builder
	b.WriteString(csvHeader)
	b.WriteByte('\n')

	for _, e := range rows {
		tagID := ""
		if e.Tag != nil {
			tagID = e.Tag.TagID
		}
		fields := []string{
			csvField(fmt.Sprintf("%d", e.ID)),
			csvField(e.Name),
			csvField(deref(e.Description)),
			csvField(e.Category),
			csvField(e.Status),
			csvField(deref(e.Location)),
			csvField(deref(e.Notes)),
			csvField(e.Creator.FirstName + " " + e.Creator.LastName),
			csvField(e.CreatedAt.UTC().Format("2006-01-02")),
			csvField(tagID),
		}
		b.WriteString(strings.Join(fields, ","))
		b.WriteByte('\n')
	}

	today := time.Now().UTC().Format("2006-01-02")
	return fmt.Sprintf("equipments_export_%s.csv", today), b.String(), nil
}
