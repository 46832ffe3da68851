package ingest

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/insight-cli/internal/model"
)

// ParseCustomers decodes the single-column customer encoding. Each usable
// cell looks like {id_name_email_dob_address_serial}: braces stripped, then
// split on underscores into at least six parts, the sixth being a serial
// date. Malformed rows are skipped with a diagnostic, never an error; the
// caller treats an empty result as the batch-level failure signal.
func ParseCustomers(raw []string) []model.Customer {
	customers := make([]model.Customer, 0, len(raw))
	seen := make(map[string]bool, len(raw))

	for _, row := range raw {
		row = strings.TrimSpace(row)
		if row == "" {
			continue
		}

		cleaned := strings.Trim(row, "{}")
		parts := strings.Split(cleaned, "_")
		if len(parts) < 6 {
			zap.L().Debug("ingest: skipping malformed customer row",
				zap.String("row", row),
				zap.Int("parts", len(parts)),
			)
			continue
		}

		serial, err := strconv.ParseFloat(strings.TrimSpace(parts[5]), 64)
		if err != nil {
			zap.L().Debug("ingest: skipping customer row with bad serial date",
				zap.String("row", row),
				zap.Error(err),
			)
			continue
		}

		if seen[parts[0]] {
			continue
		}
		seen[parts[0]] = true

		created := FromSerial(serial)
		customers = append(customers, model.Customer{
			CustomerID:  parts[0],
			Name:        parts[1],
			Email:       parts[2],
			DOB:         ParseDateCell(parts[3]),
			Address:     parts[4],
			CreatedDate: &created,
		})
	}

	return customers
}
