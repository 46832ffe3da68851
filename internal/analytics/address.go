package analytics

import (
	"time"

	"github.com/sells-group/insight-cli/internal/model"
)

// DeriveAddressHistory builds one synthetic address interval per customer
// from the single snapshot we have: effective_from is the account creation
// date, effective_to the last transaction date (or creation date when the
// customer never transacted).
//
// This is a heuristic, not change tracking. ChangeDetected is always false;
// the only signal produced is the long-tenure flag (days_active beyond the
// threshold), which marks accounts worth a manual review, not accounts that
// actually moved.
func DeriveAddressHistory(customers []model.Customer, transactions []model.Transaction, longTenureDays int) model.AddressHistoryResult {
	lastTx := make(map[string]*time.Time, len(customers))
	for _, t := range transactions {
		if t.Date == nil {
			continue
		}
		if cur, ok := lastTx[t.CustomerID]; !ok || t.Date.After(*cur) {
			d := *t.Date
			lastTx[t.CustomerID] = &d
		}
	}

	result := model.AddressHistoryResult{
		Records: make([]model.AddressHistoryRecord, 0, len(customers)),
	}

	var daysSum float64
	for _, c := range customers {
		rec := model.AddressHistoryRecord{
			CustomerID:    c.CustomerID,
			Address:       c.Address,
			EffectiveFrom: c.CreatedDate,
			EffectiveTo:   c.CreatedDate,
			IsCurrent:     true,
		}
		if last, ok := lastTx[c.CustomerID]; ok {
			rec.EffectiveTo = last
		}
		if rec.EffectiveFrom != nil && rec.EffectiveTo != nil {
			days := int(rec.EffectiveTo.Sub(*rec.EffectiveFrom).Hours() / 24)
			if days > 0 {
				rec.DaysActive = days
			}
		}

		daysSum += float64(rec.DaysActive)
		if rec.DaysActive > longTenureDays {
			result.LongTermCustomers = append(result.LongTermCustomers, model.LongTermCustomer{
				CustomerID: c.CustomerID,
				DaysActive: rec.DaysActive,
			})
		}
		result.Records = append(result.Records, rec)
	}

	result.TotalTracked = len(result.Records)
	result.PotentialChanges = len(result.LongTermCustomers)
	if len(result.Records) > 0 {
		result.AvgDaysAtAddress = daysSum / float64(len(result.Records))
	}

	return result
}
