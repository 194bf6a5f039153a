package domain

// NewQuotaStats собирает дневную статистику из сырых значений счётчиков.
// cost_per_lead равен нулю при отсутствии отправок; бюджет сверяется
// с целевой стоимостью лида, умноженной на число отправок.
func NewQuotaStats(date string, sent int, cost float64, limit int, targetCostPerLead float64) QuotaStats {
	remaining := limit - sent
	if remaining < 0 {
		remaining = 0
	}
	costPerLead := 0.0
	withinBudget := true
	if sent > 0 {
		costPerLead = cost / float64(sent)
		withinBudget = cost <= targetCostPerLead*float64(sent)
	}
	return QuotaStats{
		Date:          date,
		Sent:          sent,
		Remaining:     remaining,
		EstimatedCost: cost,
		CostPerLead:   costPerLead,
		WithinBudget:  withinBudget,
	}
}
