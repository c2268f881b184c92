package aggregate

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/propscan/internal/model"
)

// planColumns defines the ordered XLSX output columns. Kept in sync with
// the PlanRecord csv tags so both exports carry the same schema.
var planColumns = []string{
	"business_name",
	"plan_name",
	"account_type",
	"account_size",
	"price_raw",
	"funded_price",
	"discount_code",
	"trial_type",
	"trustpilot_score",
	"profit_goal",
	"drawdown_type",
	"drawdown",
	"daily_loss_limit",
	"activation_fee",
	"reset_fee",
	"source_url",
	"source",
	"fallback",
}

// ExportXLSX writes the combined table as a single-sheet XLSX workbook.
func ExportXLSX(path string, records []model.PlanRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Plans")
	if err != nil {
		return eris.Wrap(err, "xlsx export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range planColumns {
		header.AddCell().SetString(col)
	}

	for _, rec := range records {
		row := sheet.AddRow()
		for _, v := range planRow(rec) {
			row.AddCell().SetString(v)
		}
	}

	return eris.Wrap(f.Save(path), "xlsx export: save file")
}

func planRow(r model.PlanRecord) []string {
	fallback := "false"
	if r.Fallback {
		fallback = "true"
	}
	return []string{
		r.BusinessName,
		r.PlanName,
		r.AccountType,
		r.AccountSize,
		r.PriceRaw,
		r.FundedPrice,
		r.DiscountCode,
		r.TrialType,
		r.TrustpilotScore,
		r.ProfitGoal,
		r.DrawdownType,
		r.Drawdown,
		r.DailyLossLimit,
		r.ActivationFee,
		r.ResetFee,
		r.SourceURL,
		r.Source,
		fallback,
	}
}
