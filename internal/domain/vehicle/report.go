package vehicle

import (
	"encoding/csv"
	"fmt"
	"io"
)

// reportHeader is the CSV column layout for the printable report.
var reportHeader = []string{
	"id", "vehicle_number", "vehicle_letter", "province", "category",
	"chassis_number", "importer_name", "buyer_name", "work_location",
	"amount", "paid_amount", "remaining_amount", "notes",
}

// WriteCSV renders the vehicle list as a CSV report. The last row is a
// totals line for the three money columns.
func WriteCSV(w io.Writer, vehicles []Vehicle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}

	var totalAmount, totalPaid, totalRemaining float64
	for _, v := range vehicles {
		row := []string{
			fmt.Sprintf("%d", v.ID),
			v.VehicleNumber,
			v.VehicleLetter,
			v.Province,
			v.Category,
			v.ChassisNumber,
			v.ImporterName,
			v.BuyerName,
			v.WorkLocation,
			money(v.Amount),
			money(v.PaidAmount),
			fmt.Sprintf("%.2f", v.RemainingAmount()),
			v.Notes,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write report row: %w", err)
		}
		if v.Amount != nil {
			totalAmount += *v.Amount
		}
		if v.PaidAmount != nil {
			totalPaid += *v.PaidAmount
		}
		totalRemaining += v.RemainingAmount()
	}

	totals := []string{
		"", "", "", "", "", "", "", "", "total",
		fmt.Sprintf("%.2f", totalAmount),
		fmt.Sprintf("%.2f", totalPaid),
		fmt.Sprintf("%.2f", totalRemaining),
		"",
	}
	if err := cw.Write(totals); err != nil {
		return fmt.Errorf("write report totals: %w", err)
	}

	cw.Flush()
	return cw.Error()
}

func money(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}
