package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/kilianp07/clsprm/core/lotsizing"
)

// Format names an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Write renders plan in the given format.
func Write(w io.Writer, plan *lotsizing.Plan, f Format) error {
	switch f {
	case FormatJSON, "":
		return WriteJSON(w, plan)
	case FormatCSV:
		return WriteCSV(w, plan)
	default:
		return fmt.Errorf("unknown format %q", f)
	}
}

// WriteJSON writes the plan to w in JSON format.
func WriteJSON(w io.Writer, plan *lotsizing.Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(plan)
}

// WriteCSV writes one row per product and period. A plan without solution
// produces the header only.
func WriteCSV(w io.Writer, plan *lotsizing.Plan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"product", "period", "x", "x_r", "l", "l_r", "gamma", "gamma_r"}); err != nil {
		return err
	}
	for _, e := range plan.Entries {
		rec := []string{
			strconv.Itoa(e.Product),
			strconv.Itoa(e.Period),
			formatFloat(e.Produced),
			formatFloat(e.Remanufactured),
			formatFloat(e.Inventory),
			formatFloat(e.ReturnsInventory),
			formatFloat(e.ProductionSetup),
			formatFloat(e.RemanufacturingSetup),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
