package exporter

import (
	"calciumcli/internal/imaging"
	"calciumcli/pkg/contracts/domain"
)

// fixed is a value displayed with a fixed number of decimals
type fixed struct {
	value    float64
	decimals int
}

// sheet is one exported table. Cells hold int, float64, fixed, string or
// nil for a blank cell.
type sheet struct {
	name    string
	file    string
	headers []string
	rows    [][]any
}

// csvRecords renders the cells as CSV strings
func (s sheet) csvRecords() [][]string {
	records := make([][]string, len(s.rows))
	for i, row := range s.rows {
		record := make([]string, len(row))
		for j, cell := range row {
			record[j] = cellString(cell)
		}
		records[i] = record
	}
	return records
}

func cellString(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case int:
		return formatInt(v)
	case float64:
		return formatRaw(v)
	case fixed:
		return formatFloat(v.value, v.decimals)
	case string:
		return v
	default:
		return ""
	}
}

// frameSheet renders a window table with a leading frame column
func frameSheet(name, file string, t domain.Table) sheet {
	s := sheet{
		name:    name,
		file:    file,
		headers: append([]string{"frame"}, t.Columns...),
		rows:    make([][]any, 0, t.Len()),
	}
	for i, row := range t.Rows {
		cells := make([]any, 0, len(row)+1)
		cells = append(cells, t.FirstFrame+i)
		for _, v := range row {
			cells = append(cells, v)
		}
		s.rows = append(s.rows, cells)
	}
	return s
}

// responseSheet renders ΔF/F₀ rows with one value and one status column
// per condition. Values that are not usable are left blank.
func responseSheet(name, file string, t *imaging.ResponseTable) sheet {
	s := sheet{
		name:    name,
		file:    file,
		headers: []string{"neuron", "label", "baseline"},
		rows:    make([][]any, 0, len(t.Rows)),
	}
	for _, c := range t.Conditions {
		s.headers = append(s.headers, "dff0_"+string(c), "status_"+string(c))
	}

	for _, row := range t.Rows {
		cells := []any{row.NeuronID, domain.IntensityLabel(row.NeuronID), row.Baseline}
		for _, c := range t.Conditions {
			n := row.Response(c)
			var value any
			if n.OK() {
				value = fixed{n.Value, ResponseDecimals}
			}
			cells = append(cells, value, string(n.Status))
		}
		s.rows = append(s.rows, cells)
	}
	return s
}

// ratioSheet renders every entry of the given ratio sets, retained or not
func ratioSheet(name, file string, sets ...*imaging.RatioSet) sheet {
	s := sheet{
		name:    name,
		file:    file,
		headers: []string{"ratio", "group", "neuron", "label", "value", "status"},
		rows:    make([][]any, 0),
	}
	for _, rs := range sets {
		if rs == nil {
			continue
		}
		for _, e := range rs.Entries {
			var value any
			if e.Status == imaging.StatusOK || e.Status == imaging.StatusNegative {
				value = fixed{e.Value, RatioDecimals}
			}
			s.rows = append(s.rows, []any{
				rs.Name,
				string(rs.Group),
				e.NeuronID,
				domain.IntensityLabel(e.NeuronID),
				value,
				string(e.Status),
			})
		}
	}
	return s
}

// summarySheet renders the summary as key/value rows
func summarySheet(name, file string, s Summary) sheet {
	rows := [][]any{
		{"run_id", s.RunID},
		{"source", s.Source},
		{"start_frame_mc", s.Params.StartFrameMC},
		{"start_frame_cap", s.Params.StartFrameCap},
		{"start_frame_kcl", s.Params.StartFrameKCl},
		{"frames", s.Frames},
		{"neurons", s.Neurons},
		{"cap_responders", s.CapResponders},
		{"mc_responders", s.MCResponders},
		{"only_cap", s.OnlyCap},
		{"only_mc", s.OnlyMC},
		{"both", s.Both},
		{"responder_size", estimateCell(s.ResponderSize)},
		{"non_responder_size", estimateCell(s.NonResponderSize)},
		{"size_response_correlation", estimateCell(s.SizeCorrelation)},
	}
	for _, rc := range s.RatioCounts {
		rows = append(rows,
			[]any{rc.Name + "_group_size", rc.GroupSize},
			[]any{rc.Name + "_retained", rc.Retained},
			[]any{rc.Name + "_guard_failures", rc.GuardFailures},
			[]any{rc.Name + "_negative_drops", rc.NegativeDrops},
			[]any{rc.Name + "_degenerate", rc.Degenerate},
			[]any{rc.Name + "_undefined_window", rc.Undefined},
			[]any{rc.Name + "_zero_denominators", rc.ZeroDenominators},
		)
	}
	return sheet{name: name, file: file, headers: []string{"metric", "value"}, rows: rows}
}

func estimateCell(e imaging.Estimate) any {
	if !e.Defined {
		return nil
	}
	return e.Value
}
