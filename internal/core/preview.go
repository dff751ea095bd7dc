package core

// PreviewLimit is the maximum number of records shown before committing.
const PreviewLimit = 10

// Preview is the bounded view of parsed records shown before committing.
type Preview struct {
	Visible    []Record `json:"visible"`
	TotalCount int      `json:"totalCount"`
	Truncated  bool     `json:"truncated"`
}

// Hidden returns how many records are not shown.
func (p Preview) Hidden() int {
	return p.TotalCount - len(p.Visible)
}

// Project returns the first PreviewLimit records together with the true total.
// The returned slice does not alias records.
func Project(records []Record) Preview {
	n := min(len(records), PreviewLimit)
	visible := make([]Record, n)
	copy(visible, records[:n])

	return Preview{
		Visible:    visible,
		TotalCount: len(records),
		Truncated:  len(records) > PreviewLimit,
	}
}
