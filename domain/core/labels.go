package core

import "fmt"

// CheckBinaryLabels verifies that labels hold only 0 and 1 and that both
// classes occur.
func CheckBinaryLabels(labels []int) error {
	if len(labels) == 0 {
		return fmt.Errorf("%w: no labels", ErrDegenerateLabels)
	}
	var seen [2]bool
	for i, l := range labels {
		if l != 0 && l != 1 {
			return NewInvalidLabelError(i, l)
		}
		seen[l] = true
	}
	if !seen[0] || !seen[1] {
		return NewDegenerateLabelError(labels[0])
	}
	return nil
}
