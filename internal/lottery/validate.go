package lottery

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the input shape before any I/O: identifier formats,
// entry method, serial format, and duplicate-free closings.
func (in CloseInput) Validate() error {
	if err := validate.Struct(in); err != nil {
		details := map[string]any{}
		if fieldErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrs {
				details[fe.Namespace()] = fe.Tag()
			}
		}
		return newError(CodeInvalidClosings, "invalid close request").withDetails(details)
	}
	return validateClosings(in.Closings)
}

// validateClosings enforces serial format and pack uniqueness. It is
// also applied to the stored pending blob at commit as a defence against
// data drift between the two phases.
func validateClosings(closings []PackClosing) error {
	if len(closings) == 0 {
		return newError(CodeInvalidClosings, "at least one pack closing is required")
	}
	seen := make(map[string]struct{}, len(closings))
	for _, c := range closings {
		if !ValidSerial(c.ClosingSerial) {
			return newErrorf(CodeInvalidClosings, "closing serial %q is not a three-digit number", c.ClosingSerial).
				withDetails(map[string]any{"pack_id": c.PackID, "closing_serial": c.ClosingSerial})
		}
		if _, dup := seen[c.PackID]; dup {
			return newErrorf(CodeInvalidClosings, "pack %s appears more than once", c.PackID).
				withDetails(map[string]any{"pack_id": c.PackID})
		}
		seen[c.PackID] = struct{}{}
	}
	return nil
}

// validateSerialBounds checks each closing serial against the pack's
// [startingSerial, serialEnd] window. Violations name the pack number
// and both bounds.
func validateSerialBounds(closings []PackClosing, packs map[string]Pack, starting map[string]string) error {
	for _, c := range closings {
		pack, ok := packs[c.PackID]
		if !ok {
			return newErrorf(CodePackNotFound, "pack %s not found", c.PackID).
				withDetails(map[string]any{"pack_id": c.PackID})
		}
		closingVal, ok := parseSerial(c.ClosingSerial)
		if !ok {
			return newErrorf(CodeInvalidClosings, "closing serial %q is not a three-digit number", c.ClosingSerial).
				withDetails(map[string]any{"pack_id": c.PackID})
		}
		startVal, _ := parseSerial(starting[pack.ID])
		endVal, _ := parseSerial(pack.SerialEnd)
		if closingVal < startVal || closingVal > endVal {
			return newErrorf(CodeSerialValidationFailed,
				"pack %s: closing serial %s outside [%s, %s]",
				pack.PackNumber, c.ClosingSerial, starting[pack.ID], pack.SerialEnd).
				withDetails(map[string]any{
					"pack_number":     pack.PackNumber,
					"closing_serial":  c.ClosingSerial,
					"starting_serial": starting[pack.ID],
					"serial_end":      pack.SerialEnd,
				})
		}
	}
	return nil
}
