package imaging

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "calciumcli/internal/errors"
)

var validate = validator.New()

// RunParameters are the user-supplied stimulus start frames of one run
type RunParameters struct {
	StartFrameMC  int `json:"start_frame_mc" yaml:"start_frame_mc" validate:"gt=0"`
	StartFrameCap int `json:"start_frame_cap" yaml:"start_frame_cap" validate:"gt=0"`
	StartFrameKCl int `json:"start_frame_kcl" yaml:"start_frame_kcl" validate:"gt=0"`
}

// Ready reports whether all three start frames are positive
func (p RunParameters) Ready() bool {
	return p.Validate() == nil
}

// Validate returns an error wrapping apperrors.ErrNotReady when any start
// frame is not positive
func (p RunParameters) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", apperrors.ErrNotReady, err)
	}
	fields := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, fe.Field())
	}
	return fmt.Errorf("%w: %s must be > 0", apperrors.ErrNotReady, strings.Join(fields, ", "))
}

// Window returns the frame window of a condition
func (p RunParameters) Window(c Condition) WindowSpec {
	switch c {
	case ConditionMC:
		return WindowSpec{Condition: c, Start: p.StartFrameMC, Length: MCWindowLength}
	case ConditionCap:
		return WindowSpec{Condition: c, Start: p.StartFrameCap, Length: CapWindowLength}
	case ConditionKCl:
		return WindowSpec{Condition: c, Start: p.StartFrameKCl, Length: KClWindowLength}
	default:
		return BaselineWindow()
	}
}
