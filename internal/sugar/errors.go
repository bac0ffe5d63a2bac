package sugar

import (
	tea "github.com/charmbracelet/bubbletea"
)

type ErrorModel interface {
	tea.Model
	GetError() error
}

// RunProgramWithErrors runs program and reports the final model's error.
// The program is built by the caller so it can be handed to goroutines
// that feed it with Send before Run is called.
func RunProgramWithErrors(program *tea.Program) (resultModel tea.Model, err error) {
	resultModel, teaErr := program.Run()
	if errorModel, ok := resultModel.(ErrorModel); ok {
		err = errorModel.GetError()
	}

	// Bubble Tea errors override custom errors
	if teaErr != nil {
		err = teaErr
	}

	return
}
