package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/warp/pk-reward-engine/factory"
	"github.com/warp/pk-reward-engine/generic"
	"github.com/warp/pk-reward-engine/rewards"
	"github.com/warp/pk-reward-engine/sheet"
)

// Exit codes for different failure modes
const (
	ExitSuccess = 0
	ExitInput   = 1 // Bad catalog, flags or budget
	ExitError   = 2 // Runtime error
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case generic.IsClientError(err),
		errors.Is(err, errUsage),
		errors.Is(err, factory.ErrInvalidDefinition),
		errors.Is(err, sheet.ErrSheetNotFound),
		errors.Is(err, rewards.ErrUnknownUnit):
		return ExitInput
	}
	return ExitError
}
