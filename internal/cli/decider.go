package cli

import (
	"context"

	"github.com/dmitrijs2005/fencrypt/internal/common"
	"github.com/dmitrijs2005/fencrypt/internal/reseal"
	"github.com/eiannone/keyboard"
)

// getSingleKey is a test seam for keyboard.GetSingleKey.
var getSingleKey = keyboard.GetSingleKey

// keyDecider asks for the reseal decision with a single keypress.
type keyDecider struct {
	reporter *Reporter
	workDir  string
}

func (d keyDecider) Decide(ctx context.Context) (reseal.Decision, error) {
	d.reporter.Success("Unpacked pack into %s", d.workDir)
	d.reporter.Info(`Press "%c" to update the pack and any other key to discard changes`, reseal.UpdateKey)

	if err := ctx.Err(); err != nil {
		return reseal.DecisionDiscard, err
	}
	ch, _, err := getSingleKey()
	if err != nil {
		return reseal.DecisionDiscard, common.IOError("failed to read key", err)
	}
	return reseal.DecisionFromKey(ch), nil
}
