package reseal

import (
	"context"
)

// Run drives the whole workflow: open the pack, wait for the decider, then
// reseal or discard.
//
// Parameters:
//   - packPath: the encrypted pack to open and, on update, replace.
//   - passphrase: the passphrase the pack was sealed with.
//   - d: asked once, after the working directory is ready.
//   - o: working directory, overwrite, temp dir and chunk size settings.
//
// Returns:
//   - Outcome: OutcomeResealed after "u", OutcomeDiscarded otherwise.
//   - error: a *PhaseError naming the phase that failed. If the decider
//     fails, the working directory is kept and the phase is StateDecision.
func Run(ctx context.Context, packPath string, passphrase []byte, d Decider, o Options) (Outcome, error) {
	s, err := Open(ctx, packPath, passphrase, o)
	if err != nil {
		return OutcomeDiscarded, err
	}

	s.state = StateDecision
	decision, err := d.Decide(ctx)
	if err != nil {
		s.release(ctx)
		s.logger.Error(ctx, "no decision taken, working directory kept", "dir", s.workDir, "error", err)
		return OutcomeDiscarded, phaseError(StateDecision, err)
	}
	s.state = StateOpen

	if decision == DecisionUpdate {
		return OutcomeResealed, s.Reseal(ctx)
	}
	return OutcomeDiscarded, s.Discard(ctx)
}
