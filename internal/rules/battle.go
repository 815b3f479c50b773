package rules

import "fleets-server/internal/world"

// BattleReport describes the outcome of one Battle call.
type BattleReport struct {
	Attacker        string `json:"attacker"`
	Defender        string `json:"defender"`
	DefenderPresent bool   `json:"defender_present"`

	AttackerSizeBefore int64 `json:"attacker_size_before"`
	DefenderSizeBefore int64 `json:"defender_size_before"`
	AttackerSizeAfter  int64 `json:"attacker_size_after"`
	DefenderSizeAfter  int64 `json:"defender_size_after"`

	Looted int64 `json:"looted"`
}

// Battle resolves the attacker's fleet against the defender's territory.
//
// The attacker fleet must sit at the defender's position and still be inside
// its landing window. If the defender's own fleet is home and inside its
// landing window both sides take losses via attrition and fleets return home;
// a wiped-out defender is looted up to the attacker's surviving size. If the
// defender fleet is away or expired the attacker loots up to its full size.
func (e *Engine) Battle(w *world.World, attacker, defender string, block int64) (BattleReport, error) {
	report := BattleReport{Attacker: attacker, Defender: defender}

	if attacker == "" {
		return report, missingSender("attacker")
	}
	if defender == "" {
		return report, invalidArgument("defender is required")
	}
	if attacker == defender {
		return report, invalidArgument("player %q cannot battle itself", attacker)
	}

	attackerAcc, err := account(w, attacker)
	if err != nil {
		return report, err
	}
	defenderAcc, err := account(w, defender)
	if err != nil {
		return report, err
	}
	attackerFleet, err := fleet(w, attacker)
	if err != nil {
		return report, err
	}
	defenderFleet, err := fleet(w, defender)
	if err != nil {
		return report, err
	}

	if !attackerFleet.PresentAt(defender, block) {
		return report, fleetNotPresent(attacker, defender)
	}

	report.AttackerSizeBefore = attackerFleet.Size
	report.DefenderSizeBefore = defenderFleet.Size
	report.DefenderPresent = defenderFleet.PresentAt(defender, block)

	if !report.DefenderPresent {
		report.Looted = transfer(defenderAcc, attackerAcc, attackerFleet.Size, block)
		e.dispatch(attackerFleet, attacker, block)
		report.AttackerSizeAfter = attackerFleet.Size
		report.DefenderSizeAfter = defenderFleet.Size
		return report, nil
	}

	// Both sides are resolved from pre-battle sizes.
	attackerAfter := attrition(attackerFleet.Size, defenderFleet.Size)
	defenderAfter := attrition(defenderFleet.Size, attackerFleet.Size)

	if defenderAfter == 0 {
		report.Looted = transfer(defenderAcc, attackerAcc, attackerAfter, block)
	}

	attackerFleet.Size = attackerAfter
	defenderFleet.Size = defenderAfter
	e.dispatch(attackerFleet, attacker, block)
	e.dispatch(defenderFleet, defender, block)

	report.AttackerSizeAfter = attackerAfter
	report.DefenderSizeAfter = defenderAfter
	return report, nil
}

// attrition is max(0, min(mine, 2*mine-theirs)). The larger side loses
// nothing; the smaller side shrinks linearly to zero.
func attrition(mine, theirs int64) int64 {
	return max(0, min(mine, 2*mine-theirs))
}
