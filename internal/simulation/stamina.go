package simulation

import (
	"math"

	"github.com/mmporong/CatRace/internal/stats"
)

// updateStamina drains health while moving and refills it while stationary.
// Whole points move between the accumulator and health; the remainder stays.
func (a *Agent) updateStamina(dt float64, tn Tuning, emit func(Event)) {
	maxH := a.MaxHealth()
	if a.Body.moving {
		a.recoverAcc = 0
		a.drainAcc += tn.DrainRate * dt
		if a.drainAcc >= 1 {
			n := math.Floor(a.drainAcc)
			a.drainAcc -= n
			a.Stats.ModifyRuntime(stats.Modifier{Health: -int(n)})
		}
	} else {
		a.drainAcc = 0
		if a.Stats.Health < maxH {
			a.recoverAcc += tn.RecoveryRate * dt
			if a.recoverAcc >= 1 {
				n := math.Floor(a.recoverAcc)
				a.recoverAcc -= n
				h := a.Stats.Health + int(n)
				if h > maxH {
					h = maxH
				}
				a.Stats.SetRuntime(stats.Health, float64(h))
			}
		} else {
			a.recoverAcc = 0
		}
	}

	switch {
	case a.Stats.Health <= 0 && !a.Body.exhausted:
		a.Body.exhaust(tn.ExhaustedSpeed)
		a.State = Recovery
		emit(Event{Kind: EventAgentExhausted, AgentID: a.ID})
	case a.Body.exhausted && a.Stats.Health >= maxH:
		if a.Body.restore() {
			emit(Event{Kind: EventAgentResumed, AgentID: a.ID})
		}
	}
}
