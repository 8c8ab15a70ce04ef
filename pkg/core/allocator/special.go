package allocator

// resolveSpecialRule returns the worker a special rule claims for a weekend slot, or nil.
//
// Master rules are tried before rotation rules, each kind in configured order. A rule fires
// only while its weekly quota is unmet and only for a worker in pool, so every hard
// constraint still applies. Quotas are marked as met when the placement is committed.
func resolveSpecialRule(state *AllocationState, slot *Slot, pool []*Worker) *Worker {
	if !slot.IsWeekend() || len(state.SpecialRules) == 0 {
		return nil
	}

	inPool := make(map[string]*Worker, len(pool))
	for _, worker := range pool {
		inPool[worker.ID] = worker
	}

	for _, kind := range []RuleKind{RuleMasterOnce, RuleRotationOnce} {
		for i, rule := range state.SpecialRules {
			if rule.Kind != kind || !rule.Covers(slot.Location.ID) {
				continue
			}
			if state.QuotaSatisfied(i, slot.WeekIndex) {
				continue
			}
			if worker := inPool[rule.WorkerID]; worker != nil {
				return worker
			}
		}
	}

	return nil
}
