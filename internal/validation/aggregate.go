package validation

// Aggregate folds per-rule outcomes into the session verdict with exact
// tallies. Any fail sinks the session; otherwise any warning demotes it. An
// empty outcome list is a vacuous pass: nothing applied, nothing objected.
func Aggregate(outcomes []Outcome) Summary {
	summary := Summary{OverallStatus: StatusPass}

	for _, outcome := range outcomes {
		switch outcome.Status {
		case StatusFail:
			summary.Failed++
			summary.OverallStatus = StatusFail
		case StatusWarning:
			summary.Warnings++
			if summary.OverallStatus != StatusFail {
				summary.OverallStatus = StatusWarning
			}
		default:
			summary.Passed++
		}
	}

	return summary
}
