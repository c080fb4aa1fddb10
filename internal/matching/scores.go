package matching

// Match score constants for path matching.
const (
	// ScorePathExact is the score for an exact path match.
	ScorePathExact = 15

	// ScorePathNamedParams is the score for a path with named parameters match.
	ScorePathNamedParams = 12

	// ScorePathWildcard is the score for a wildcard path match.
	ScorePathWildcard = 10
)

// Match score constants for method matching.
const (
	// ScoreMethod is the score for an explicit method match.
	ScoreMethod = 10

	// ScoreMethodAny is the score of a route accepting every method.
	ScoreMethodAny = 1
)
