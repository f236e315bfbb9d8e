package contextstore

// Schema history:
//   1: context without an analysis snapshot or preference defaults.
//   2: analysis snapshot stored alongside the context; preferences
//      always populated.

// migrationStep transforms a stored context from one version to the
// next. Steps are pure and safe to re-apply.
type migrationStep func(sc *StoredContext)

// migrations maps a source version to the step that upgrades it by one.
var migrations = map[int]migrationStep{
	1: func(sc *StoredContext) {
		sc.Context.Sanitize()
	},
}

// migrate upgrades sc to the current schema version, one step at a time.
// Returns true if the record changed and should be written back.
func migrate(sc *StoredContext) bool {
	if sc.Version <= 0 {
		sc.Version = 1
	}
	upgraded := false
	for sc.Version < CurrentSchemaVersion {
		if step, ok := migrations[sc.Version]; ok {
			step(sc)
		}
		sc.Version++
		upgraded = true
	}
	return upgraded
}
