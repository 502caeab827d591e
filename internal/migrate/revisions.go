package migrate

// Revisions is the linear schema chain, root first. Append only; never
// reorder or edit a revision that has shipped.
var Revisions = []Revision{
	rev0001BaseTables,
	rev0002AccessPaths,
	rev0003SearchIndexes,
	rev0004SeedData,
	rev0005Summaries,
}
