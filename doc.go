// Package toolsearch is the search and content-indexing engine for a
// developer-tools application: a fuzzy catalog ranker with favorite and
// recency boosts, a deep-content index over persisted records (saved tool
// states, snippets, workflows, clipboard history, presets) with
// sensitive-keyword redaction, and a debounced search session with
// bounded history and subscriber notification.
//
// The engine is an in-process library. Construct a Client, register the
// tool catalog, and point it at a persisted store:
//
//	ts, err := toolsearch.New(
//		toolsearch.WithTools(tools...),
//		toolsearch.WithMemoryStore(),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer ts.Close()
//
//	ranked := ts.RankTools("json", nil)
//	ts.Search(ctx, "query", nil, func(q string, results []toolsearch.ContentResult) {
//		// render results
//	})
package toolsearch
