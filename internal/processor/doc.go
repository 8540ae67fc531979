// Package processor turns the raw text of one legal document into its
// metadata and an ordered list of typed chunks.
//
// Each document family has its own processor wiring the normalize,
// metadata, splitter and chunker stages together. Service adds what every
// family shares: reading files, content hashing, family detection and
// timestamps.
//
// Basic usage:
//
//	svc := processor.NewService(processor.Options{})
//	doc, err := svc.ProcessFile(ctx, "circulars/liquidation.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d chunks\n", len(doc.Chunks))
package processor
