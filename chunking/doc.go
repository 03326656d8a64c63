// Package chunking splits text into overlapping windows and groups the
// windows into fixed-size batches.
//
// Both stages are lazy. A Cursor walks the text on demand and Batches pulls
// chunks only when the consumer asks for the next batch, so memory stays
// bounded by one batch regardless of the size of the input:
//
//	chunks, err := chunking.Chunks(text, core.ChunkingConfig{WindowSize: 4000, Overlap: 200})
//	if err != nil {
//	    return err
//	}
//	batches, err := chunking.Batches(chunks, 50)
//	if err != nil {
//	    return err
//	}
//	for batch := range batches {
//	    // submit batch
//	}
//
// Window size and overlap are measured in characters (Unicode code points).
// For a given text and configuration the produced chunks, their boundaries
// and their sequence indexes are always identical.
package chunking
