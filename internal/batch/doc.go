// Package batch flattens the keywords of many files into one ordered
// stream and slices that stream into contiguous fixed-size batches.
// Stream positions are the join key used to scatter translations back
// to the row they came from.
package batch
