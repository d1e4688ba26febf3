// Package translation translates keyword batches through a chat-completion
// endpoint. Each batch becomes one numbered prompt; the numbered reply is
// parsed back into exactly one translation per keyword. Failed attempts are
// retried with linear backoff, and a batch that never succeeds degrades to
// its original keywords instead of failing the run.
package translation
