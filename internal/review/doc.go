// Package review implements the integration runner: it walks the changed files
// of a pull request, asks the model for a review of every eligible patch and
// posts one comment per file.
//
// Inference failures never stop a run; they become the comment text. Only a
// failure to post a comment aborts the run.
package review
