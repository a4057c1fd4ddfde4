// Package picker wires the label template, candidate catalog, label index,
// side-channel codec and reverse resolver into one selection session.
//
// A Picker is safe for concurrent use. Refresh fetches a new candidate set and
// installs it as an immutable snapshot with a freshly built index; if another
// Refresh starts before an earlier one finishes, the earlier result is
// discarded. Options, Render and Resolve always read one consistent snapshot.
package picker
