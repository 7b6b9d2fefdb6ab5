// Package curve orders bounded objects along a space-filling curve.
//
// The sorters permute a Sequence in place. They are stateless and used
// to presort objects before bulk loading a tree, so that objects which are
// close on the curve end up in the same leaf.
package curve
