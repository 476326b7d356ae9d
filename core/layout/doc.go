// Package layout derives the static lookup tables of a site: which pattern of
// which unit type occupies which position, and which positions a movement
// between two positions drags along with it.
package layout
