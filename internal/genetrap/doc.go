// Package genetrap exposes the configuration of the GenBank gene-trap
// filter: the map-coordinate collection name, the two output file names and
// the filter mode. Each accessor is bound to one fixed key and returns the
// stored string verbatim.
package genetrap
