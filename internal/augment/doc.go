// Package augment rebuilds a keyword table with its translation, the Kdroi
// metric and three lookup links. Inserted columns are placed through a
// logical column layout resolved once per header, so row building never
// juggles shifted offsets.
package augment
