// Package extract provides implementations of the Extractor interface
// for various document formats. Each extractor knows how to decompose a
// specific set of file extensions into ordered text and table units.
//
// Extractors are registered with the Registry at startup.
package extract
