// Package writers serialises results as text (TSV), JSON, JSONL or YAML.
//
// Design:
//   - Writers own all presentation knowledge; core packages return plain values.
//   - JSON/JSONL/YAML go through pkg/api (v1) for a stable wire format.
//   - Formats are looked up in a registry instead of a switch.
package writers
