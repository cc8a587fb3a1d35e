// Package schemas provides the data model for genomic sequence
// annotations: hierarchical features, binned signal tracks, polymorphic
// attribute metadata and an evolution-safe wire codec.
//
// # Architecture
//
// The module is organized as a layered set of packages:
//
//	┌─────────────────────────────────────┐
//	│           setstore                  │  Persistence of encoded
//	│   (NATS JetStream KV, CAS writes)   │  sets, revision checked
//	└─────────────────────────────────────┘
//	           ↓ stores envelopes from
//	┌─────────────────────────────────────┐
//	│             codec                   │  Kind-tagged envelopes,
//	│  (registry, encoder, decoder)       │  unknown-field policies
//	└─────────────────────────────────────┘
//	           ↓ serializes
//	┌─────────────────────────────────────┐
//	│           annotation                │  Features, graphs,
//	│ (attributes, features, wiggles)     │  wiggles, containers
//	└─────────────────────────────────────┘
//	           ↓ built on
//	┌─────────────────────────────────────┐
//	│    coordinates  ·  ontology         │  Genomic regions and
//	│                                     │  controlled vocabulary
//	└─────────────────────────────────────┘
//
// Cross-cutting packages: errors (classified error handling), metric
// (Prometheus instrumentation), config (YAML configuration), testutil
// (fixtures).
//
// # Data Model
//
// A Feature is a located, typed annotation (gene, transcript, exon)
// carrying an ordered multi-valued attribute store. Features link to
// parents by id, never by pointer, so a FeatureGraph can be assembled
// in any order and validated afterwards: cycle detection, dangling
// reference resolution and set-membership consistency run as a single
// explicit Validate step.
//
// A Wiggle is a continuous numeric signal sampled into equal-width
// bins over a region. Evaluation distinguishes "no value here" from a
// stored zero.
//
// AttributeValue is a closed union with an explicit kind tag: plain
// text, an external database identifier, or an ontology term. Unknown
// kinds met during decoding are preserved opaquely and re-encoded byte
// for byte, so newer writers never lose data through older readers.
//
// # Getting Started
//
//	g := annotation.NewFeatureGraph()
//	if err := g.Insert(gene); err != nil { ... }
//	if err := g.Insert(transcript); err != nil { ... }
//	if err := g.Validate(); err != nil { ... }
//
//	data, err := codec.Encode(featureSet)
//	rec, err := codec.Decode(data)
//
// Persistence is optional and lives entirely in setstore; the model
// packages have no transport or storage dependencies.
package schemas
