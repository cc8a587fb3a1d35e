package ontology

// Curated Sequence Ontology terms
//
// These constants cover the feature kinds that appear in virtually every
// GFF3-style annotation set. The table is intentionally small: the
// resolver that owns the full ontology lives in a companion module, and
// this package only pins the accessions the core library and its tests
// reach for by name.
//
// Reference: http://www.sequenceontology.org/

var (
	// SOGene is a region that codes for a functional unit of heredity.
	SOGene = Term{ID: "SO:0000704", Label: "gene"}

	// SOMRNA is a mature messenger RNA transcript.
	SOMRNA = Term{ID: "SO:0000234", Label: "mRNA"}

	// SOTranscript is any RNA synthesized from a DNA template.
	SOTranscript = Term{ID: "SO:0000673", Label: "transcript"}

	// SOExon is a transcript region retained after splicing.
	SOExon = Term{ID: "SO:0000147", Label: "exon"}

	// SOCDS is the protein-coding portion of a transcript.
	SOCDS = Term{ID: "SO:0000316", Label: "CDS"}

	// SOIntron is a transcript region removed by splicing.
	SOIntron = Term{ID: "SO:0000188", Label: "intron"}

	// SOFivePrimeUTR is the untranslated region upstream of the CDS.
	SOFivePrimeUTR = Term{ID: "SO:0000204", Label: "five_prime_UTR"}

	// SOThreePrimeUTR is the untranslated region downstream of the CDS.
	SOThreePrimeUTR = Term{ID: "SO:0000205", Label: "three_prime_UTR"}
)

// curated maps accession to term for LookupTerm.
var curated = map[string]Term{
	SOGene.ID:          SOGene,
	SOMRNA.ID:          SOMRNA,
	SOTranscript.ID:    SOTranscript,
	SOExon.ID:          SOExon,
	SOCDS.ID:           SOCDS,
	SOIntron.ID:        SOIntron,
	SOFivePrimeUTR.ID:  SOFivePrimeUTR,
	SOThreePrimeUTR.ID: SOThreePrimeUTR,
}

// LookupTerm returns the curated term for an accession.
// Returns the term and true if curated, a zero Term and false otherwise.
// An unknown accession is not an error - callers holding accessions
// outside the curated table should construct the Term directly.
func LookupTerm(id string) (Term, bool) {
	term, ok := curated[id]
	return term, ok
}
